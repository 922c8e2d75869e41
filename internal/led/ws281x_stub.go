//go:build !ws281x

package led

import "errors"

// errWS281xUnavailable is returned when the binary was built without libws2811.
var errWS281xUnavailable = errors.New("ws281x driver not compiled in, rebuild with -tags ws281x")

func newWS281x(Options) (Driver, error) {
	return nil, errWS281xUnavailable
}
