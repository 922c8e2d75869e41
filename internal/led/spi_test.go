package led

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/The-Bear-Den/power-indicator/internal/indicator"
)

func TestSPITransmit(t *testing.T) {
	buf := bytes.Buffer{}
	d, err := openSPI(spitest.NewRecordRaw(&buf), 4, defaultSPIFreq)
	require.NoError(t, err)
	assert.Equal(t, KindSPI, d.Name())

	frame := make([]indicator.Pixel, 4)
	for i := range frame {
		frame[i] = indicator.Pixel{Index: i, Color: indicator.RGB{R: 25}}
	}

	require.NoError(t, d.Transmit(frame))
	assert.NotZero(t, buf.Len(), "frame should reach the bus")
}

func TestSPITransmitRejectsWrongFrameSize(t *testing.T) {
	buf := bytes.Buffer{}
	d, err := openSPI(spitest.NewRecordRaw(&buf), 4, defaultSPIFreq)
	require.NoError(t, err)

	assert.Error(t, d.Transmit(make([]indicator.Pixel, 3)))
}
