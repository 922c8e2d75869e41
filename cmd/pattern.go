package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/The-Bear-Den/power-indicator/internal/controller"
	"github.com/The-Bear-Den/power-indicator/internal/indicator"
	"github.com/The-Bear-Den/power-indicator/internal/led"
	"github.com/The-Bear-Den/power-indicator/internal/price"
)

// Test patterns.
const (
	PatternSweep    = "sweep"
	PatternSegments = "segments"
	PatternClear    = "clear"
)

// CreatePatternCmd creates the pattern command.
func CreatePatternCmd(with Runner) *cobra.Command {
	var step time.Duration
	var keep bool

	cmd := &cobra.Command{
		Use:       "pattern [sweep|segments|clear]",
		Short:     "Show a wiring test pattern on the LED strip",
		Long:      `Drives the configured LED driver directly, without sources or the API. The strip is cleared afterwards unless --keep is set.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{PatternSweep, PatternSegments, PatternClear},
		Run: with(func(cmd *cobra.Command, args []string, s Settings) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := showPattern(ctx, s, args[0], step, keep, led.New); err != nil {
				s.Logger.Error("Pattern failed", "pattern", args[0], "error", err)
				stop()
				os.Exit(1)
			}
		}),
	}

	cmd.Flags().DurationVar(&step, "step", 400*time.Millisecond, "Delay between pattern frames")
	cmd.Flags().BoolVar(&keep, "keep", false, "Leave the last frame on the strip")
	return cmd
}

type driverOpener func(led.Options, *slog.Logger) (led.Driver, error)

// showPattern opens the strip, renders the pattern and releases the strip
// again before returning.
func showPattern(ctx context.Context, s Settings, name string, step time.Duration, keep bool, open driverOpener) error {
	if err := s.Layout.Validate(); err != nil {
		return err
	}
	logger := s.Logger.With("pattern", name)

	s.LED.PixelCount = s.Layout.PixelCount()
	driver, err := open(s.LED, logger)
	if err != nil {
		return fmt.Errorf("open LED driver: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Warn("Failed to close LED driver", "error", err)
		}
	}()

	engine, err := indicator.New(s.Layout, driver, logger)
	if err != nil {
		return err
	}
	if err := RunPattern(ctx, engine, name, step); err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("Pattern interrupted")
	}
	if !keep && name != PatternClear {
		if err := engine.Clear(); err != nil {
			logger.Warn("Failed to clear strip", "error", err)
		}
	}
	return nil
}

// RunPattern renders the named pattern on engine. Each frame is held for
// step; a non-positive step renders without pausing.
func RunPattern(ctx context.Context, engine *indicator.Engine, name string, step time.Duration) error {
	l := engine.Layout()
	hold := func() error {
		if step <= 0 {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(step):
			return nil
		}
	}

	switch name {
	case PatternClear:
		return engine.Clear()

	case PatternSweep:
		// Each data row fills in turn in its positional tier color, then
		// every row steps through the partial brightness boundary.
		for row := 1; row < l.Height; row++ {
			if err := engine.SetRow(row, sweepColor(row), 100); err != nil {
				return err
			}
			if err := hold(); err != nil {
				return err
			}
		}
		inc := max(1, 100/l.Width)
		for percent := 0; percent <= 100; percent += inc {
			for row := 1; row < l.Height; row++ {
				if err := engine.SetRow(row, sweepColor(row), percent); err != nil {
					return err
				}
			}
			if err := hold(); err != nil {
				return err
			}
		}
		return nil

	case PatternSegments:
		for _, c := range []indicator.Color{indicator.Yellow, indicator.Green, indicator.Red} {
			for seg := 0; seg < l.Segments; seg++ {
				if err := engine.SetStatus(seg, c); err != nil {
					return err
				}
				if err := hold(); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return fmt.Errorf("unknown pattern %q", name)
}

func sweepColor(row int) indicator.Color {
	c, err := controller.CategoryColor(price.Category(row - 1))
	if err != nil {
		return indicator.White
	}
	return c
}
