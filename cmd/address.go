package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/The-Bear-Den/power-indicator/internal/indicator"
	"github.com/The-Bear-Den/power-indicator/internal/led"
)

// Settings is the part of the service configuration the tool commands use.
type Settings struct {
	Layout indicator.Layout
	LED    led.Options
	Logger *slog.Logger
}

// Runner adapts a command body to a cobra Run func after the service
// options and config file have been resolved.
type Runner func(run func(cmd *cobra.Command, args []string, s Settings)) func(*cobra.Command, []string)

// CreateAddressCmd creates the address command.
func CreateAddressCmd(with Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the physical LED index of every matrix cell",
		Long: `Prints the configured matrix as a grid of strip indices, row 0 (status) first. ` +
			`Use it to check that the strip is wired in the expected serpentine order.`,
		Args: cobra.NoArgs,
		Run: with(func(cmd *cobra.Command, _ []string, s Settings) {
			if err := PrintAddressMap(cmd.OutOrStdout(), s.Layout); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				os.Exit(1)
			}
		}),
	}
}

// PrintAddressMap writes one line per row with the strip index of each
// column and marks the status segment boundaries on row 0.
func PrintAddressMap(w io.Writer, l indicator.Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	digits := len(fmt.Sprint(l.PixelCount() - 1))

	fmt.Fprintf(w, "%dx%d matrix, %d status segments, %d pixels\n", l.Width, l.Height, l.Segments, l.PixelCount())
	for row := 0; row < l.Height; row++ {
		cells := make([]string, l.Width)
		for col := range cells {
			cells[col] = fmt.Sprintf("%*d", digits, l.Address(row, col))
		}
		label := "data"
		if row == indicator.StatusRow {
			label = "status"
		}
		fmt.Fprintf(w, "row %d %-6s %s\n", row, label, strings.Join(cells, " "))
	}

	for seg := 0; seg < l.Segments; seg++ {
		first, width := l.Segment(seg)
		fmt.Fprintf(w, "segment %d: columns %d-%d\n", seg, first, first+width-1)
	}
	return nil
}
