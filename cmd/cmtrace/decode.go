package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/cmtrace/internal/config"
	"github.com/muurk/cmtrace/internal/contexts"
	"github.com/muurk/cmtrace/internal/logging"
	"github.com/muurk/cmtrace/internal/render"
	"github.com/muurk/cmtrace/internal/symbols"
	"github.com/muurk/cmtrace/internal/trace"
	"github.com/muurk/cmtrace/internal/ui"
)

// Decode flags
var (
	inputFile string
	offsets   bool
	colorMode string
	live      bool
	summary   bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a trace stream",
	Long: `Decode a function trace stream and print one line per transition.

The stream is read from --file, or from stdin when no file is given.
Custom data frames are dumped byte by byte. When the decoder loses the
frame sync marker a warning is printed to stderr, followed by a notice
once sync is reacquired.`,
	Example: `  cmtrace decode -m firmware.map -f capture.bin
  cmtrace decode -m firmware.map --offsets --summary < capture.bin`,
	Args: cobra.NoArgs,
	RunE: runDecode,
}

func init() {
	addDecodeFlags(decodeCmd)
	rootCmd.AddCommand(decodeCmd)
}

func addDecodeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Trace stream file (default: stdin)")
	cmd.Flags().BoolVar(&offsets, "offsets", false, "Show the offset into each function")
	cmd.Flags().StringVar(&colorMode, "color", config.ColorAuto, "Color output (auto, always, never)")
	cmd.Flags().BoolVar(&live, "live", false, "Flush output after every event (default on for stdin)")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print event counts to stderr when done")
}

// decodeOptions controls a decode run independent of cobra state.
type decodeOptions struct {
	color     bool
	offsets   bool
	autoFlush bool
	summary   bool
}

func runDecode(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q", args[0])
	}
	if mapFile == "" {
		return errors.New("missing map file: use -m/--map-file")
	}
	color, err := resolveColor(colorMode, os.Stdout)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	printer := ui.NewPrinter(os.Stderr)

	table, err := symbols.Load(mapFile, symbols.WithDemangle(demangle))
	if err != nil {
		printer.PrintFailure("Cannot load map file", err, []string{
			"Check the path given with -m/--map-file",
			"The linker must be run with --map to produce an IAR map file",
		})
		return errReported
	}
	if table.Len() == 0 {
		printer.PrintWarning("No symbols found", map[string]string{
			"Map file": mapFile,
			"Reason":   "no ENTRY LIST section, every address will be unknown",
		})
	}

	names, err := loadContexts()
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	autoFlush := live
	if inputFile == "" {
		fmt.Fprintln(os.Stderr, "Missing input file. Reading stdin")
		if !cmd.Flags().Changed("live") {
			autoFlush = true
		}
	} else {
		f, err := os.Open(inputFile)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("Decoding",
		zap.String("map", mapFile),
		zap.Int("symbols", table.Len()),
		zap.String("input", inputName(inputFile)))

	err = decodeStream(ctx, in, os.Stdout, os.Stderr, table, names, decodeOptions{
		color:     color,
		offsets:   offsets,
		autoFlush: autoFlush,
		summary:   summary,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// decodeStream renders every event in r to out. Sync diagnostics and the
// summary go to diag. Output is flushed on every return path.
func decodeStream(ctx context.Context, r io.Reader, out, diag io.Writer, resolver render.Resolver, names render.ContextNamer, opts decodeOptions) (err error) {
	dec := trace.NewDecoder()
	rend := render.New(out, resolver, names,
		render.WithStart(dec.Started()),
		render.WithColor(opts.color),
		render.WithOffsets(opts.offsets),
		render.WithAutoFlush(opts.autoFlush),
		render.WithDiagnostics(diag),
	)
	defer func() {
		if ferr := rend.Flush(); err == nil {
			err = ferr
		}
		if opts.summary {
			fmt.Fprintln(diag, rend.Summary())
		}
		logging.Debug("Decode finished", zap.Any("stats", dec.Stats()))
	}()

	return trace.Stream(ctx, r, dec, rend.Render)
}

// resolveColor turns a color mode into an on/off decision for f.
func resolveColor(mode string, f *os.File) (bool, error) {
	switch mode {
	case config.ColorAlways:
		lipgloss.SetColorProfile(termenv.ANSI256)
		return true, nil
	case config.ColorNever:
		return false, nil
	case config.ColorAuto, "":
		return ui.IsTerminal(f), nil
	default:
		return false, fmt.Errorf("invalid --color %q (expected auto, always or never)", mode)
	}
}

func loadContexts() (*contexts.Catalog, error) {
	if contextsFile == "" {
		return contexts.Default()
	}
	return contexts.LoadFile(contextsFile)
}

func inputName(path string) string {
	if path == "" {
		return "stdin"
	}
	return path
}
