// Cmtrace decodes Cortex-M function trace streams.
//
// The firmware emits a frame on every function entry and exit carrying
// the active exception number and the PC and LR registers. Cmtrace reads
// that stream from a file or stdin, resolves both addresses against the
// IAR linker map of the firmware image and prints one line per transition.
//
// Usage:
//
//	cmtrace -m firmware.map -f capture.bin
//	socat -u /dev/ttyUSB0,raw - | cmtrace -m firmware.map
//
// See 'cmtrace --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/cmtrace/internal/config"
	"github.com/muurk/cmtrace/internal/logging"
	"github.com/muurk/cmtrace/internal/version"
)

func main() {
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// errReported is returned when the failure was already shown to the user.
var errReported = errors.New("reported")

// Global flags
var (
	mapFile      string
	contextsFile string
	demangle     bool
	logLevel     string

	// cfg holds the loaded preferences file
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cmtrace",
	Short: "Cortex-M function trace decoder",
	Long: `Decode a Cortex-M function trace stream into readable call transitions.

Each trace frame carries the active exception number and the PC and LR
registers at a function transition. Addresses are resolved against the
ENTRY LIST of an IAR linker map file.

Running without a subcommand decodes, the same as 'cmtrace decode'.`,
	Version: version.Version,
	Example: `  # Decode a captured stream
  cmtrace -m build/firmware.map -f capture.bin

  # Decode live from a serial port
  socat -u /dev/ttyUSB0,raw,b921600 - | cmtrace -m build/firmware.map

  # Resolve a fault address
  cmtrace lookup -m build/firmware.map 0x0801a3c4`,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runDecode,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&mapFile, "map-file", "m", "", "IAR linker map file")
	rootCmd.PersistentFlags().StringVar(&contextsFile, "contexts", "", "YAML file with extra context names")
	rootCmd.PersistentFlags().BoolVar(&demangle, "demangle", false, "Demangle C++ symbol names")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level (debug, info, warn, error)")

	addDecodeFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)
}

// setup loads the preferences file, fills flags the user did not set and
// starts logging.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	applyConfig(cmd, cfg)

	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	if cfg.Path() != "" {
		logging.Debug("Loaded preferences", zap.String("path", cfg.Path()))
	}
	return nil
}

// applyConfig copies stored defaults into flags that were not given.
func applyConfig(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("map-file") && c.MapFile != "" {
		mapFile = c.MapFile
	}
	if !flags.Changed("contexts") && c.ContextsFile != "" {
		contextsFile = c.ContextsFile
	}
	if !flags.Changed("demangle") {
		demangle = demangle || c.Demangle
	}
	if !flags.Changed("log-level") && c.LogLevel != "" {
		logLevel = c.LogLevel
	}
	if flags.Lookup("offsets") != nil && !flags.Changed("offsets") {
		offsets = offsets || c.Offsets
	}
	if flags.Lookup("color") != nil && !flags.Changed("color") && c.Color != "" {
		colorMode = c.Color
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cmtrace %s (commit: %s, %s)\n", version.Version, version.Commit, version.Platform())
	},
}
