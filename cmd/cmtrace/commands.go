package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/muurk/cmtrace/internal/browser"
	"github.com/muurk/cmtrace/internal/config"
	"github.com/muurk/cmtrace/internal/contexts"
	"github.com/muurk/cmtrace/internal/render"
	"github.com/muurk/cmtrace/internal/symbols"
	"github.com/muurk/cmtrace/internal/ui"
)

// Symbols command flags
var (
	functionsOnly bool
	browse        bool
)

// Config init flags
var force bool

func init() {
	symbolsCmd.Flags().BoolVar(&functionsOnly, "functions", false, "List code entries only")
	symbolsCmd.Flags().BoolVar(&browse, "browse", false, "Open the interactive symbol browser")

	configInitCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file without asking")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(contextsCmd)
	rootCmd.AddCommand(configCmd)
}

// loadTable loads the map file given with -m, reporting failures with a
// failure box.
func loadTable(cmd *cobra.Command) (*symbols.Table, error) {
	if mapFile == "" {
		return nil, errors.New("missing map file: use -m/--map-file")
	}
	cmd.SilenceUsage = true

	table, err := symbols.Load(mapFile, symbols.WithDemangle(demangle))
	if err != nil {
		ui.NewPrinter(os.Stderr).PrintFailure("Cannot load map file", err, []string{
			"Check the path given with -m/--map-file",
		})
		return nil, errReported
	}
	return table, nil
}

// symbolsCmd prints or browses the symbol table
var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List the symbols of a map file",
	Long: `List the ENTRY LIST of an IAR linker map file in address order.

With --browse an interactive, filterable browser is opened instead.`,
	Example: `  cmtrace symbols -m firmware.map --functions
  cmtrace symbols -m firmware.map --demangle --browse`,
	Args: cobra.NoArgs,
	RunE: runSymbols,
}

func runSymbols(cmd *cobra.Command, args []string) error {
	table, err := loadTable(cmd)
	if err != nil {
		return err
	}

	if browse {
		return browser.Run(table)
	}

	entries := table.Entries()
	if functionsOnly {
		entries = table.Functions()
	}

	if ui.IsTerminal(os.Stdout) {
		ui.NewPrinter(os.Stdout).PrintHeader("Symbol table", "cmtrace symbols", map[string]string{
			"Map":     mapFile,
			"Entries": strconv.Itoa(table.Len()),
			"Skipped": strconv.Itoa(table.Skipped()),
			"Listed":  strconv.Itoa(len(entries)),
		})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tSIZE\tKIND\tNAME")
	for _, e := range entries {
		fmt.Fprintf(w, "0x%08x\t0x%x\t%s\t%s\n", e.Address, e.Size, e.Kind, e.DisplayName())
	}
	return w.Flush()
}

// lookupCmd resolves addresses to functions
var lookupCmd = &cobra.Command{
	Use:   "lookup ADDR...",
	Short: "Resolve addresses to symbols",
	Long: `Resolve one or more addresses to the map entry that contains them.

Addresses may be hex (0x prefix) or decimal. An address below the first
entry prints "not found".`,
	Example: `  cmtrace lookup -m firmware.map 0x0801a3c4 0x08010000`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	addrs := make([]uint32, len(args))
	for i, arg := range args {
		addr, err := parseAddress(arg)
		if err != nil {
			return err
		}
		addrs[i] = addr
	}

	table, err := loadTable(cmd)
	if err != nil {
		return err
	}

	for _, addr := range addrs {
		fmt.Println(lookupLine(table, addr))
	}
	return nil
}

func lookupLine(table render.Resolver, addr uint32) string {
	e, ok := table.FindFunctionAt(addr)
	if !ok {
		return fmt.Sprintf("0x%08x: not found", addr)
	}
	return fmt.Sprintf("0x%08x: %s+0x%x (%s)", addr, e.DisplayName(), e.Offset(addr), e.Kind)
}

// parseAddress accepts hex with a 0x prefix or decimal.
func parseAddress(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: must be hex (0x...) or decimal and fit in 32 bits", s)
	}
	return uint32(v), nil
}

// contextsCmd prints the context name table
var contextsCmd = &cobra.Command{
	Use:   "contexts",
	Short: "Print the context name table",
	Long: `Print the exception numbers with names, including any given with --contexts.

Numbers from 16 upward without a name print as IRQ<n-16>.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		names, err := loadContexts()
		if err != nil {
			return err
		}
		printContexts(names)
		return nil
	},
}

func printContexts(c *contexts.Catalog) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tNAME")
	for _, e := range c.Entries() {
		fmt.Fprintf(w, "%d\t%s\n", e.Number, e.Name)
	}
	w.Flush()
}

// configCmd manages the preferences file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the preferences file",
	Long: `Manage the cmtrace preferences file.

Stored values are defaults for flags not given on the command line.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings to the preferences file",
	Long: `Write the preferences file from the defaults plus any flags given.

  cmtrace config init -m build/firmware.map --demangle`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := confirmOverwrite(); err != nil {
			return err
		}
		c := config.NewConfig()
		c.MapFile = mapFile
		c.ContextsFile = contextsFile
		c.Demangle = demangle
		c.LogLevel = logLevel
		c.Color = cfg.Color
		c.Offsets = cfg.Offsets
		if err := c.Save(); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", c.Path())
		return nil
	},
}

// confirmOverwrite asks before replacing an existing preferences file.
// Without a terminal to ask on, --force is required.
func confirmOverwrite() error {
	if force || cfg.Path() == "" {
		return nil
	}
	if !ui.IsTerminal(os.Stdin) {
		return fmt.Errorf("%s already exists: use --force to overwrite", cfg.Path())
	}
	printer := ui.NewPrinter(os.Stderr)
	if !printer.Confirm(os.Stdin, "Preferences file exists", []string{cfg.Path()}, "Overwrite?") {
		return errReported
	}
	return nil
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the preferences file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(p)
		return nil
	},
}
