// Package config manages the cmtrace preferences file.
//
// The file holds defaults for the decode command so that the map file,
// contexts file and output options need not be repeated on every run.
// Flags given on the command line always win over stored values.
//
// # Configuration File Location
//
// The file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/cmtrace/config.yaml or $HOME/.config/cmtrace/config.yaml
//   - macOS: $HOME/.config/cmtrace/config.yaml
//   - Windows: %LOCALAPPDATA%\cmtrace\config.yaml
//
// CMTRACE_CONFIG overrides the location with an explicit file path.
//
// # Usage Example
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.MapFile = "build/firmware.map"
//	if err := cfg.Save(); err != nil {
//	    log.Fatal(err)
//	}
package config
