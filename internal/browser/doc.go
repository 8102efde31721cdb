// Package browser implements the interactive symbol browser behind
// `cmtrace symbols --browse`.
//
// The browser lists the entries of a loaded symbol table in address order
// using bubbles/list, with fuzzy filtering on the symbol name and address.
// Selecting an entry shows its full record from the map file.
//
// # Usage
//
//	table, err := symbols.Load("firmware.map")
//	if err != nil {
//	    return err
//	}
//	return browser.Run(table)
//
// # Keys
//
//	↑/k ↓/j   move
//	/         filter
//	enter     show details
//	f         toggle functions only
//	q         quit
package browser
