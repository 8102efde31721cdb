package symbols

import "fmt"

// MapReadError reports a failure to open or read a linker map file.
// Malformed lines are not errors; they are skipped while parsing.
type MapReadError struct {
	// Path is the map file path, empty when parsing from a reader
	Path string
	// Line is the last line number read before the failure
	Line int
	// Underlying error
	Err error
}

func (e *MapReadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to read map file %s (line %d): %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("failed to read map data (line %d): %v", e.Line, e.Err)
}

func (e *MapReadError) Unwrap() error {
	return e.Err
}
