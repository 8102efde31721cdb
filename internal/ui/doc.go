// Package ui provides terminal styling for the cmtrace CLI.
//
// It holds the shared lipgloss palette and the "run once" output boxes used
// by commands: a header describing the session, failure boxes with
// troubleshooting tips and warning boxes. Trace lines themselves are
// styled by the render package using the Trace* styles defined here.
//
// Printer.Confirm asks a yes/no question under a warning box, for
// commands that would overwrite user files.
//
// Boxes are written to a Printer, normally bound to stderr so that decoded
// trace output on stdout can be piped or redirected untouched.
package ui
