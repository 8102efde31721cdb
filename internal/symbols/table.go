package symbols

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ianlancetaylor/demangle"

	"github.com/muurk/cmtrace/internal/logging"
)

// Entry is one record of the linker map entry list.
type Entry struct {
	Name    string
	Address uint32
	Size    uint32
	Kind    string // "Code" or "Data"
	Binding string // "Gb" (global) or "Lc" (local), empty if absent
	Object  string // object file column, e.g. "LinkManager.o [33]"

	// Demangled holds the C++ demangled name when demangling is enabled
	// and Name is a mangled symbol.
	Demangled string
}

// DisplayName returns the demangled name if there is one, else Name.
func (e Entry) DisplayName() string {
	if e.Demangled != "" {
		return e.Demangled
	}
	return e.Name
}

// Offset returns addr relative to the start of the entry.
func (e Entry) Offset(addr uint32) uint32 {
	return addr - e.Address
}

// IsFunction reports whether the entry is a code symbol.
func (e Entry) IsFunction() bool {
	return e.Kind == "Code"
}

func (e Entry) String() string {
	return fmt.Sprintf("%s @ 0x%08x (size 0x%x, %s)", e.DisplayName(), e.Address, e.Size, e.Kind)
}

// Table is an address-sorted, read-only symbol table.
type Table struct {
	entries []Entry
	skipped int
}

// Option configures Build and Load.
type Option func(*options)

type options struct {
	demangle bool
}

// WithDemangle enables C++ demangling of entry names.
func WithDemangle(enabled bool) Option {
	return func(o *options) {
		o.demangle = enabled
	}
}

// Build parses the map file text from r into a Table.
// A map without an entry list yields an empty table and no error.
func Build(r io.Reader, opts ...Option) (*Table, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	entries, skipped, lineNo, err := parseMap(r)
	if err != nil {
		return nil, &MapReadError{Line: lineNo, Err: err}
	}

	if o.demangle {
		for i := range entries {
			if pretty := demangle.Filter(entries[i].Name); pretty != entries[i].Name {
				entries[i].Demangled = pretty
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Address < entries[j].Address
	})

	return &Table{entries: entries, skipped: skipped}, nil
}

// Load reads and parses the map file at path.
func Load(path string, opts ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MapReadError{Path: path, Err: err}
	}
	defer f.Close()

	t, err := Build(f, opts...)
	if err != nil {
		if mre, ok := err.(*MapReadError); ok {
			mre.Path = path
		}
		return nil, err
	}

	logging.LogSymbolTable(path, t.Len(), t.skipped)
	return t, nil
}

// FindFunctionAt returns the entry with the greatest address not exceeding
// addr. The entry size is not checked, so any address past the last entry
// resolves to it. It returns false when the table is empty or addr lies
// below the first entry.
func (t *Table) FindFunctionAt(addr uint32) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].Address > addr
	})
	if i == 0 {
		return Entry{}, false
	}
	return t.entries[i-1], true
}

// Lookup returns the first entry (in address order) named name.
func (t *Table) Lookup(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	for _, e := range t.entries {
		if e.Name == name || e.Demangled == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Skipped returns the number of entry list lines that were not records.
func (t *Table) Skipped() int {
	if t == nil {
		return 0
	}
	return t.skipped
}

// Entries returns a copy of the sorted entries.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Functions returns the code entries in address order.
func (t *Table) Functions() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if e.IsFunction() {
			out = append(out, e)
		}
	}
	return out
}
