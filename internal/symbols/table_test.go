package symbols

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustBuild(t *testing.T, text string, opts ...Option) *Table {
	t.Helper()
	table, err := Build(strings.NewReader(text), opts...)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return table
}

func TestLoadFirmwareMap(t *testing.T) {
	table, err := Load(filepath.Join("testdata", "firmware.map"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []Entry{
		{Name: "AddLink", Address: 0x0800cdcd, Size: 0x1de, Kind: "Code", Binding: "Lc", Object: "LinkManager.o [33]"},
		{Name: "SysTick_Handler", Address: 0x08000f21, Size: 0x1c, Kind: "Code", Binding: "Gb", Object: "stm32f3xx_it.o [3]"},
		{Name: "main", Address: 0x08009a31, Size: 0x64, Kind: "Code", Binding: "Gb", Object: "main.o [1]"},
		{Name: "AddDataToChecksum", Address: 0x0801010f, Size: 0xc, Kind: "Code", Binding: "Lc", Object: "Settings.o [21]"},
		{Name: "AddEventSubscriber", Address: 0x0801587f, Size: 0x32, Kind: "Code", Binding: "Lc", Object: "SMBus.o [51]"},
		{Name: "ICharger_IsChargingEnabled", Address: 0x0801b1fd, Size: 0x8, Kind: "Code", Binding: "Gb", Object: "Charger.o [30]"},
		{Name: "AHBPrescTable", Address: 0x0801f124, Size: 0x10, Kind: "Data", Binding: "Gb", Object: "system_stm32f3xx.o [5]"},
		{Name: "APBPrescTable", Address: 0x0801f23c, Size: 0x8, Kind: "Data", Binding: "Gb", Object: "system_stm32f3xx.o [5]"},
	}
	// Sort the expectation the way the table does.
	want = sortedCopy(want)

	if diff := cmp.Diff(want, table.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	if table.Skipped() == 0 {
		t.Error("expected non-entry lines to be counted as skipped")
	}
}

func sortedCopy(in []Entry) []Entry {
	out := append([]Entry(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Address < out[j-1].Address; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func TestFindFunctionAtExample(t *testing.T) {
	table := mustBuild(t, `*** ENTRY LIST
Foo 0x08010000 0x10 Code Gb obj.o [1]
Bar 0x08010020 0x8 Code Gb obj.o [2]
`)

	tests := []struct {
		addr uint32
		want string
	}{
		{0x08010000, "Foo"},
		{0x08010015, "Foo"},
		{0x0801001f, "Foo"},
		{0x08010020, "Bar"},
		{0x08ffffff, "Bar"}, // past the last entry: no size check
	}

	for _, tt := range tests {
		e, ok := table.FindFunctionAt(tt.addr)
		if !ok {
			t.Errorf("FindFunctionAt(0x%08x) not found, want %s", tt.addr, tt.want)
			continue
		}
		if e.Name != tt.want {
			t.Errorf("FindFunctionAt(0x%08x) = %s, want %s", tt.addr, e.Name, tt.want)
		}
	}
}

func TestFindFunctionAtNotFound(t *testing.T) {
	table := mustBuild(t, `*** ENTRY LIST
Foo 0x08010000 0x10 Code Gb obj.o [1]
`)
	if e, ok := table.FindFunctionAt(0x0800ffff); ok {
		t.Errorf("FindFunctionAt below first entry = %v, want not found", e)
	}
	if _, ok := table.FindFunctionAt(0); ok {
		t.Error("FindFunctionAt(0) should not be found")
	}

	empty := mustBuild(t, "")
	if _, ok := empty.FindFunctionAt(0x08010000); ok {
		t.Error("lookup in empty table should not be found")
	}

	var nilTable *Table
	if _, ok := nilTable.FindFunctionAt(1); ok {
		t.Error("lookup in nil table should not be found")
	}
}

func TestEveryEntryResolvesToItself(t *testing.T) {
	table, err := Load(filepath.Join("testdata", "firmware.map"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	entries := table.Entries()
	for i, e := range entries {
		got, ok := table.FindFunctionAt(e.Address)
		if !ok || got.Name != e.Name {
			t.Errorf("FindFunctionAt(0x%08x) = %v/%v, want %s", e.Address, got.Name, ok, e.Name)
		}
		if i+1 < len(entries) && entries[i+1].Address-e.Address > 1 {
			mid := e.Address + (entries[i+1].Address-e.Address)/2
			if got, _ := table.FindFunctionAt(mid); got.Name != e.Name {
				t.Errorf("FindFunctionAt(0x%08x) = %s, want lower entry %s", mid, got.Name, e.Name)
			}
		}
	}
}

func TestWrappedEntryMatchesSingleLine(t *testing.T) {
	single := mustBuild(t, `*** ENTRY LIST
ICharger_IsChargingEnabled 0x0801b1fd     0x8  Code  Gb  Charger.o [30]
`)
	wrapped := mustBuild(t, `*** ENTRY LIST
ICharger_IsChargingEnabled
                        0x0801b1fd     0x8  Code  Gb  Charger.o [30]
`)

	if diff := cmp.Diff(single.Entries(), wrapped.Entries()); diff != "" {
		t.Errorf("wrapped entry differs from single-line entry (-single +wrapped):\n%s", diff)
	}
	if wrapped.Len() != 1 {
		t.Errorf("Len() = %d, want 1", wrapped.Len())
	}
}

func TestWrappedEntryTrailingSpaces(t *testing.T) {
	table := mustBuild(t, "*** ENTRY LIST\nLongName   \n                        0x08020000     0x8  Code  Gb  Charger.o [30]\n")

	want := []Entry{{Name: "LongName", Address: 0x08020000, Size: 0x8, Kind: "Code", Binding: "Gb", Object: "Charger.o [30]"}}
	if diff := cmp.Diff(want, table.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestWrappedEntryInterrupted(t *testing.T) {
	table := mustBuild(t, `*** ENTRY LIST
LongName
Foo 0x08010000 0x10 Code Gb obj.o [1]
                        0x08020000     0x8  Code  Gb  Charger.o [30]
`)

	// The pending name is dropped, the following record is still read and
	// the orphan continuation line is ignored.
	want := []Entry{{Name: "Foo", Address: 0x08010000, Size: 0x10, Kind: "Code", Binding: "Gb", Object: "obj.o [1]"}}
	if diff := cmp.Diff(want, table.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWithoutMarker(t *testing.T) {
	table := mustBuild(t, `Foo 0x08010000 0x10 Code Gb obj.o [1]
Bar 0x08010020 0x8 Code Gb obj.o [2]
`)
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0 when the entry list marker is missing", table.Len())
	}
}

func TestBuildStableForEqualAddresses(t *testing.T) {
	table := mustBuild(t, `*** ENTRY LIST
Zeta   0x08000100 0x4 Code Gb a.o [1]
Alpha  0x08000100 0x4 Data Gb a.o [1]
Early  0x08000000 0x4 Code Gb a.o [1]
`)

	var names []string
	for _, e := range table.Entries() {
		names = append(names, e.Name)
	}
	if diff := cmp.Diff([]string{"Early", "Zeta", "Alpha"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCRLF(t *testing.T) {
	table := mustBuild(t, "*** ENTRY LIST\r\nLongName\r\n      0x08010000 0x10 Code Gb obj.o [1]\r\n")
	e, ok := table.Lookup("LongName")
	if !ok {
		t.Fatal("expected wrapped entry to parse with CRLF line endings")
	}
	if e.Object != "obj.o [1]" {
		t.Errorf("Object = %q, want %q", e.Object, "obj.o [1]")
	}
}

func TestDemangle(t *testing.T) {
	text := `*** ENTRY LIST
_ZN7Charger9IsEnabledEv 0x08010000 0x10 Code Gb Charger.o [1]
plain_c_function        0x08010020 0x8  Code Gb main.o [2]
`
	table := mustBuild(t, text, WithDemangle(true))

	e, _ := table.FindFunctionAt(0x08010004)
	if got, want := e.DisplayName(), "Charger::IsEnabled()"; got != want {
		t.Errorf("DisplayName() = %q, want %q", got, want)
	}
	if _, ok := table.Lookup("Charger::IsEnabled()"); !ok {
		t.Error("Lookup by demangled name failed")
	}

	e, _ = table.FindFunctionAt(0x08010020)
	if got := e.DisplayName(); got != "plain_c_function" {
		t.Errorf("DisplayName() = %q, want plain_c_function", got)
	}

	raw := mustBuild(t, text)
	e, _ = raw.FindFunctionAt(0x08010004)
	if got := e.DisplayName(); got != "_ZN7Charger9IsEnabledEv" {
		t.Errorf("DisplayName() without demangling = %q", got)
	}
}

func TestFunctions(t *testing.T) {
	table, err := Load(filepath.Join("testdata", "firmware.map"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, e := range table.Functions() {
		if e.Kind != "Code" {
			t.Errorf("Functions() returned %s of kind %s", e.Name, e.Kind)
		}
	}
	if got := len(table.Functions()); got != 6 {
		t.Errorf("len(Functions()) = %d, want 6", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.map"))
	var mre *MapReadError
	if !errors.As(err, &mre) {
		t.Fatalf("Load() error = %v, want *MapReadError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestBuildReadError(t *testing.T) {
	_, err := Build(failingReader{})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Build() error = %v, want wrapped io.ErrUnexpectedEOF", err)
	}
}

func TestNilTable(t *testing.T) {
	var table *Table

	if _, ok := table.FindFunctionAt(0x08010000); ok {
		t.Error("FindFunctionAt on nil table should not find anything")
	}
	if _, ok := table.Lookup("Foo"); ok {
		t.Error("Lookup on nil table should not find anything")
	}
	if table.Len() != 0 || table.Skipped() != 0 {
		t.Errorf("Len() = %d, Skipped() = %d, want 0", table.Len(), table.Skipped())
	}
	if len(table.Entries()) != 0 || len(table.Functions()) != 0 {
		t.Error("Entries() and Functions() on nil table should be empty")
	}
}
