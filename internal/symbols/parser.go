package symbols

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// EntryListMarker is the header text that starts the entry list section.
const EntryListMarker = "ENTRY LIST"

// maxLineLength bounds a single map file line.
const maxLineLength = 1024 * 1024

var (
	// Matches: AddLink    0x0800cdcd   0x1de  Code  Lc  LinkManager.o [33]
	entryPattern = regexp.MustCompile(`^([A-Za-z0-9_]+)(.*)$`)
	// Matches: 0x0800cdcd   0x1de  Code  Lc  LinkManager.o [33]
	fieldsPattern = regexp.MustCompile(`^\s*0x([0-9A-Fa-f]{8})\s+0x([0-9A-Fa-f]+)\s+(\w+)(.*)$`)
	// Matches a wrapped entry name alone on its line
	namePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// parser holds the line-to-line state of the entry list scan.
type parser struct {
	entries []Entry
	pending string // name of a wrapped entry awaiting its fields line
	wrapped bool
	skipped int
}

// parseMap scans r and returns the unsorted entries plus the number of
// entry list lines that did not contribute to a record.
func parseMap(r io.Reader) ([]Entry, int, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	lineNo := 0
	found := false
	for scanner.Scan() {
		lineNo++
		if strings.Contains(scanner.Text(), EntryListMarker) {
			found = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, lineNo, err
	}
	if !found {
		return nil, 0, lineNo, nil
	}

	p := &parser{}
	for scanner.Scan() {
		lineNo++
		p.parseLine(strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, lineNo, err
	}

	return p.entries, p.skipped, lineNo, nil
}

// parseLine consumes one line of the entry list.
func (p *parser) parseLine(line string) {
	if p.wrapped {
		p.wrapped = false
		if e, ok := parseFields(line); ok {
			e.Name = p.pending
			p.entries = append(p.entries, e)
			return
		}
		// Not a continuation: treat it as a fresh line.
	}

	m := entryPattern.FindStringSubmatch(line)
	if m == nil {
		p.skipped++
		return
	}

	if e, ok := parseFields(m[2]); ok {
		e.Name = m[1]
		p.entries = append(p.entries, e)
		return
	}

	if namePattern.MatchString(strings.TrimSpace(line)) {
		p.pending = m[1]
		p.wrapped = true
		return
	}

	p.skipped++
}

// parseFields extracts address, size, kind and the trailing columns.
func parseFields(s string) (Entry, bool) {
	m := fieldsPattern.FindStringSubmatch(s)
	if m == nil {
		return Entry{}, false
	}

	addr, err := strconv.ParseUint(m[1], 16, 32)
	if err != nil {
		return Entry{}, false
	}
	size, err := strconv.ParseUint(m[2], 16, 32)
	if err != nil {
		return Entry{}, false
	}

	e := Entry{
		Address: uint32(addr),
		Size:    uint32(size),
		Kind:    m[3],
	}

	rest := strings.TrimSpace(m[4])
	if rest != "" {
		fields := strings.Fields(rest)
		e.Binding = fields[0]
		e.Object = strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
	}

	return e, true
}
