// Package lookup loads the (destination port, protocol) to tag mapping.
package lookup

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"flowtagger/internal/csvutil"
	"flowtagger/internal/models"
)

const (
	columnPort     = "dstport"
	columnProtocol = "protocol"
	columnTag      = "tag"
)

// Table maps a LookupKey to a lower-cased tag. Several keys may share a tag.
type Table struct {
	tags       map[models.LookupKey]string
	tagOrder   []string
	tagSeen    map[string]struct{}
	duplicates int
}

// Load reads a lookup table CSV from path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.EmptyInput(models.SourceLookup, path, err)
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads a lookup table CSV with a dstport,protocol,tag header.
// A key that appears twice keeps the last tag.
func Parse(r io.Reader, path string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.EmptyInput(models.SourceLookup, path, errors.New("no header row"))
	}
	if err != nil {
		return nil, models.Malformed(models.SourceLookup, path, 1, err)
	}

	idx := csvutil.Columns(header)
	portIdx, okPort := idx[columnPort]
	protoIdx, okProto := idx[columnProtocol]
	tagIdx, okTag := idx[columnTag]
	if !okPort || !okProto || !okTag {
		return nil, models.Malformed(models.SourceLookup, path, 1,
			fmt.Errorf("header must contain %s,%s,%s columns, got %q", columnPort, columnProtocol, columnTag, header))
	}

	t := New()
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.Malformed(models.SourceLookup, path, csvutil.ErrorLine(err, 0), err)
		}
		line, _ := cr.FieldPos(0)

		rawPort := strings.TrimSpace(row[portIdx])
		port, err := strconv.Atoi(rawPort)
		if err != nil {
			return nil, models.Malformed(models.SourceLookup, path, line, fmt.Errorf("invalid dstport %q", rawPort))
		}
		if port < 0 || port > 65535 {
			return nil, models.Malformed(models.SourceLookup, path, line, fmt.Errorf("dstport %d out of range", port))
		}
		proto := strings.TrimSpace(row[protoIdx])
		if proto == "" {
			return nil, models.Malformed(models.SourceLookup, path, line, errors.New("empty protocol"))
		}
		tag := strings.TrimSpace(row[tagIdx])
		if tag == "" {
			return nil, models.Malformed(models.SourceLookup, path, line, errors.New("empty tag"))
		}

		t.Add(port, proto, tag)
	}

	if t.Len() == 0 {
		return nil, models.EmptyInput(models.SourceLookup, path, errors.New("no mapping rows"))
	}
	return t, nil
}

// New returns an empty table.
func New() *Table {
	return &Table{
		tags:    make(map[models.LookupKey]string),
		tagSeen: make(map[string]struct{}),
	}
}

// Add inserts a mapping, lower-casing protocol and tag. It reports whether
// the key replaced an earlier mapping.
func (t *Table) Add(port int, protocol, tag string) bool {
	key := Key(port, protocol)
	tag = strings.ToLower(tag)

	_, replaced := t.tags[key]
	if replaced {
		t.duplicates++
	}
	t.tags[key] = tag

	if _, ok := t.tagSeen[tag]; !ok {
		t.tagSeen[tag] = struct{}{}
		t.tagOrder = append(t.tagOrder, tag)
	}
	return replaced
}

// Tag returns the tag mapped to key.
func (t *Table) Tag(key models.LookupKey) (string, bool) {
	tag, ok := t.tags[key]
	return tag, ok
}

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	return len(t.tags)
}

// Duplicates returns how many rows overwrote an existing key.
func (t *Table) Duplicates() int {
	return t.duplicates
}

// Tags returns the distinct tags in the order they first appeared.
// A tag whose only key was later overwritten is still listed.
func (t *Table) Tags() []string {
	out := make([]string, len(t.tagOrder))
	copy(out, t.tagOrder)
	return out
}

// Key builds a normalized LookupKey.
func Key(port int, protocol string) models.LookupKey {
	return models.LookupKey{DstPort: port, Protocol: strings.ToLower(strings.TrimSpace(protocol))}
}
