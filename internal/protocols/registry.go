// Package protocols loads the IANA protocol number table used to turn the
// numeric protocol field of a flow record into a keyword such as "tcp".
package protocols

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"flowtagger/internal/csvutil"
	"flowtagger/internal/models"

	"github.com/google/gopacket/layers"
)

// rangeRow matches IANA rows covering a block of numbers, such as "146-252".
var rangeRow = regexp.MustCompile(`^\d+-\d+$`)

// UnknownName is returned by ResolveName for numbers missing from the registry.
const UnknownName = "unknown"

const (
	columnNumber      = "decimal"
	columnKeyword     = "keyword"
	columnDescription = "protocol"
)

// Registry maps protocol numbers to lower-cased keywords.
type Registry struct {
	entries map[int]models.ProtocolEntry
	skipped int
}

// Load reads a protocol registry CSV from path.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.EmptyInput(models.SourceProtocols, path, err)
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads a protocol registry CSV. The header must name a Decimal and a
// Keyword column; a Protocol (description) column is optional. Rows whose
// number or keyword is blank, or whose number is a range such as "146-252",
// are skipped.
func Parse(r io.Reader, path string) (*Registry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.EmptyInput(models.SourceProtocols, path, errors.New("no header row"))
	}
	if err != nil {
		return nil, models.Malformed(models.SourceProtocols, path, csvutil.ErrorLine(err, 1), err)
	}

	cols := csvutil.Columns(header)
	numIdx, ok := cols[columnNumber]
	if !ok {
		return nil, models.Malformed(models.SourceProtocols, path, 1, fmt.Errorf("header missing %q column", "Decimal"))
	}
	nameIdx, ok := cols[columnKeyword]
	if !ok {
		return nil, models.Malformed(models.SourceProtocols, path, 1, fmt.Errorf("header missing %q column", "Keyword"))
	}
	descIdx, hasDesc := cols[columnDescription]

	reg := &Registry{entries: make(map[int]models.ProtocolEntry)}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.Malformed(models.SourceProtocols, path, csvutil.ErrorLine(err, 0), err)
		}
		line, _ := cr.FieldPos(0)

		rawNum := strings.TrimSpace(row[numIdx])
		name := strings.ToLower(strings.TrimSpace(row[nameIdx]))
		if rawNum == "" || name == "" || rangeRow.MatchString(rawNum) {
			reg.skipped++
			continue
		}

		num, err := strconv.Atoi(rawNum)
		if err != nil {
			return nil, models.Malformed(models.SourceProtocols, path, line, fmt.Errorf("invalid protocol number %q", rawNum))
		}
		if num < 0 || num > 255 {
			return nil, models.Malformed(models.SourceProtocols, path, line, fmt.Errorf("protocol number %d out of range", num))
		}

		entry := models.ProtocolEntry{Number: num, Name: name}
		if hasDesc {
			entry.Description = strings.TrimSpace(row[descIdx])
		}
		reg.entries[num] = entry
	}

	if len(reg.entries) == 0 {
		return nil, models.EmptyInput(models.SourceProtocols, path, errors.New("no protocol rows"))
	}
	return reg, nil
}

// keyword fixes for gopacket names that differ from the IANA keyword
var ianaKeywords = map[string]string{
	"icmpv4":          "icmp",
	"icmpv6":          "ipv6-icmp",
	"ipv6hopbyhop":    "hopopt",
	"ipv6routing":     "ipv6-route",
	"ipv6fragment":    "ipv6-frag",
	"ipv6destination": "ipv6-opts",
	"nonextheader":    "ipv6-nonxt",
	"ospf":            "ospfigp",
	"rudp":            "rdp",
	"mplsinip":        "mpls-in-ip",
}

// Builtin returns a registry of the protocols gopacket knows how to decode,
// named with IANA keywords. It is used when no registry file is configured.
func Builtin() *Registry {
	reg := &Registry{entries: make(map[int]models.ProtocolEntry)}
	for i := 0; i <= 255; i++ {
		proto := layers.IPProtocol(i)
		name := proto.String()
		if strings.HasPrefix(name, "Unknown") {
			continue
		}
		keyword := strings.ToLower(name)
		if fixed, ok := ianaKeywords[keyword]; ok {
			keyword = fixed
		}
		reg.entries[i] = models.ProtocolEntry{Number: i, Name: keyword, Description: name}
	}
	return reg
}

// ResolveName returns the keyword for number, or UnknownName.
func (r *Registry) ResolveName(number int) string {
	if e, ok := r.entries[number]; ok {
		return e.Name
	}
	return UnknownName
}

// Lookup returns the full registry entry for number.
func (r *Registry) Lookup(number int) (models.ProtocolEntry, bool) {
	e, ok := r.entries[number]
	return e, ok
}

// Len returns the number of loaded protocols.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Skipped returns how many rows were ignored for lacking a number or keyword
// or for covering a range of numbers.
func (r *Registry) Skipped() int {
	return r.skipped
}
