package analysis

import (
	"fmt"
	"sort"
	"strings"

	"flowtagger/internal/models"
)

// Untagged is the bucket for flows without a lookup table match.
const Untagged = "Untagged"

// Order selects how report rows are sorted.
type Order string

const (
	OrderFirstSeen Order = "first-seen" // order in which keys were first counted
	OrderKey       Order = "key"        // tag, or port then protocol, ascending
	OrderCount     Order = "count"      // count descending, ties broken by key
)

// ParseOrder validates an order name. An empty name means OrderFirstSeen.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OrderFirstSeen, nil
	case OrderFirstSeen, OrderKey, OrderCount:
		return o, nil
	default:
		return "", fmt.Errorf("unknown report order %q (want %s, %s or %s)", s, OrderFirstSeen, OrderKey, OrderCount)
	}
}

// TagLookup resolves a (port, protocol) key to a tag.
type TagLookup interface {
	Tag(key models.LookupKey) (string, bool)
}

// NameResolver resolves a protocol number to its keyword.
type NameResolver interface {
	ResolveName(number int) string
}

// TagCount holds the count for a single tag.
type TagCount struct {
	Tag   string
	Count int
}

// PortProtocolCount holds the count for a single (port, protocol) pair.
type PortProtocolCount struct {
	Port     int
	Protocol string
	Count    int
}

// Tally accumulates per-tag and per-(port, protocol) flow counts.
type Tally struct {
	total int

	tagCounts map[string]int
	tagOrder  []string

	portProtocolCounts map[models.LookupKey]int
	portProtocolOrder  []models.LookupKey
}

// NewTally creates an empty Tally.
func NewTally() *Tally {
	return &Tally{
		tagCounts:          make(map[string]int),
		portProtocolCounts: make(map[models.LookupKey]int),
	}
}

// Classify returns the tag for rec, or Untagged when the table has no entry
// for its destination port and protocol name.
func Classify(rec models.FlowRecord, table TagLookup, registry NameResolver) string {
	return classifyKey(models.LookupKey{DstPort: rec.DstPort, Protocol: registry.ResolveName(rec.Protocol)}, table)
}

func classifyKey(key models.LookupKey, table TagLookup) string {
	tag, ok := table.Tag(key)
	if !ok || strings.EqualFold(tag, Untagged) {
		return Untagged
	}
	return tag
}

// Accumulate classifies rec and counts it in both tallies. It returns the tag.
func (t *Tally) Accumulate(rec models.FlowRecord, table TagLookup, registry NameResolver) string {
	key := models.LookupKey{DstPort: rec.DstPort, Protocol: registry.ResolveName(rec.Protocol)}
	tag := classifyKey(key, table)

	t.AddTag(tag)
	t.AddPortProtocol(key.DstPort, key.Protocol)
	return tag
}

// AddTag increments the count for tag. Every call counts as one flow.
func (t *Tally) AddTag(tag string) {
	tag = normalizeTag(tag)
	if _, ok := t.tagCounts[tag]; !ok {
		t.tagOrder = append(t.tagOrder, tag)
	}
	t.tagCounts[tag]++
	t.total++
}

// normalizeTag folds any spelling of Untagged into Untagged and lower-cases
// every other tag.
func normalizeTag(tag string) string {
	if strings.EqualFold(tag, Untagged) {
		return Untagged
	}
	return strings.ToLower(tag)
}

// AddPortProtocol increments the count for (port, protocol).
func (t *Tally) AddPortProtocol(port int, protocol string) {
	key := models.LookupKey{DstPort: port, Protocol: strings.ToLower(protocol)}
	if _, ok := t.portProtocolCounts[key]; !ok {
		t.portProtocolOrder = append(t.portProtocolOrder, key)
	}
	t.portProtocolCounts[key]++
}

// Total returns the number of flows counted.
func (t *Tally) Total() int {
	return t.total
}

// TagCount returns the count for tag; unknown tags count zero.
func (t *Tally) TagCount(tag string) int {
	return t.tagCounts[normalizeTag(tag)]
}

// PortProtocolCount returns the count for (port, protocol).
func (t *Tally) PortProtocolCount(port int, protocol string) int {
	return t.portProtocolCounts[models.LookupKey{DstPort: port, Protocol: strings.ToLower(protocol)}]
}

// TagCounts returns the tag tally in the requested order. Each of zeroTags
// that was never counted is included with a count of zero; in first-seen
// order those rows follow the counted ones.
func (t *Tally) TagCounts(order Order, zeroTags ...string) []TagCount {
	stats := make([]TagCount, 0, len(t.tagOrder)+len(zeroTags))
	for _, tag := range t.tagOrder {
		stats = append(stats, TagCount{Tag: tag, Count: t.tagCounts[tag]})
	}
	seen := make(map[string]struct{}, len(zeroTags))
	for _, tag := range zeroTags {
		tag = normalizeTag(tag)
		if _, counted := t.tagCounts[tag]; counted || tag == Untagged {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		stats = append(stats, TagCount{Tag: tag})
	}

	switch order {
	case OrderKey:
		sort.SliceStable(stats, func(i, j int) bool {
			return stats[i].Tag < stats[j].Tag
		})
	case OrderCount:
		sort.SliceStable(stats, func(i, j int) bool {
			if stats[i].Count != stats[j].Count {
				return stats[i].Count > stats[j].Count
			}
			return stats[i].Tag < stats[j].Tag
		})
	}
	return stats
}

// PortProtocolCounts returns the (port, protocol) tally in the requested order.
func (t *Tally) PortProtocolCounts(order Order) []PortProtocolCount {
	stats := make([]PortProtocolCount, 0, len(t.portProtocolOrder))
	for _, key := range t.portProtocolOrder {
		stats = append(stats, PortProtocolCount{Port: key.DstPort, Protocol: key.Protocol, Count: t.portProtocolCounts[key]})
	}

	byKey := func(a, b PortProtocolCount) bool {
		if a.Port != b.Port {
			return a.Port < b.Port
		}
		return a.Protocol < b.Protocol
	}
	switch order {
	case OrderKey:
		sort.SliceStable(stats, func(i, j int) bool {
			return byKey(stats[i], stats[j])
		})
	case OrderCount:
		sort.SliceStable(stats, func(i, j int) bool {
			if stats[i].Count != stats[j].Count {
				return stats[i].Count > stats[j].Count
			}
			return byKey(stats[i], stats[j])
		})
	}
	return stats
}
