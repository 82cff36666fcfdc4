package models

// FlowRecord holds the fields of a single version 2 flow log line.
// Only DstPort and Protocol take part in classification.
type FlowRecord struct {
	Version     string
	AccountID   string
	InterfaceID string
	SrcAddr     string
	DstAddr     string
	DstPort     int
	SrcPort     int
	Protocol    int // IANA protocol number
	Packets     int64
	Bytes       int64
	Start       int64
	End         int64
	Action      string // ACCEPT or REJECT
	LogStatus   string // OK, NODATA or SKIPDATA

	Line int // 1-based line in the source log
}

// LookupKey is the composite key of the lookup table and of the
// port/protocol tally. Protocol is always lower-cased.
type LookupKey struct {
	DstPort  int
	Protocol string
}

// ProtocolEntry is one row of the protocol registry.
type ProtocolEntry struct {
	Number      int
	Name        string
	Description string
}
