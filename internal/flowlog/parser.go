// Package flowlog parses version 2 VPC flow log lines.
//
// A version 2 line holds fourteen space separated fields:
//
//	version account-id interface-id srcaddr dstaddr dstport srcport protocol packets bytes start end action log-status
//
// Only the first eight are required; dstport and protocol sit at fixed
// positions six and seven.
package flowlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"flowtagger/internal/models"
)

const (
	fieldVersion = iota
	fieldAccount
	fieldInterface
	fieldSrcAddr
	fieldDstAddr
	fieldDstPort
	fieldSrcPort
	fieldProtocol
	fieldPackets
	fieldBytes
	fieldStart
	fieldEnd
	fieldAction
	fieldLogStatus
)

// SupportedVersion is the only flow log version accepted by ParseLine.
const SupportedVersion = "2"

const minFields = fieldProtocol + 1

// maxLineSize bounds a single flow log line.
const maxLineSize = 1 << 20

// Stats describes one pass over a flow log.
type Stats struct {
	Lines   int   // all lines read, including skipped ones
	Records int   // records handed to the callback
	Skipped int   // blank, comment, NODATA and SKIPDATA lines
	Bytes   int64 // bytes consumed
}

// ParseLine parses one flow log line.
func ParseLine(line string) (models.FlowRecord, error) {
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return models.FlowRecord{}, fmt.Errorf("expected at least %d fields, got %d", minFields, len(fields))
	}
	if fields[fieldVersion] != SupportedVersion {
		return models.FlowRecord{}, fmt.Errorf("unsupported flow log version %q", fields[fieldVersion])
	}

	dstPort, err := strconv.Atoi(fields[fieldDstPort])
	if err != nil || dstPort < 0 || dstPort > 65535 {
		return models.FlowRecord{}, fmt.Errorf("invalid dstport %q", fields[fieldDstPort])
	}
	proto, err := strconv.Atoi(fields[fieldProtocol])
	if err != nil || proto < 0 || proto > 255 {
		return models.FlowRecord{}, fmt.Errorf("invalid protocol %q", fields[fieldProtocol])
	}

	rec := models.FlowRecord{
		Version:     fields[fieldVersion],
		AccountID:   fields[fieldAccount],
		InterfaceID: strings.ToLower(fields[fieldInterface]),
		SrcAddr:     fields[fieldSrcAddr],
		DstAddr:     fields[fieldDstAddr],
		DstPort:     dstPort,
		Protocol:    proto,
	}
	rec.SrcPort, _ = strconv.Atoi(fields[fieldSrcPort])
	rec.Packets = optionalInt(fields, fieldPackets)
	rec.Bytes = optionalInt(fields, fieldBytes)
	rec.Start = optionalInt(fields, fieldStart)
	rec.End = optionalInt(fields, fieldEnd)
	if len(fields) > fieldAction {
		rec.Action = strings.ToUpper(fields[fieldAction])
	}
	if len(fields) > fieldLogStatus {
		rec.LogStatus = strings.ToUpper(fields[fieldLogStatus])
	}
	return rec, nil
}

// optionalInt parses a trailing numeric field; "-" and absent fields are zero.
func optionalInt(fields []string, i int) int64 {
	if i >= len(fields) {
		return 0
	}
	v, err := strconv.ParseInt(fields[i], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Scan reads r line by line and calls fn for every flow record. Blank lines,
// '#' comments and lines whose log status is NODATA or SKIPDATA are skipped.
// A line that cannot be parsed stops the scan. A source without a single
// record is reported as empty input.
func Scan(r io.Reader, path string, fn func(models.FlowRecord) error) (Stats, error) {
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		stats.Lines++
		raw := scanner.Text()
		stats.Bytes += int64(len(raw)) + 1

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			stats.Skipped++
			continue
		}
		if noData(line) {
			stats.Skipped++
			continue
		}

		rec, err := ParseLine(line)
		if err != nil {
			return stats, models.Malformed(models.SourceFlowLog, path, stats.Lines, err)
		}
		rec.Line = stats.Lines

		if err := fn(rec); err != nil {
			return stats, err
		}
		stats.Records++
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return stats, models.Malformed(models.SourceFlowLog, path, stats.Lines+1, err)
		}
		return stats, fmt.Errorf("read flow log: %w", err)
	}

	if stats.Records == 0 {
		return stats, models.EmptyInput(models.SourceFlowLog, path, errors.New("no flow records"))
	}
	return stats, nil
}

// ScanFile opens path and runs Scan over it.
func ScanFile(path string, fn func(models.FlowRecord) error) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, models.EmptyInput(models.SourceFlowLog, path, err)
	}
	defer f.Close()

	return Scan(f, path, fn)
}

// noData reports whether a line is a NODATA or SKIPDATA record, which
// carries "-" in place of its ports and protocol.
func noData(line string) bool {
	i := strings.LastIndexAny(line, " \t")
	if i < 0 {
		return false
	}
	status := line[i+1:]
	return strings.EqualFold(status, "NODATA") || strings.EqualFold(status, "SKIPDATA")
}
