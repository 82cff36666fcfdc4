// Package generator produces random flow logs and lookup tables for load
// testing the tagging pipeline.
package generator

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/gopacket/layers"
)

const (
	accountID = "123456789012"
	hexDigits = "abcdef0123456789"
	tagChars  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	dstPorts  = []int{443, 23, 25, 110, 993, 143, 1024, 80}
	protocols = []layers.IPProtocol{layers.IPProtocolTCP, layers.IPProtocolUDP, layers.IPProtocolICMPv4}
	actions   = []string{"ACCEPT", "REJECT"}

	// keywords used in generated lookup tables, matching the IANA registry
	protocolKeywords = []string{"tcp", "udp", "icmp"}
)

// FlowLogLine returns one random version 2 flow log line.
func FlowLogLine(r *rand.Rand, now time.Time) string {
	start := now.Unix()
	end := start + int64(10+r.Intn(51))

	return fmt.Sprintf("2 %s eni-%s %s %s %d %d %d %d %d %d %d %s OK",
		accountID,
		randomString(r, hexDigits, 8),
		randomIP(r),
		randomIP(r),
		dstPorts[r.Intn(len(dstPorts))],
		49152+r.Intn(65536-49152),
		int(protocols[r.Intn(len(protocols))]),
		5+r.Intn(21),
		2000+r.Intn(18001),
		start,
		end,
		actions[r.Intn(len(actions))],
	)
}

// WriteFlowLog writes records lines and returns the number of bytes written.
func WriteFlowLog(w io.Writer, r *rand.Rand, records int) (int64, error) {
	bw := bufio.NewWriter(w)
	now := time.Now()

	var written int64
	for i := 0; i < records; i++ {
		n, err := bw.WriteString(FlowLogLine(r, now) + "\n")
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}

// WriteFlowLogSize writes lines until at least size bytes have been written
// and returns the number of records.
func WriteFlowLogSize(w io.Writer, r *rand.Rand, size int64) (int, error) {
	bw := bufio.NewWriter(w)
	now := time.Now()

	var written int64
	records := 0
	for written < size {
		n, err := bw.WriteString(FlowLogLine(r, now) + "\n")
		written += int64(n)
		if err != nil {
			return records, err
		}
		records++
	}
	return records, bw.Flush()
}

// WriteLookupTable writes a dstport,protocol,tag table with entries random rows.
func WriteLookupTable(w io.Writer, r *rand.Rand, entries int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"dstport", "protocol", "tag"}); err != nil {
		return err
	}
	for i := 0; i < entries; i++ {
		row := []string{
			strconv.Itoa(1 + r.Intn(65535)),
			protocolKeywords[r.Intn(len(protocolKeywords))],
			randomString(r, tagChars, 4),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func randomIP(r *rand.Rand) string {
	return fmt.Sprintf("%d.%d.%d.%d", 1+r.Intn(255), r.Intn(256), r.Intn(256), r.Intn(256))
}

func randomString(r *rand.Rand, alphabet string, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[r.Intn(len(alphabet))])
	}
	return b.String()
}
