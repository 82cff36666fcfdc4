package generator

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
	"time"

	"flowtagger/internal/flowlog"
	"flowtagger/internal/lookup"
	"flowtagger/internal/models"
)

func TestFlowLogLineParses(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		line := FlowLogLine(r, time.Unix(1620140761, 0))
		rec, err := flowlog.ParseLine(line)
		if err != nil {
			t.Fatalf("generated line does not parse: %q: %v", line, err)
		}
		if rec.Protocol != 6 && rec.Protocol != 17 && rec.Protocol != 1 {
			t.Errorf("unexpected protocol %d", rec.Protocol)
		}
		if len(strings.Fields(line)) != 14 {
			t.Errorf("expected 14 fields in %q", line)
		}
	}
}

func TestWriteFlowLog(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteFlowLog(&buf, rand.New(rand.NewSource(2)), 50)
	if err != nil {
		t.Fatalf("WriteFlowLog failed: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("reported %d bytes, buffer holds %d", n, buf.Len())
	}

	stats, err := flowlog.Scan(&buf, "", func(models.FlowRecord) error { return nil })
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if stats.Records != 50 {
		t.Errorf("expected 50 records, got %d", stats.Records)
	}
}

func TestWriteFlowLogSize(t *testing.T) {
	var buf bytes.Buffer
	records, err := WriteFlowLogSize(&buf, rand.New(rand.NewSource(3)), 4096)
	if err != nil {
		t.Fatalf("WriteFlowLogSize failed: %v", err)
	}
	if buf.Len() < 4096 {
		t.Errorf("expected at least 4096 bytes, got %d", buf.Len())
	}
	if got := strings.Count(buf.String(), "\n"); got != records {
		t.Errorf("reported %d records, wrote %d lines", records, got)
	}
}

func TestWriteLookupTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLookupTable(&buf, rand.New(rand.NewSource(4)), 100); err != nil {
		t.Fatalf("WriteLookupTable failed: %v", err)
	}
	table, err := lookup.Parse(&buf, "")
	if err != nil {
		t.Fatalf("generated table does not parse: %v", err)
	}
	if table.Len()+table.Duplicates() != 100 {
		t.Errorf("expected 100 rows, got %d keys and %d duplicates", table.Len(), table.Duplicates())
	}
}
