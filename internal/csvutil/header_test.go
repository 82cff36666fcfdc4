package csvutil

import (
	"encoding/csv"
	"errors"
	"strings"
	"testing"
)

func TestColumns(t *testing.T) {
	cols := Columns([]string{"\ufeffDstPort", " Protocol ", "TAG", "tag"})

	want := map[string]int{"dstport": 0, "protocol": 1, "tag": 2}
	if len(cols) != len(want) {
		t.Fatalf("got %v, want %v", cols, want)
	}
	for name, idx := range want {
		if cols[name] != idx {
			t.Errorf("column %q at %d, want %d", name, cols[name], idx)
		}
	}
}

func TestErrorLine(t *testing.T) {
	r := csv.NewReader(strings.NewReader("a,b\n1,2\n3\n"))
	var err error
	for err == nil {
		_, err = r.Read()
	}
	if got := ErrorLine(err, 0); got != 3 {
		t.Errorf("ErrorLine = %d, want 3", got)
	}
	if got := ErrorLine(errors.New("other"), 7); got != 7 {
		t.Errorf("ErrorLine fallback = %d, want 7", got)
	}
}
