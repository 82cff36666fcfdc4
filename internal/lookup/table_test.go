package lookup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowtagger/internal/models"
)

func TestParseTable(t *testing.T) {
	input := "dstport,protocol,tag\n" +
		"25,tcp,sv_P1\n" +
		"68,udp,sv_P2\n" +
		"23,tcp,sv_P1\n" +
		"31,udp,SV_P3\n" +
		"443,tcp,sv_P2\n" +
		"110,TCP,email\n"

	table, err := Parse(strings.NewReader(input), "lookup.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if table.Len() != 6 {
		t.Fatalf("expected 6 keys, got %d", table.Len())
	}

	cases := []struct {
		port  int
		proto string
		tag   string
	}{
		{25, "tcp", "sv_p1"},
		{23, "TCP", "sv_p1"},
		{68, "udp", "sv_p2"},
		{443, "Tcp", "sv_p2"},
		{31, "udp", "sv_p3"},
		{110, "tcp", "email"},
	}
	for _, tc := range cases {
		got, ok := table.Tag(Key(tc.port, tc.proto))
		if !ok || got != tc.tag {
			t.Errorf("Tag(%d,%s) = %q (ok=%v), want %q", tc.port, tc.proto, got, ok, tc.tag)
		}
	}

	if _, ok := table.Tag(Key(25, "udp")); ok {
		t.Errorf("unexpected match for 25/udp")
	}

	want := []string{"sv_p1", "sv_p2", "sv_p3", "email"}
	got := table.Tags()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
}

func TestParseTableReorderedHeader(t *testing.T) {
	input := " Tag , Protocol , DstPort \nweb,tcp,80\n"
	table, err := Parse(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tag, ok := table.Tag(Key(80, "tcp")); !ok || tag != "web" {
		t.Errorf("expected web for 80/tcp, got %q", tag)
	}
}

func TestParseTableDuplicateColumnFirstWins(t *testing.T) {
	input := "dstport,protocol,tag,tag\n80,tcp,web,ignored\n"
	table, err := Parse(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tag, ok := table.Tag(Key(80, "tcp")); !ok || tag != "web" {
		t.Errorf("expected web from the first tag column, got %q", tag)
	}
}

func TestParseTableDuplicateKeyLastWins(t *testing.T) {
	input := "dstport,protocol,tag\n80,tcp,web\n80,TCP,http\n"
	table, err := Parse(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("expected 1 key, got %d", table.Len())
	}
	if table.Duplicates() != 1 {
		t.Errorf("expected 1 duplicate, got %d", table.Duplicates())
	}
	if tag, _ := table.Tag(Key(80, "tcp")); tag != "http" {
		t.Errorf("expected last tag http, got %q", tag)
	}
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
		line  int
	}{
		{"empty", "", models.ErrEmptyInput, 0},
		{"header only", "dstport,protocol,tag\n", models.ErrEmptyInput, 0},
		{"bad header", "port,proto,label\n80,tcp,web\n", models.ErrMalformed, 1},
		{"bad port", "dstport,protocol,tag\n80,tcp,web\nhttp,tcp,web\n", models.ErrMalformed, 3},
		{"port range", "dstport,protocol,tag\n70000,tcp,web\n", models.ErrMalformed, 2},
		{"empty protocol", "dstport,protocol,tag\n80,,web\n", models.ErrMalformed, 2},
		{"empty tag", "dstport,protocol,tag\n80,tcp,\n", models.ErrMalformed, 2},
		{"short row", "dstport,protocol,tag\n80,tcp\n", models.ErrMalformed, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input), "lookup.csv")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var se *models.SourceError
			if !errors.As(err, &se) {
				t.Fatalf("expected *models.SourceError, got %T", err)
			}
			if se.Source != models.SourceLookup {
				t.Errorf("source = %q, want %q", se.Source, models.SourceLookup)
			}
			if se.Line != tc.line {
				t.Errorf("line = %d, want %d", se.Line, tc.line)
			}
		})
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.csv")); !errors.Is(err, models.ErrEmptyInput) {
		t.Fatalf("expected empty input error for missing file, got %v", err)
	}

	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty); !errors.Is(err, models.ErrEmptyInput) {
		t.Fatalf("expected empty input error for empty file, got %v", err)
	}

	path := filepath.Join(dir, "lookup.csv")
	if err := os.WriteFile(path, []byte("dstport,protocol,tag\n993,tcp,email\n"), 0644); err != nil {
		t.Fatal(err)
	}
	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tag, _ := table.Tag(Key(993, "tcp")); tag != "email" {
		t.Errorf("expected email, got %q", tag)
	}
}
