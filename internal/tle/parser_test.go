package tle

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Real ISS elements (valid checksums).
const (
	issLine1 = "1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994"
	issLine2 = "2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533"
)

const (
	hiberLine1 = "1 43744U 18096AB  19115.19815699  .00002003  00000-0  78676-4 0  9994"
	hiberLine2 = "2 43744  97.4641 185.2907 0018688 163.4737 196.7173 15.26755683 22421"
)

func TestParseTwoLine(t *testing.T) {
	input := issLine1 + "\n" + issLine2 + "\n" + hiberLine1 + "\n" + hiberLine2 + "\n"

	elements, err := Parse(strings.NewReader(input), testLogger)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(elements))
	}

	// File order is preserved.
	if elements[0].CatalogID != 25544 || elements[1].CatalogID != 43744 {
		t.Errorf("order = [%d %d], want [25544 43744]", elements[0].CatalogID, elements[1].CatalogID)
	}
	if elements[0].Name != "25544" {
		t.Errorf("unnamed record name = %q, want catalog number", elements[0].Name)
	}
	if elements[0].Line1 != issLine1 || elements[0].Line2 != issLine2 {
		t.Error("element lines not preserved")
	}
}

func TestParseThreeLine(t *testing.T) {
	input := "ISS (ZARYA)\r\n" + issLine1 + "\r\n" + issLine2 + "\r\n\r\n" +
		"0 HIBER-1\n" + hiberLine1 + "\n" + hiberLine2 + "\n"

	elements, err := Parse(strings.NewReader(input), testLogger)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(elements))
	}
	if elements[0].Name != "ISS (ZARYA)" {
		t.Errorf("name = %q, want %q", elements[0].Name, "ISS (ZARYA)")
	}
	if elements[1].Name != "HIBER-1" {
		t.Errorf("name = %q, want %q", elements[1].Name, "HIBER-1")
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"truncated record", issLine1 + "\n"},
		{"line order swapped", issLine2 + "\n" + issLine1 + "\n"},
		{"short line1", issLine1[:60] + "\n" + issLine2 + "\n"},
		{"catalog mismatch", issLine1 + "\n" + hiberLine2 + "\n"},
		{"bad epoch", strings.Replace(issLine1, "25138.37048074", "25xxx.37048074", 1) + "\n" + issLine2 + "\n"},
		{"name without lines", "JUST A NAME\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), testLogger)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("error %v does not wrap ErrMalformedRecord", err)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	elements, err := Parse(strings.NewReader("\n\n"), testLogger)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(elements) != 0 {
		t.Errorf("got %d elements, want 0", len(elements))
	}
}

func TestParseEpoch(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"24001.00000000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"24001.50000000", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"57032.00000000", time.Date(1957, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"56366.00000000", time.Date(2056, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseEpoch(tt.in)
			if err != nil {
				t.Fatalf("parseEpoch(%q) failed: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseEpoch(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestChecksum(t *testing.T) {
	if !checksumOK(issLine1) || !checksumOK(issLine2) {
		t.Error("valid ISS lines failed checksum")
	}
	bad := issLine1[:68] + "0"
	if checksumOK(bad) {
		t.Error("corrupted line passed checksum")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "elements.txt")
	if err := os.WriteFile(path, []byte(issLine1+"\n"+issLine2+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	elements, err := LoadFile(path, testLogger)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(elements) != 1 {
		t.Fatalf("got %d elements, want 1", len(elements))
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.txt"), testLogger); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRange(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(48 * time.Hour)
	r := Range([]Element{{Epoch: b}, {Epoch: a}})
	if !r.Min.Equal(a) || !r.Max.Equal(b) {
		t.Errorf("Range = %v..%v, want %v..%v", r.Min, r.Max, a, b)
	}
	if got := Range(nil); !got.Min.IsZero() {
		t.Errorf("Range(nil) = %v, want zero", got)
	}
}
