package tle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedRecord is returned for element input that cannot be decoded.
var ErrMalformedRecord = errors.New("malformed element record")

// lineLength is the fixed width of both element lines.
const lineLength = 69

// Parse reads element records from r in input order.
//
// Each record is two consecutive lines starting with "1 " and "2 ". A line
// preceding a pair that is neither is taken as the record's name (3LE format).
// Any malformed record fails the whole parse.
func Parse(r io.Reader, logger *slog.Logger) ([]Element, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	var lineNos []int
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
			lineNos = append(lineNos, n)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading element data: %w", err)
	}

	var elements []Element
	for i := 0; i < len(lines); {
		name := ""
		if !isLine(lines[i], '1') && !isLine(lines[i], '2') {
			name = strings.TrimSpace(strings.TrimPrefix(lines[i], "0 "))
			i++
		}
		if i+1 >= len(lines) {
			return nil, fmt.Errorf("%w: line %d: truncated record %q", ErrMalformedRecord, lineNos[len(lineNos)-1], name)
		}

		line1, line2 := lines[i], lines[i+1]
		if !isLine(line1, '1') || !isLine(line2, '2') {
			return nil, fmt.Errorf("%w: line %d: expected line 1/line 2 pair", ErrMalformedRecord, lineNos[i])
		}

		e, err := decode(line1, line2)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, lineNos[i], err)
		}
		if name == "" {
			name = fmt.Sprintf("%05d", e.CatalogID)
		}
		e.Name = name

		for j, l := range []string{line1, line2} {
			if !checksumOK(l) {
				logger.Warn("element checksum mismatch", "catalog_id", e.CatalogID, "line", j+1, "name", name)
			}
		}

		elements = append(elements, e)
		i += 2
	}

	return elements, nil
}

// LoadFile opens path and parses its element records.
func LoadFile(path string, logger *slog.Logger) ([]Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening element source: %w", err)
	}
	defer f.Close()

	elements, err := Parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return elements, nil
}

func isLine(line string, n byte) bool {
	return len(line) >= 2 && line[0] == n && line[1] == ' '
}

func decode(line1, line2 string) (Element, error) {
	if len(line1) != lineLength {
		return Element{}, fmt.Errorf("line1 length %d, expected %d", len(line1), lineLength)
	}
	if len(line2) != lineLength {
		return Element{}, fmt.Errorf("line2 length %d, expected %d", len(line2), lineLength)
	}

	// Catalog number: cols 3-7 on both lines.
	idStr := strings.TrimSpace(line1[2:7])
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return Element{}, fmt.Errorf("invalid catalog number %q", idStr)
	}
	if id2 := strings.TrimSpace(line2[2:7]); id2 != idStr {
		return Element{}, fmt.Errorf("catalog number mismatch %q vs %q", idStr, id2)
	}

	// Epoch: cols 19-32.
	epochStr := strings.TrimSpace(line1[18:32])
	epoch, err := parseEpoch(epochStr)
	if err != nil {
		return Element{}, err
	}

	return Element{
		CatalogID: id,
		Epoch:     epoch,
		Line1:     line1,
		Line2:     line2,
	}, nil
}

// checksumOK verifies the modulo-10 checksum in column 69.
// Digits count at face value, '-' counts as 1, everything else as 0.
func checksumOK(line string) bool {
	if len(line) != lineLength {
		return false
	}
	sum := 0
	for _, c := range line[:lineLength-1] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	want := line[lineLength-1]
	return want >= '0' && want <= '9' && sum%10 == int(want-'0')
}

// parseEpoch converts an epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	yearStr := s[:2]
	dayStr := s[2:]

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", yearStr, err)
	}

	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(dayStr, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", dayStr, err)
	}
	if dayOfYear < 1 || dayOfYear >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %q out of range", dayStr)
	}

	// dayOfYear is 1-based: day 1 = Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
