package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// minLineLen is the shortest element line that still carries every field SGP4
// reads (line 2 ends with the revolution number at column 68).
const minLineLen = 68

// Parse reads NORAD element sets from r. Both the 3-line form (name line
// followed by lines 1 and 2) and the bare 2-line form are accepted; CelesTrak
// "0 " name prefixes are stripped. Malformed entries are skipped with a
// warning.
func Parse(r io.Reader, logger *slog.Logger) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var entries []Entry
	for i := 0; i < len(lines); {
		var name, line1, line2 string
		switch {
		case isElementLine(lines[i], '1') && i+1 < len(lines) && isElementLine(lines[i+1], '2'):
			line1, line2 = lines[i], lines[i+1]
			i += 2
		case i+2 < len(lines) && isElementLine(lines[i+1], '1') && isElementLine(lines[i+2], '2'):
			name, line1, line2 = lines[i], lines[i+1], lines[i+2]
			i += 3
		default:
			logger.Warn("skipping malformed TLE line", "component", "tle", "line_index", i)
			i++
			continue
		}

		e, err := parseEntry(name, line1, line2)
		if err != nil {
			logger.Warn("skipping TLE entry", "component", "tle", "name", name, "error", err)
			continue
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func isElementLine(line string, n byte) bool {
	return len(line) >= 2 && line[0] == n && line[1] == ' '
}

func parseEntry(name, line1, line2 string) (Entry, error) {
	if len(line1) < minLineLen || len(line2) < minLineLen {
		return Entry{}, fmt.Errorf("element lines too short (%d, %d)", len(line1), len(line2))
	}

	id1, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid catalogue number %q", line1[2:7])
	}
	id2, err := strconv.Atoi(strings.TrimSpace(line2[2:7]))
	if err != nil || id1 != id2 {
		return Entry{}, fmt.Errorf("catalogue number mismatch between lines (%q, %q)", line1[2:7], line2[2:7])
	}

	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Entry{}, err
	}

	name = strings.TrimSpace(strings.TrimPrefix(name, "0 "))
	if name == "" {
		name = strconv.Itoa(id1)
	}

	return Entry{
		NORADID: id1,
		Name:    name,
		Epoch:   epoch,
		Line1:   line1,
		Line2:   line2,
	}, nil
}

// parseEpoch converts a YYDDD.DDDDDDDD epoch to UTC.
// Years 57-99 are 1957-1999, 00-56 are 2000-2056.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	day, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}
	if day < 1 || day >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %g out of range", day)
	}

	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((day - 1) * float64(24*time.Hour))), nil
}
