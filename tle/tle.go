// Package tle parses two-line element sets and validates them before they
// reach the SGP4 library, which aborts the process on malformed input.
package tle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// lineLength is the fixed width of both NORAD data lines.
const lineLength = 69

// ErrMalformed wraps every parse failure in this package.
var ErrMalformed = errors.New("malformed TLE")

// Set is one parsed element set.
type Set struct {
	Name    string
	NoradID int
	Epoch   time.Time
	// MeanMotion in revolutions per day.
	MeanMotion float64
	Line1      string
	Line2      string
}

// PeriodMinutes returns the orbital period derived from the mean motion.
func (s Set) PeriodMinutes() float64 {
	if s.MeanMotion <= 0 {
		return 0
	}
	return 1440.0 / s.MeanMotion
}

// ParseSet parses a two- or three-line block. A leading name line may carry
// the "0 " prefix used by some catalogues; it is stripped.
func ParseSet(text string) (Set, error) {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	switch len(lines) {
	case 2:
		return ParseLines("", lines[0], lines[1])
	case 3:
		return ParseLines(lines[0], lines[1], lines[2])
	default:
		return Set{}, fmt.Errorf("%w: expected 2 or 3 lines, got %d", ErrMalformed, len(lines))
	}
}

// ParseLines validates the data lines and extracts catalogue number, epoch
// and mean motion.
func ParseLines(name, line1, line2 string) (Set, error) {
	line1 = strings.TrimRight(line1, " \t\r")
	line2 = strings.TrimRight(line2, " \t\r")

	if err := validateLines(line1, line2); err != nil {
		return Set{}, err
	}

	norad1, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return Set{}, fmt.Errorf("%w: catalogue number %q", ErrMalformed, line1[2:7])
	}
	norad2, err := strconv.Atoi(strings.TrimSpace(line2[2:7]))
	if err != nil || norad2 != norad1 {
		return Set{}, fmt.Errorf("%w: catalogue numbers differ between lines (%q, %q)", ErrMalformed, line1[2:7], line2[2:7])
	}

	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	meanMotion, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil || meanMotion <= 0 {
		return Set{}, fmt.Errorf("%w: mean motion %q", ErrMalformed, line2[52:63])
	}

	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "0 ")
	if name == "" {
		name = strconv.Itoa(norad1)
	}

	return Set{
		Name:       name,
		NoradID:    norad1,
		Epoch:      epoch,
		MeanMotion: meanMotion,
		Line1:      line1,
		Line2:      line2,
	}, nil
}

// line2Fields are the float columns the propagator reads from line 2.
var line2Fields = []struct {
	name       string
	start, end int
}{
	{"inclination", 8, 16},
	{"right ascension", 17, 25},
	{"argument of perigee", 34, 42},
	{"mean anomaly", 43, 51},
}

func validateLines(line1, line2 string) error {
	if len(line1) != lineLength {
		return fmt.Errorf("%w: line 1 length %d, expected %d", ErrMalformed, len(line1), lineLength)
	}
	if len(line2) != lineLength {
		return fmt.Errorf("%w: line 2 length %d, expected %d", ErrMalformed, len(line2), lineLength)
	}
	if line1[0] != '1' {
		return fmt.Errorf("%w: line 1 must start with '1', got %q", ErrMalformed, line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("%w: line 2 must start with '2', got %q", ErrMalformed, line2[0])
	}
	for _, f := range line2Fields {
		raw := strings.TrimSpace(line2[f.start:f.end])
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Errorf("%w: %s %q", ErrMalformed, f.name, raw)
		}
	}
	ecc := strings.TrimSpace(line2[26:33])
	if _, err := strconv.ParseFloat("0."+ecc, 64); err != nil {
		return fmt.Errorf("%w: eccentricity %q", ErrMalformed, ecc)
	}
	return nil
}

// parseEpoch converts YYDDD.DDDDDDDD to a UTC time. Years 57-99 map to the
// 1900s, 00-56 to the 2000s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch %q too short", s)
	}
	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}
	day, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch day %q: %w", s[2:], err)
	}
	if day < 1 || day >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %v out of range", day)
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((day - 1) * float64(24*time.Hour))), nil
}
