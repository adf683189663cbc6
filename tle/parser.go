package tle

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/signalsfoundry/pass-planner/internal/logging"
)

// Parse reads a catalogue of element sets. Entries may be three-line (name
// first) or bare two-line. Malformed entries are logged and skipped so one
// bad record does not discard the file.
func Parse(r io.Reader, log logging.Logger) ([]Set, error) {
	log = logging.OrNoop(log)
	ctx := context.Background()

	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read TLE catalogue: %w", err)
	}

	var sets []Set
	for i := 0; i < len(lines); {
		var name, l1, l2 string
		switch {
		case strings.HasPrefix(lines[i], "1 ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "2 "):
			l1, l2 = lines[i], lines[i+1]
			i += 2
		case i+2 < len(lines) && strings.HasPrefix(lines[i+1], "1 ") && strings.HasPrefix(lines[i+2], "2 "):
			name, l1, l2 = lines[i], lines[i+1], lines[i+2]
			i += 3
		default:
			log.Warn(ctx, "skipping unpaired TLE line", logging.Int("line", i+1), logging.String("text", lines[i]))
			i++
			continue
		}

		set, err := ParseLines(name, l1, l2)
		if err != nil {
			log.Warn(ctx, "skipping malformed TLE entry", logging.String("name", strings.TrimSpace(name)), logging.Err(err))
			continue
		}
		sets = append(sets, set)
	}
	return sets, nil
}
