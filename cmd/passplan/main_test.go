package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/pass-planner/core"
	"github.com/signalsfoundry/pass-planner/internal/logging"
	"github.com/signalsfoundry/pass-planner/tle"
)

const (
	issLine1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issLine2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

var t0 = time.Date(2021, 10, 2, 15, 0, 0, 0, time.UTC)

// writeScenario puts a point target under the ISS at t0 and a window of
// five minutes either side.
func writeScenario(t *testing.T, format string) string {
	t.Helper()
	set, err := tle.ParseLines("ISS", issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}
	orbit, err := core.NewOrbitModelFromTLE(set)
	if err != nil {
		t.Fatalf("NewOrbitModelFromTLE: %v", err)
	}
	sub, err := orbit.PositionGeodetic(t0)
	if err != nil {
		t.Fatalf("PositionGeodetic: %v", err)
	}

	scenario := fmt.Sprintf(`window:
  start: %q
  duration: 10m
output:
  format: %s
daylight:
  policy: none
satellites:
  - id: ISS
    name: ISS (ZARYA)
    sensor: radar
    line1: %q
    line2: %q
targets:
  - name: sub-point
    vertices:
      - {longitude: %f, latitude: %f}
`, t0.Add(-5*time.Minute).Format(time.RFC3339), format, issLine1, issLine2, sub.Longitude, sub.Latitude)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenario), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestRunPrintsJSONRecords(t *testing.T) {
	path := writeScenario(t, "json")
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-config", path}, &out, logging.Noop()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(out.Bytes(), &records); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if len(records) == 0 {
		t.Fatalf("no passes over the sub-satellite point")
	}
	if records[0]["id"] != "ISS" || records[0]["targetName"] != "sub-point" {
		t.Fatalf("record = %v", records[0])
	}
	if _, ok := records[0]["pitch"]; !ok {
		t.Fatalf("point pass record should carry pitch: %v", records[0])
	}
}

func TestRunTableToFile(t *testing.T) {
	path := writeScenario(t, "json")

	// The table row must carry the same start as the JSON record.
	var jsonOut bytes.Buffer
	if err := run(context.Background(), []string{"-config", path, "-workers", "1"}, &jsonOut, logging.Noop()); err != nil {
		t.Fatalf("run json: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(jsonOut.Bytes(), &records); err != nil || len(records) == 0 {
		t.Fatalf("json output = %s (err %v)", jsonOut.String(), err)
	}
	start, _ := records[0]["startTime"].(string)
	if start != "2021/10/02 15:00:00" {
		t.Fatalf("startTime = %q, want the 6s step at t0", start)
	}

	outPath := filepath.Join(t.TempDir(), "passes.txt")
	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-config", path, "-format", "table", "-out", outPath, "-workers", "1"}, &stdout, logging.Noop())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout should stay empty when -out is set, got %q", stdout.String())
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) < 2 || !strings.HasPrefix(lines[0], "SATELLITE") {
		t.Fatalf("table output = %q", data)
	}
	if !strings.Contains(lines[1], "ISS (ZARYA)") || !strings.Contains(lines[1], start) {
		t.Fatalf("table row = %q", lines[1])
	}
}

func TestRunFlagOverridesWindow(t *testing.T) {
	path := writeScenario(t, "json")
	var out bytes.Buffer
	// A window an hour later misses the overhead pass.
	args := []string{"-config", path, "-start", t0.Add(time.Hour).Format(time.RFC3339), "-duration", "2m"}
	if err := run(context.Background(), args, &out, logging.Noop()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Fatalf("expected no passes, got %s", out.String())
	}
}

func TestRunErrors(t *testing.T) {
	path := writeScenario(t, "json")
	tests := []struct {
		name string
		args []string
	}{
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}},
		{"bad format", []string{"-config", path, "-format", "xml"}},
		{"bad start", []string{"-config", path, "-start", "tomorrow"}},
		{"unknown flag", []string{"-bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(context.Background(), tt.args, &out, logging.Noop()); err == nil {
				t.Fatalf("run(%v) succeeded", tt.args)
			}
		})
	}
}
