package console

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONFormatCarriesComponentAndKeyvals(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(ConsoleLoggerParams{Component: "worker", Format: "json", Output: &buf})

	l.Info("[Sync] Diagram projected", "diagram_id", "D1", "connections", 2)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if prefix, _ := line["prefix"].(string); !strings.Contains(prefix, "worker") {
		t.Fatalf("prefix = %v, want worker", line["prefix"])
	}
	if line["msg"] != "[Sync] Diagram projected" || line["diagram_id"] != "D1" {
		t.Fatalf("unexpected line %v", line)
	}
}

func TestDebugIsFilteredUnlessEnabled(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleLogger(ConsoleLoggerParams{Output: &buf}).Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %q", buf.String())
	}

	NewConsoleLogger(ConsoleLoggerParams{Debug: true, Format: "logfmt", Output: &buf}).Debug("shown", "run_id", "r1")
	if !strings.Contains(buf.String(), "run_id=r1") {
		t.Fatalf("expected logfmt debug line, got %q", buf.String())
	}
}
