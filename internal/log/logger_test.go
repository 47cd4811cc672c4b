// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestReconfigure_AttachesServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Reconfigure(Config{Level: "debug", Output: &buf, Service: "playguard-test"})
	t.Cleanup(func() { Reconfigure(Config{}) })

	l := WithComponent("session")
	l.Info().Msg("started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["service"] != "playguard-test" {
		t.Errorf("service = %v, want playguard-test", entry["service"])
	}
	if entry[FieldComponent] != "session" {
		t.Errorf("component = %v, want session", entry[FieldComponent])
	}
}

func TestConfigure_FirstCallWins(t *testing.T) {
	var first, second bytes.Buffer
	Reconfigure(Config{Output: &first})
	t.Cleanup(func() { Reconfigure(Config{}) })

	Configure(Config{Output: &second})
	l := Base()
	l.Info().Msg("x")

	if first.Len() == 0 {
		t.Fatal("expected output on the first configured writer")
	}
	if second.Len() != 0 {
		t.Fatal("Configure must not replace an already configured logger")
	}
}
