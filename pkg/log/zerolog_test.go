package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerologAdapterWithLogger(zerolog.New(&buf))

	z.With(String("component", "dispatcher")).Error("dispatch failed",
		Err(errors.New("boom")),
		Int("subscribers", 2),
		Duration("took", time.Second),
		Strings("authors", []string{"did:example:abc"}),
	)

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if got["message"] != "dispatch failed" {
		t.Errorf("message = %v, want dispatch failed", got["message"])
	}
	if got["component"] != "dispatcher" {
		t.Errorf("component = %v, want dispatcher", got["component"])
	}
	if got["error"] != "boom" {
		t.Errorf("error = %v, want boom", got["error"])
	}
	if got["subscribers"] != float64(2) {
		t.Errorf("subscribers = %v, want 2", got["subscribers"])
	}
}

func TestZerologAdapter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	z.Debug("hidden")
	z.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	z.Warn("shown")
	if buf.Len() == 0 {
		t.Fatal("expected warn output")
	}
}
