package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	ctx := ContextWithRequestID(context.Background(), "req-7")
	log.WithContext(ctx).QueryIssued(3, 37.7749, -122.4194, true)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "query_issued" || line["request_id"] != "req-7" || line["seq"] != float64(3) {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestProductionSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("production", &buf).QueryDiscarded(1, 2)
	if buf.Len() != 0 {
		t.Fatalf("expected debug line to be dropped, got %q", buf.String())
	}

	buf.Reset()
	NewWithWriter("development", &buf).QueryDiscarded(1, 2)
	if !strings.Contains(buf.String(), "query_discarded") {
		t.Fatalf("expected text debug line, got %q", buf.String())
	}
}

func TestRequestIDWithoutValue(t *testing.T) {
	if RequestID(context.Background()) != "" {
		t.Fatalf("expected empty request id")
	}
}
