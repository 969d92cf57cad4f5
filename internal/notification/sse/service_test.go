package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"parksmart_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type frame struct {
	event string
	data  string
}

func readFrame(t *testing.T, r *bufio.Reader) frame {
	t.Helper()
	var f frame
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if f.event != "" || f.data != "" {
				return f
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			f.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			f.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func TestHandlerStreamsInitialAndBroadcastEvents(t *testing.T) {
	svc := New(logger.Discard(), nil)
	engine := gin.New()
	engine.GET("/events", svc.Handler(func() Event {
		return Event{Type: EventStateChanged, Message: "initial"}
	}))
	srv := httptest.NewServer(engine)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	if f := readFrame(t, r); f.event != "connected" {
		t.Fatalf("expected connected frame, got %+v", f)
	}
	f := readFrame(t, r)
	var initial Event
	if err := json.Unmarshal([]byte(f.data), &initial); err != nil || f.event != string(EventStateChanged) || initial.Message != "initial" {
		t.Fatalf("unexpected initial frame %+v (err=%v)", f, err)
	}

	if svc.ClientCount() != 1 {
		t.Fatalf("expected one client, got %d", svc.ClientCount())
	}
	svc.Broadcast(Event{Type: EventSearchFailed, Message: "boom"})
	if f := readFrame(t, r); f.event != string(EventSearchFailed) {
		t.Fatalf("expected broadcast frame, got %+v", f)
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	svc := New(logger.Discard(), nil)
	cl := &client{id: uuid.New(), events: make(chan Event, 1)}
	if !svc.addClient(cl) {
		t.Fatalf("expected client to be added")
	}

	svc.Broadcast(Event{Type: EventStateChanged})
	svc.Broadcast(Event{Type: EventSearchFailed})

	if got := <-cl.events; got.Type != EventStateChanged {
		t.Fatalf("unexpected first event %s", got.Type)
	}
	select {
	case e := <-cl.events:
		t.Fatalf("expected overflow to be dropped, got %s", e.Type)
	default:
	}
}

func TestCloseRejectsNewClients(t *testing.T) {
	svc := New(logger.Discard(), nil)
	cl := &client{id: uuid.New(), events: make(chan Event, 1)}
	svc.addClient(cl)
	svc.Close()

	if _, ok := <-cl.events; ok {
		t.Fatalf("expected client channel to be closed")
	}
	svc.removeClient(cl)
	if svc.addClient(&client{id: uuid.New(), events: make(chan Event, 1)}) {
		t.Fatalf("expected closed service to reject clients")
	}
}
