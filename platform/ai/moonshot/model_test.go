package moonshot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func firstResponse(t *testing.T, m *KimiModel, req *model.LLMRequest) (*model.LLMResponse, error) {
	t.Helper()
	for resp, err := range m.GenerateContent(context.Background(), req, false) {
		return resp, err
	}
	t.Fatalf("GenerateContent yielded nothing")
	return nil, nil
}

func TestGenerateSendsTextMessages(t *testing.T) {
	var got struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  1 Market St, San Francisco  "}}]}`))
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "secret", BaseURL: srv.URL, Model: "kimi-test"})
	resp, err := firstResponse(t, m, &model.LLMRequest{
		Contents: []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: "Where am I?"}}}},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: "Answer tersely."}}},
		},
	})
	if err != nil {
		t.Fatalf("generate returned error: %v", err)
	}

	if got.Model != "kimi-test" || len(got.Messages) != 2 {
		t.Fatalf("unexpected payload %+v", got)
	}
	if got.Messages[0].Role != "system" || got.Messages[1].Content != "Where am I?" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
	if len(resp.Content.Parts) != 1 || resp.Content.Parts[0].Text != "1 Market St, San Francisco" {
		t.Fatalf("unexpected response content %+v", resp.Content)
	}
}

func TestGenerateSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "k", BaseURL: srv.URL})
	if _, err := firstResponse(t, m, &model.LLMRequest{
		Contents: []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: "hi"}}}},
	}); err == nil {
		t.Fatalf("expected quota error")
	}
}

func TestGenerateRejectsEmptyRequest(t *testing.T) {
	m := NewModel(Config{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	if _, err := firstResponse(t, m, &model.LLMRequest{}); err == nil {
		t.Fatalf("expected empty request to fail before any network call")
	}
}

func TestGenerateRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "k", BaseURL: srv.URL})
	if _, err := firstResponse(t, m, &model.LLMRequest{
		Contents: []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: "hi"}}}},
	}); err == nil {
		t.Fatalf("expected empty choices error")
	}
}
