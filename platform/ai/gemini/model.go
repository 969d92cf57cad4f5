// Package gemini builds the adk model.LLM used for parking search and,
// by default, reverse geocoding. Google Maps grounding is only available
// on this backend.
package gemini

import (
	"context"
	"errors"

	"google.golang.org/adk/model"
	adkgemini "google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model with Maps grounding support.
const DefaultModel = "gemini-2.5-flash"

// Config for Gemini
type Config struct {
	APIKey string
	Model  string
}

// NewModel returns a Gemini-backed model.LLM.
func NewModel(ctx context.Context, cfg Config) (model.LLM, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return adkgemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
}
