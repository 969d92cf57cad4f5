package lookup

import (
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	fallbackNarrative = "No parking detected nearby."
	fallbackTitle     = "Parking Spot"
)

// searchResponse is what survives from the model response: free text plus
// map references. Facility records are never parsed out of the narrative.
type searchResponse struct {
	Narrative  string
	References []Reference
}

func parseSearchResponse(responses []*model.LLMResponse) searchResponse {
	var text strings.Builder
	var refs []Reference

	for _, resp := range responses {
		if resp == nil {
			continue
		}
		text.WriteString(responseText(resp.Content))
		refs = append(refs, mapReferences(resp.GroundingMetadata)...)
	}

	narrative := text.String()
	if strings.TrimSpace(narrative) == "" {
		narrative = fallbackNarrative
	}
	if refs == nil {
		refs = []Reference{}
	}
	return searchResponse{Narrative: narrative, References: refs}
}

func responseText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// mapReferences keeps only Google Maps chunks, in their original order.
func mapReferences(meta *genai.GroundingMetadata) []Reference {
	if meta == nil {
		return nil
	}
	refs := make([]Reference, 0, len(meta.GroundingChunks))
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Maps == nil {
			continue
		}
		title := chunk.Maps.Title
		if title == "" {
			title = fallbackTitle
		}
		refs = append(refs, Reference{Title: title, URI: chunk.Maps.URI})
	}
	return refs
}
