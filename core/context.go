package core

import (
	"encoding/json"
	"maps"
)

// LLMAnswerKey is the field audio results are stored under.
const LLMAnswerKey = "llm_answer"

// DocumentContext is the accumulated state of one successfully extracted document.
//
// For Image and Document modalities Fields holds the request fields
// shallow-merged with the backend payload, and RawContent holds the payload.
// For Audio, Fields holds the request fields untouched and LLMAnswer holds
// the payload.
type DocumentContext struct {
	FileName   string
	Modality   Modality
	Fields     map[string]any
	RawContent map[string]any
	LLMAnswer  map[string]any
}

// NewMergedContext builds the context for Image and Document results.
func NewMergedContext(task DocumentTask, modality Modality, payload map[string]any) *DocumentContext {
	return &DocumentContext{
		FileName:   task.FileName,
		Modality:   modality,
		Fields:     ShallowMerge(task.Fields(), payload),
		RawContent: payload,
	}
}

// NewAnswerContext builds the context for Audio results. The payload is kept
// verbatim under LLMAnswerKey and never merged.
func NewAnswerContext(task DocumentTask, payload map[string]any) *DocumentContext {
	return &DocumentContext{
		FileName:  task.FileName,
		Modality:  ModalityAudio,
		Fields:    task.Fields(),
		LLMAnswer: payload,
	}
}

// ShallowMerge returns a new map with the keys of base and then overlay.
// Keys in overlay replace keys in base. Nested maps are replaced whole, never merged.
// Neither input is modified.
func ShallowMerge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	maps.Copy(out, base)
	maps.Copy(out, overlay)
	return out
}

// Map returns the context as a single mapping, the shape the aggregate
// extraction service receives.
func (c *DocumentContext) Map() map[string]any {
	out := maps.Clone(c.Fields)
	if out == nil {
		out = map[string]any{}
	}
	if c.LLMAnswer != nil {
		out[LLMAnswerKey] = c.LLMAnswer
	}
	return out
}

// MarshalJSON encodes the context as its mapping form.
func (c *DocumentContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// Content returns the text the aggregate step should read for this document.
// It prefers a "content" string from the extraction payload and falls back
// to the JSON encoding of the payload.
func (c *DocumentContext) Content() string {
	payload := c.RawContent
	if c.Modality == ModalityAudio {
		payload = c.LLMAnswer
	}
	if s, ok := payload["content"].(string); ok && s != "" {
		return s
	}
	if len(payload) == 0 {
		return ""
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(b)
}

// DocumentOutcome is the result of one per-document pipeline run: either a
// context (success) or an error (isolated failure), never both.
type DocumentOutcome struct {
	FileName string
	Context  *DocumentContext
	Err      error
}

// Succeeded wraps a context as a successful outcome.
func Succeeded(ctx *DocumentContext) DocumentOutcome {
	return DocumentOutcome{FileName: ctx.FileName, Context: ctx}
}

// Failed records an isolated per-document failure.
func Failed(fileName string, err error) DocumentOutcome {
	return DocumentOutcome{FileName: fileName, Err: err}
}

// OK reports whether the outcome is a success.
func (o DocumentOutcome) OK() bool {
	return o.Err == nil && o.Context != nil
}
