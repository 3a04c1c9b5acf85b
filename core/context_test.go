package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func testTask() DocumentTask {
	return DocumentTask{
		FileName:    "a.pdf",
		Attributes:  []Attribute{{Name: "summary", Description: "short"}},
		ModelParams: ModelParams{"model_id": "m"},
		ParsingMode: ParsingModeText,
	}
}

func TestShallowMerge(t *testing.T) {
	base := map[string]any{
		"file_name": "a.pdf",
		"nested":    map[string]any{"keep": 1, "replace": 2},
		"only_base": true,
	}
	overlay := map[string]any{
		"file_name":    "renamed.pdf",
		"nested":       map[string]any{"replace": 3},
		"only_overlay": "x",
	}

	got := ShallowMerge(base, overlay)

	if got["file_name"] != "renamed.pdf" {
		t.Errorf("overlay should win, got %v", got["file_name"])
	}
	if got["only_base"] != true || got["only_overlay"] != "x" {
		t.Errorf("missing keys in merge: %v", got)
	}
	nested := got["nested"].(map[string]any)
	if _, ok := nested["keep"]; ok {
		t.Error("merge must not recurse into nested maps")
	}
	if nested["replace"] != 3 {
		t.Errorf("nested = %v", nested)
	}
	if base["file_name"] != "a.pdf" {
		t.Error("base must not be modified")
	}
}

func TestShallowMergeNil(t *testing.T) {
	got := ShallowMerge(nil, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("ShallowMerge(nil, nil) = %v", got)
	}
}

func TestNewMergedContext(t *testing.T) {
	payload := map[string]any{
		"content":      "hello",
		"parsing_mode": "backend-value",
	}

	ctx := NewMergedContext(testTask(), ModalityDocument, payload)

	if ctx.Fields["content"] != "hello" {
		t.Errorf("content not merged: %v", ctx.Fields)
	}
	if ctx.Fields["parsing_mode"] != "backend-value" {
		t.Errorf("backend field should override request field, got %v", ctx.Fields["parsing_mode"])
	}
	if ctx.RawContent == nil || ctx.LLMAnswer != nil {
		t.Error("merged context must carry raw content and no llm answer")
	}
	if _, ok := ctx.Map()[LLMAnswerKey]; ok {
		t.Error("merged context must not expose llm_answer")
	}
	if ctx.Content() != "hello" {
		t.Errorf("Content() = %q", ctx.Content())
	}
}

func TestNewAnswerContext(t *testing.T) {
	payload := map[string]any{
		"content":   "transcript",
		"file_name": "should-not-merge.mp3",
	}
	task := testTask()
	task.FileName = "c.mp3"

	ctx := NewAnswerContext(task, payload)

	if ctx.Fields["file_name"] != "c.mp3" {
		t.Errorf("audio payload must not merge, file_name = %v", ctx.Fields["file_name"])
	}
	if ctx.RawContent != nil {
		t.Error("audio context must not carry raw content")
	}
	m := ctx.Map()
	answer, ok := m[LLMAnswerKey].(map[string]any)
	if !ok {
		t.Fatalf("llm_answer missing: %v", m)
	}
	if answer["file_name"] != "should-not-merge.mp3" {
		t.Error("llm_answer must be stored verbatim")
	}
	if ctx.Content() != "transcript" {
		t.Errorf("Content() = %q", ctx.Content())
	}
}

func TestDocumentContextContentFallback(t *testing.T) {
	ctx := NewMergedContext(testTask(), ModalityImage, map[string]any{"total": 12.5})
	if got := ctx.Content(); got != `{"total":12.5}` {
		t.Errorf("Content() = %q", got)
	}

	empty := NewMergedContext(testTask(), ModalityImage, map[string]any{})
	if got := empty.Content(); got != "" {
		t.Errorf("Content() = %q, want empty", got)
	}
}

func TestDocumentContextMarshalJSON(t *testing.T) {
	ctx := NewAnswerContext(testTask(), map[string]any{"content": "x"})
	b, err := json.Marshal(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded[LLMAnswerKey]; !ok {
		t.Errorf("encoded context missing llm_answer: %s", b)
	}
}

func TestDocumentOutcome(t *testing.T) {
	ok := Succeeded(NewMergedContext(testTask(), ModalityDocument, map[string]any{}))
	if !ok.OK() || ok.FileName != "a.pdf" {
		t.Errorf("Succeeded outcome = %+v", ok)
	}

	failed := Failed("b.png", errors.New("boom"))
	if failed.OK() || failed.Context != nil || failed.FileName != "b.png" {
		t.Errorf("Failed outcome = %+v", failed)
	}
}

func TestNewFailedResult(t *testing.T) {
	res := NewFailedResult("batch-1", []DocumentFailure{{FileName: "b.png", Error: "boom"}})
	if res.Succeeded() {
		t.Error("failed result reports success")
	}
	if res.Failure == nil || res.Failure.Cause != "Invalid response." || res.Failure.Error != AggregateFailureError {
		t.Errorf("Failure = %+v", res.Failure)
	}
	if len(res.Documents) != 0 {
		t.Error("failed result must not carry documents")
	}
}
