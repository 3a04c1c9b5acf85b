package core

import (
	"errors"
	"testing"
)

func TestParseBatchRequest(t *testing.T) {
	data := []byte(`{
		"documents": ["a.pdf", "b.png"],
		"attributes": [{"name": "summary", "description": "short summary"}],
		"model_params": {"model_id": "m", "temperature": 0.1},
		"instructions": "Answer in English.",
		"few_shots": [{"input": "doc", "output": "{\"summary\": \"x\"}"}]
	}`)

	req, err := ParseBatchRequest(data)
	if err != nil {
		t.Fatalf("ParseBatchRequest() error = %v", err)
	}
	if len(req.Documents) != 2 || req.Documents[1] != "b.png" {
		t.Errorf("Documents = %v", req.Documents)
	}
	if req.ParsingMode != DefaultParsingMode {
		t.Errorf("ParsingMode = %q, want default", req.ParsingMode)
	}
	if req.ModelParams.ModelID() != "m" {
		t.Errorf("ModelParams = %v", req.ModelParams)
	}
	if len(req.FewShots) != 1 || req.Instructions == "" {
		t.Errorf("few shots or instructions not decoded: %+v", req)
	}
}

func TestParseBatchRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"not json", `{"documents": [`, ErrMalformedRequest},
		{"missing attributes", `{"documents": ["a.pdf"]}`, ErrMalformedRequest},
		{"documents not strings", `{"documents": [1], "attributes": []}`, ErrMalformedRequest},
		{"attribute without name", `{"documents": ["a.pdf"], "attributes": [{"description": "d"}]}`, ErrMalformedRequest},
		{"model params not object", `{"documents": ["a.pdf"], "attributes": [{"name": "n"}], "model_params": 3}`, ErrMalformedRequest},
		{"empty documents", `{"documents": [], "attributes": [{"name": "n"}]}`, ErrNoDocuments},
		{"bad parsing mode", `{"documents": ["a.pdf"], "attributes": [{"name": "n"}], "parsing_mode": "x"}`, ErrInvalidParsingMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBatchRequest([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseBatchRequest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
