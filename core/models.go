// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Hex returns the ID as a fixed-width hex string, suitable for storage keys.
func (id ID) Hex() string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return hex.EncodeToString(buf[:])
}

// ParsingMode selects how Document modality files are turned into content.
// The wire values match the names the front-end has always sent.
type ParsingMode string

const (
	// ParsingModeText converts documents to plain text and tables locally.
	ParsingModeText ParsingMode = "Amazon Textract"
	// ParsingModeMultimodal sends documents to the vision model.
	ParsingModeMultimodal ParsingMode = "Amazon Bedrock"
)

// DefaultParsingMode is used when a request leaves parsing_mode empty.
const DefaultParsingMode = ParsingModeText

// Valid reports whether m is a known parsing mode.
func (m ParsingMode) Valid() bool {
	return m == ParsingModeText || m == ParsingModeMultimodal
}

// Attribute is one entry of the extraction schema.
type Attribute struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FewShot is a worked example shown to the attribute extraction model.
type FewShot struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// ModelParams is passed through to extraction backends unmodified.
// Accessors read the keys backends understand without constraining the rest.
type ModelParams map[string]any

// ModelID returns the "model_id" entry, or "" when absent.
func (p ModelParams) ModelID() string {
	s, _ := p["model_id"].(string)
	return s
}

// Temperature returns the "temperature" entry and whether it was set.
func (p ModelParams) Temperature() (float64, bool) {
	return number(p["temperature"])
}

// AnswerLength returns the "answer_length" entry as a token budget, or 0.
func (p ModelParams) AnswerLength() int {
	n, ok := number(p["answer_length"])
	if !ok {
		return 0
	}
	return int(n)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// BatchRequest describes a batch of documents and the attributes to extract.
// A request must not be modified once a batch has started.
type BatchRequest struct {
	Documents    []string    `json:"documents"`
	Attributes   []Attribute `json:"attributes"`
	ModelParams  ModelParams `json:"model_params,omitempty"`
	ParsingMode  ParsingMode `json:"parsing_mode,omitempty"`
	Instructions string      `json:"instructions,omitempty"`
	FewShots     []FewShot   `json:"few_shots,omitempty"`
}

// Tasks creates one DocumentTask per document, in request order.
// Every task shares the request's attribute schema, model params and parsing mode.
func (r *BatchRequest) Tasks() []DocumentTask {
	tasks := make([]DocumentTask, len(r.Documents))
	for i, name := range r.Documents {
		tasks[i] = DocumentTask{
			FileName:    name,
			Attributes:  r.Attributes,
			ModelParams: r.ModelParams,
			ParsingMode: r.ParsingMode,
		}
	}
	return tasks
}

// Fingerprint identifies the request by content. Reruns of the same batch
// share a fingerprint.
func (r *BatchRequest) Fingerprint() ID {
	data, _ := json.Marshal(r)
	return IDFromContent(string(data))
}

// DocumentTask is the unit of work handed to one per-document pipeline.
type DocumentTask struct {
	FileName    string
	Attributes  []Attribute
	ModelParams ModelParams
	ParsingMode ParsingMode
}

// Fields returns the task as the request mapping that extraction payloads merge into.
func (t DocumentTask) Fields() map[string]any {
	attrs := make([]any, len(t.Attributes))
	for i, a := range t.Attributes {
		attrs[i] = map[string]any{"name": a.Name, "description": a.Description}
	}
	params := make(map[string]any, len(t.ModelParams))
	for k, v := range t.ModelParams {
		params[k] = v
	}
	return map[string]any{
		"file_name":    t.FileName,
		"attributes":   attrs,
		"model_params": params,
		"parsing_mode": string(t.ParsingMode),
	}
}

// BatchStatus is the terminal state of a batch.
type BatchStatus string

const (
	BatchSucceeded BatchStatus = "SUCCEEDED"
	BatchFailed    BatchStatus = "FAILED"
)

// BatchRecord is the persisted history of one batch run.
type BatchRecord struct {
	ID          string        `json:"id"`
	Fingerprint string        `json:"fingerprint"`
	Request     *BatchRequest `json:"request"`
	Result      *BatchResult  `json:"result"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}
