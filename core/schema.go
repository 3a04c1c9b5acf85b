package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// requestSchema describes the batch entry payload. Limits that need
// counting across items (uniqueness) are left to ValidateBatchRequest.
const requestSchema = `{
  "type": "object",
  "required": ["documents", "attributes"],
  "properties": {
    "documents": {
      "type": "array",
      "items": {"type": "string"}
    },
    "attributes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    },
    "model_params": {"type": "object"},
    "parsing_mode": {"type": "string"},
    "instructions": {"type": "string"},
    "few_shots": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["input", "output"],
        "properties": {
          "input": {"type": "string"},
          "output": {"type": "string"}
        }
      }
    }
  }
}`

var compiledRequestSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("request.json", bytes.NewReader([]byte(requestSchema))); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("request.json")
})

// ParseBatchRequest checks a raw JSON payload against the request schema,
// decodes it, fills defaults and validates domain rules.
func ParseBatchRequest(data []byte) (*BatchRequest, error) {
	if err := ValidateRequestJSON(data); err != nil {
		return nil, err
	}
	var req BatchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	NormalizeBatchRequest(&req)
	if err := ValidateBatchRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ValidateRequestJSON reports whether data has the shape of a batch request.
func ValidateRequestJSON(data []byte) error {
	schema, err := compiledRequestSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return nil
}
