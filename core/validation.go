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
	"fmt"
	"strings"
	"unicode/utf8"
)

// Request limits.
const (
	MaxDocuments            = 50
	MaxAttributes           = 50
	MaxAttributeNameChars   = 100
	MaxAttributeDescription = 100_000
	MaxFewShots             = 50
	MaxFewShotInputChars    = 100_000
	MaxFewShotOutputChars   = 100_000
)

// NormalizeBatchRequest fills defaults in place. An empty parsing mode
// becomes DefaultParsingMode.
func NormalizeBatchRequest(req *BatchRequest) {
	if req == nil {
		return
	}
	if req.ParsingMode == "" {
		req.ParsingMode = DefaultParsingMode
	}
	for i := range req.Attributes {
		req.Attributes[i].Name = strings.TrimSpace(req.Attributes[i].Name)
	}
}

// ValidateBatchRequest validates a BatchRequest according to domain rules.
//
// Validation rules:
//   - At least one and at most MaxDocuments documents, names non-blank and unique
//   - At least one and at most MaxAttributes attributes, names non-blank and unique
//   - Attribute names up to MaxAttributeNameChars, descriptions up to MaxAttributeDescription
//   - At most MaxFewShots few-shot examples within the per-example character limits
//   - ParsingMode is known (normalize first to accept an empty mode)
//
// NOT validated:
//   - ModelParams (opaque, checked by the backend that reads them)
//   - File extensions (unknown extensions are classified as documents)
func ValidateBatchRequest(req *BatchRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidBatchRequest)
	}

	if len(req.Documents) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidBatchRequest, ErrNoDocuments)
	}
	if len(req.Documents) > MaxDocuments {
		return fmt.Errorf("%w: %w: %d > %d", ErrInvalidBatchRequest, ErrTooManyDocuments, len(req.Documents), MaxDocuments)
	}
	seenDocs := make(map[string]struct{}, len(req.Documents))
	for _, name := range req.Documents {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: %w", ErrInvalidBatchRequest, ErrEmptyDocumentName)
		}
		if _, dup := seenDocs[name]; dup {
			return fmt.Errorf("%w: %w: %s", ErrInvalidBatchRequest, ErrDuplicateDocument, name)
		}
		seenDocs[name] = struct{}{}
	}

	if len(req.Attributes) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidBatchRequest, ErrNoAttributes)
	}
	if len(req.Attributes) > MaxAttributes {
		return fmt.Errorf("%w: %w: %d > %d", ErrInvalidBatchRequest, ErrTooManyAttributes, len(req.Attributes), MaxAttributes)
	}
	seenAttrs := make(map[string]struct{}, len(req.Attributes))
	for _, attr := range req.Attributes {
		if err := ValidateAttribute(attr); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidBatchRequest, err)
		}
		if _, dup := seenAttrs[attr.Name]; dup {
			return fmt.Errorf("%w: %w: %s", ErrInvalidBatchRequest, ErrDuplicateAttribute, attr.Name)
		}
		seenAttrs[attr.Name] = struct{}{}
	}

	if len(req.FewShots) > MaxFewShots {
		return fmt.Errorf("%w: %w: %d > %d", ErrInvalidBatchRequest, ErrTooManyFewShots, len(req.FewShots), MaxFewShots)
	}
	for i, shot := range req.FewShots {
		if err := ValidateFewShot(shot); err != nil {
			return fmt.Errorf("%w: few shot %d: %w", ErrInvalidBatchRequest, i, err)
		}
	}

	if !req.ParsingMode.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidBatchRequest, ErrInvalidParsingMode, req.ParsingMode)
	}

	return nil
}

// ValidateAttribute checks a single schema entry.
func ValidateAttribute(attr Attribute) error {
	if attr.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAttribute)
	}
	if utf8.RuneCountInString(attr.Name) > MaxAttributeNameChars {
		return fmt.Errorf("%w: name %q longer than %d characters", ErrInvalidAttribute, attr.Name, MaxAttributeNameChars)
	}
	if utf8.RuneCountInString(attr.Description) > MaxAttributeDescription {
		return fmt.Errorf("%w: description of %q longer than %d characters", ErrInvalidAttribute, attr.Name, MaxAttributeDescription)
	}
	return nil
}

// ValidateFewShot checks the size of one worked example.
func ValidateFewShot(shot FewShot) error {
	if n := utf8.RuneCountInString(shot.Input); n > MaxFewShotInputChars {
		return fmt.Errorf("%w: input has %d characters, limit %d", ErrInvalidFewShot, n, MaxFewShotInputChars)
	}
	if n := utf8.RuneCountInString(shot.Output); n > MaxFewShotOutputChars {
		return fmt.Errorf("%w: output has %d characters, limit %d", ErrInvalidFewShot, n, MaxFewShotOutputChars)
	}
	return nil
}
