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

import "errors"

// Domain validation errors
var (
	// ErrInvalidBatchRequest indicates a BatchRequest failed validation.
	// Every other validation error is wrapped together with it.
	ErrInvalidBatchRequest = errors.New("invalid batch request")

	// ErrNoDocuments indicates the documents list is empty.
	ErrNoDocuments = errors.New("documents cannot be empty")

	// ErrTooManyDocuments indicates the batch exceeds MaxDocuments.
	ErrTooManyDocuments = errors.New("too many documents")

	// ErrEmptyDocumentName indicates a blank file identifier.
	ErrEmptyDocumentName = errors.New("document name cannot be empty")

	// ErrDuplicateDocument indicates the same file identifier appears twice.
	ErrDuplicateDocument = errors.New("duplicate document")

	// ErrNoAttributes indicates the attribute schema is empty.
	ErrNoAttributes = errors.New("attributes cannot be empty")

	// ErrTooManyAttributes indicates the schema exceeds MaxAttributes.
	ErrTooManyAttributes = errors.New("too many attributes")

	// ErrInvalidAttribute indicates an attribute with a bad name or description.
	ErrInvalidAttribute = errors.New("invalid attribute")

	// ErrDuplicateAttribute indicates two attributes share a name.
	ErrDuplicateAttribute = errors.New("duplicate attribute")

	// ErrTooManyFewShots indicates more than MaxFewShots worked examples.
	ErrTooManyFewShots = errors.New("too many few-shot examples")

	// ErrInvalidFewShot indicates a worked example over the size limits.
	ErrInvalidFewShot = errors.New("invalid few-shot example")

	// ErrInvalidParsingMode indicates an unknown parsing mode.
	ErrInvalidParsingMode = errors.New("invalid parsing mode")

	// ErrMalformedRequest indicates a request payload that does not match the request schema.
	ErrMalformedRequest = errors.New("malformed request")
)
