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


package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/tabulate/core"
)

// MarshalProcessedText serializes cached text to bytes.
func MarshalProcessedText(text *core.ProcessedText) ([]byte, error) {
	data, err := json.Marshal(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalProcessedText deserializes cached text from bytes.
func UnmarshalProcessedText(data []byte) (*core.ProcessedText, error) {
	var text core.ProcessedText
	if err := json.Unmarshal(data, &text); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return &text, nil
}

// MarshalBatchRecord serializes a BatchRecord to bytes.
func MarshalBatchRecord(record *core.BatchRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalBatchRecord deserializes a BatchRecord from bytes.
func UnmarshalBatchRecord(data []byte) (*core.BatchRecord, error) {
	var record core.BatchRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return &record, nil
}
