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


// Package storage provides the storage abstraction layer for tabulate.
//
// Two stores back a batch run:
//
//   - TextCache: extracted document text keyed by "processed/<path>.txt",
//     shared between batches so a document is parsed once
//   - BatchRepository: the history of batch runs with their requests and
//     terminal results
//
// # Backends
//
// The badger subpackage implements both interfaces over an embedded
// BadgerDB. The rediscache subpackage implements TextCache over Redis so
// several workers can share one cache, and s3cache keeps the text and its
// tables as plain objects in a bucket.
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	cache := badger.NewTextCache(backend)
//	batches := badger.NewBatchRepository(backend)
//
// Use in tests with in-memory storage:
//
//	cache, batches, backend, err := badger.NewMemoryStores()
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
