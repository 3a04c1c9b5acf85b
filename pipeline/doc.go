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


// Package pipeline runs batches of documents through extraction.
//
// # Per-document pipeline
//
// DocumentPipeline drives one document through an explicit state machine:
//
//	Classifying -> Extracting -> Merging -> Done
//	Extracting -> Retrying -> Extracting    (transient error, budget left)
//	Extracting -> Failed                    (task failure or budget spent)
//
// A failed document produces a DocumentOutcome carrying the error. Failures
// never escape Run, so siblings keep going.
//
// # Orchestrator
//
// Orchestrator fans a batch out over an ants worker pool with at most
// MaxConcurrency documents in flight, waits for every outcome, and then
// calls the attribute extractor once with the successful contexts. The
// attribute step retries with full jitter. When it still fails the batch
// ends in the fixed failure shape built by core.NewFailedResult.
//
// # Retry policies
//
// The two call sites use distinct named policies:
//
//	DocumentExtractionPolicy(unit)   3 retries, delays 1, 2, 4 units, transient errors only
//	AggregateExtractionPolicy(unit)  3 retries, delays in [0,1], [0,2], [0,4] units,
//	                                 transient errors and task failures
package pipeline
