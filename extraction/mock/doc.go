// Package mock provides test doubles for the extraction interfaces.
//
// Each mock has a Func field for injecting behavior and counts its calls.
// Without an injected function the mocks return deterministic payloads
// derived from the task, so pipelines can run end to end in tests.
// All mocks are safe for concurrent use.
package mock
