package pipeline

import (
	"time"

	"github.com/poiesic/tabulate/extraction"
	"github.com/poiesic/tabulate/retry"
)

// DefaultTimeUnit is the base retry delay.
const DefaultTimeUnit = time.Second

const (
	documentPolicyName  = "document-extraction"
	aggregatePolicyName = "aggregate-extraction"
)

// DocumentExtractionPolicy is the retry policy of a single document's
// extraction call: 3 retries after the first call, waiting 1, 2 and 4
// units, for transient errors only.
func DocumentExtractionPolicy(unit time.Duration) retry.Policy {
	return retry.Policy{
		Name:       documentPolicyName,
		MaxRetries: 3,
		BaseDelay:  unit,
		Factor:     2,
		Jitter:     retry.NoJitter,
		Retryable:  extraction.IsTransient,
	}
}

// AggregateExtractionPolicy is the retry policy of the batch-level
// attribute extraction: the same backoff with full jitter, retrying task
// failures as well as transient errors.
func AggregateExtractionPolicy(unit time.Duration) retry.Policy {
	return retry.Policy{
		Name:       aggregatePolicyName,
		MaxRetries: 3,
		BaseDelay:  unit,
		Factor:     2,
		Jitter:     retry.FullJitter,
		Retryable: func(err error) bool {
			return extraction.IsTransient(err) || extraction.IsTaskFailure(err)
		},
	}
}
