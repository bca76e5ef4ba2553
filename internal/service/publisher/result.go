package publisher

import (
	"fmt"
)

// AggregateResult is the combined view of one publish call: overall success
// flag, outcomes partitioned by platform in input order, and one
// human-readable line per failed destination.
type AggregateResult struct {
	Success  bool                   `json:"success"`
	Outcomes map[Platform][]Outcome `json:"outcomes_by_platform"`
	Errors   []string               `json:"errors"`
}

// NewAggregateResult returns an empty result. A publish with zero
// destinations is considered successful.
func NewAggregateResult() *AggregateResult {
	return &AggregateResult{
		Success:  true,
		Outcomes: make(map[Platform][]Outcome),
		Errors:   []string{},
	}
}

// Add appends one outcome to its platform partition, preserving the order
// outcomes were added in, and folds it into the overall success flag.
func (r *AggregateResult) Add(o Outcome) {
	r.Outcomes[o.Platform] = append(r.Outcomes[o.Platform], o)
	if !o.Success {
		r.Success = false
		r.Errors = append(r.Errors, fmt.Sprintf("%s %s: %s", o.Platform, o.DestinationID, o.Error))
	}
}

// Count returns the total number of recorded outcomes across platforms.
func (r *AggregateResult) Count() int {
	n := 0
	for _, outcomes := range r.Outcomes {
		n += len(outcomes)
	}
	return n
}
