package operator

import (
	"fmt"
	"time"
)

// Stats captures what a single refinement run did. It is diagnostic only.
type Stats struct {
	Operator string `json:"operator"`
	InputKey string `json:"input_key"`

	// Rows is the number of values in the column.
	Rows int `json:"rows"`

	// Modified counts distinct rows whose value changed.
	Modified int `json:"modified"`

	// Nulls counts absent values that were passed through.
	Nulls int `json:"nulls"`

	Duration time.Duration `json:"duration"`
}

// ModifiedPercent returns the share of rows that changed.
func (s *Stats) ModifiedPercent() float64 {
	if s.Rows == 0 {
		return 0
	}
	return float64(s.Modified) / float64(s.Rows) * 100
}

// String returns a one-line summary.
func (s *Stats) String() string {
	return fmt.Sprintf("%s[%s]: %d/%d rows modified (%.1f%%), %d null, %v",
		s.Operator, s.InputKey, s.Modified, s.Rows, s.ModifiedPercent(), s.Nulls,
		s.Duration.Round(time.Millisecond))
}
