package security

import (
	"fmt"
	"math"

	"github.com/rcliao/learning-beast/internal/model"
)

const (
	DefaultConfidence = 0.7
	MinMultiplier     = 0.5
	MaxMultiplier     = 1.5
)

// RewardMultiplier turns an optional self-reported confidence into the
// reward multiplier: nil means DefaultConfidence, and the result is clamped
// to [MinMultiplier, MaxMultiplier].
func RewardMultiplier(confidence *float64) (float64, error) {
	c := DefaultConfidence
	if confidence != nil {
		c = *confidence
	}
	if math.IsNaN(c) {
		return 0, fmt.Errorf("confidence is NaN: %w", model.ErrInvalidInput)
	}
	return math.Max(MinMultiplier, math.Min(MaxMultiplier, c)), nil
}

// CheckWeight reports an error when w is not a finite number in [-1, 1].
func CheckWeight(key string, w float64) error {
	if math.IsNaN(w) || w < -1 || w > 1 {
		return fmt.Errorf("weight %q=%v outside [-1,1]: %w", key, w, model.ErrInvalidInput)
	}
	return nil
}
