package session

import (
	"github.com/rcliao/learning-beast/internal/model"
	"github.com/rcliao/learning-beast/internal/security"
)

// ApplyWeights adds each weight to the profile's preference for that key.
// Keys outside the known set are merged in; keys absent from weights are
// left alone. Every weight is checked first, so on error nothing changes.
func ApplyWeights(profile *model.LearnerProfile, weights map[string]float64) error {
	for k, w := range weights {
		if err := security.CheckWeight(k, w); err != nil {
			return err
		}
	}
	if profile.Preferences == nil {
		profile.Preferences = model.NewPreferenceVector()
	}
	for k, w := range weights {
		profile.Preferences[k] += w
	}
	return nil
}
