package model

import "sort"

// PreferenceKeys are the known preference categories in tie-break order.
// When two keys score the same, the one listed first wins.
var PreferenceKeys = []string{
	"creativity",
	"analysis",
	"communication",
	"problem_solving",
	"wellbeing",
}

// NewPreferenceVector returns a vector holding every known key at zero.
func NewPreferenceVector() map[string]float64 {
	v := make(map[string]float64, len(PreferenceKeys))
	for _, k := range PreferenceKeys {
		v[k] = 0
	}
	return v
}

// IsKnownPreference reports whether key is one of PreferenceKeys.
func IsKnownPreference(key string) bool {
	return keyRank(key) >= 0
}

func keyRank(key string) int {
	for i, k := range PreferenceKeys {
		if k == key {
			return i
		}
	}
	return -1
}

// KeyLess is the fixed key order: known keys in PreferenceKeys order,
// then unknown keys lexicographically.
func KeyLess(a, b string) bool {
	ra, rb := keyRank(a), keyRank(b)
	switch {
	case ra >= 0 && rb >= 0:
		return ra < rb
	case ra >= 0:
		return true
	case rb >= 0:
		return false
	default:
		return a < b
	}
}

// RankedPreference is a preference key with its accumulated score.
type RankedPreference struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// RankPreferences sorts a preference vector by score descending, ties
// broken by KeyLess. The result does not depend on map iteration order.
func RankPreferences(prefs map[string]float64) []RankedPreference {
	ranked := make([]RankedPreference, 0, len(prefs))
	for k, v := range prefs {
		ranked = append(ranked, RankedPreference{Key: k, Score: v})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return KeyLess(ranked[i].Key, ranked[j].Key)
	})
	return ranked
}
