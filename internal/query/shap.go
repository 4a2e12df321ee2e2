package query

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/jonathan/energy-insights/internal/types"
)

// ParseShap decodes a serialized SHAP mapping. Anything that is not a JSON object of
// numbers yields an empty, non-nil map; the error is never surfaced.
func ParseShap(raw *string) map[string]float64 {
	values := map[string]float64{}
	if raw == nil || *raw == "" {
		return values
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(*raw), &decoded); err != nil {
		return values
	}
	for feature, v := range decoded {
		f, ok := v.(float64)
		if !ok {
			return map[string]float64{}
		}
		values[feature] = f
	}
	return values
}

// SortContributions orders attributions by descending absolute value.
// Equal magnitudes are ordered by feature name.
func SortContributions(values map[string]float64) []types.ShapContribution {
	out := make([]types.ShapContribution, 0, len(values))
	for feature, v := range values {
		out = append(out, types.ShapContribution{Feature: feature, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].Value), math.Abs(out[j].Value)
		if ai != aj {
			return ai > aj
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}
