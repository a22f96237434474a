package ml

import (
	"math"
	"sort"
)

// FeatureWeight is one feature's coefficient in the fitted model. Inputs are
// standardised, so coefficient magnitudes are comparable across features.
type FeatureWeight struct {
	Name        string  `json:"name"`
	Coefficient float64 `json:"coefficient"`
	Importance  float64 `json:"importance"` // share of total |coefficient|
	Rank        int     `json:"rank"`
}

// Importance ranks the artifact's features by absolute coefficient.
func Importance(a *Artifact) []FeatureWeight {
	if a == nil {
		return nil
	}

	total := 0.0
	for _, c := range a.Classifier.Coef {
		total += math.Abs(c)
	}

	out := make([]FeatureWeight, len(a.Features))
	for i, name := range a.Features {
		c := a.Classifier.Coef[i]
		imp := 0.0
		if total > 0 {
			imp = math.Abs(c) / total
		}
		out[i] = FeatureWeight{Name: name, Coefficient: c, Importance: imp}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Coefficient) > math.Abs(out[j].Coefficient)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
