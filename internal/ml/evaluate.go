package ml

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

func bothClasses(y []float64) bool {
	var pos, neg bool
	for _, v := range y {
		if v > 0.5 {
			pos = true
		} else {
			neg = true
		}
	}
	return pos && neg
}

// ROCAUC is the area under the ROC curve of scores against binary labels.
// It is NaN when labels hold a single class.
func ROCAUC(y, scores []float64) float64 {
	if len(y) != len(scores) || !bothClasses(y) {
		return math.NaN()
	}

	s := make([]float64, len(scores))
	copy(s, scores)
	classes := make([]bool, len(y))
	for i, v := range y {
		classes[i] = v > 0.5
	}
	stat.SortWeightedLabeled(s, classes, nil)

	tpr, fpr, _ := stat.ROC(nil, s, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// AveragePrecision summarises the precision-recall curve as the
// recall-weighted mean of precision at each distinct score threshold.
// It is NaN when labels hold a single class.
func AveragePrecision(y, scores []float64) float64 {
	if len(y) != len(scores) || !bothClasses(y) {
		return math.NaN()
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	var positives float64
	for _, v := range y {
		if v > 0.5 {
			positives++
		}
	}

	var tp, fp, prevRecall, ap float64
	for i := 0; i < len(idx); i++ {
		if y[idx[i]] > 0.5 {
			tp++
		} else {
			fp++
		}
		// Evaluate only at the last row of a run of tied scores.
		if i+1 < len(idx) && scores[idx[i+1]] == scores[idx[i]] {
			continue
		}
		recall := tp / positives
		precision := tp / (tp + fp)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
	}
	return ap
}
