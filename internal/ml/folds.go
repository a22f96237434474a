package ml

import (
	"fmt"
	"sort"
)

// Fold holds row indices for one cross-validation split.
type Fold struct {
	Train      []int `json:"train"`
	Validation []int `json:"validation"`
}

// FoldCount returns min(maxFolds, distinct groups).
func FoldCount(groups []string, maxFolds int) int {
	seen := make(map[string]struct{})
	for _, g := range groups {
		seen[g] = struct{}{}
	}
	if len(seen) < maxFolds {
		return len(seen)
	}
	return maxFolds
}

// GroupKFold splits rows into k folds such that every row of a group lands in
// the same validation fold. Groups are placed largest first into the fold
// with the fewest rows so far; ties go to the lowest fold index and groups of
// equal size keep first-appearance order, which makes the split
// deterministic. It requires 2 <= k <= distinct groups.
func GroupKFold(groups []string, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("group k-fold needs at least 2 folds, got %d", k)
	}

	var order []string
	rows := make(map[string][]int)
	for i, g := range groups {
		if _, ok := rows[g]; !ok {
			order = append(order, g)
		}
		rows[g] = append(rows[g], i)
	}
	if len(order) < k {
		return nil, fmt.Errorf("cannot split %d groups into %d folds", len(order), k)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return len(rows[order[i]]) > len(rows[order[j]])
	})

	load := make([]int, k)
	assign := make(map[string]int, len(order))
	for _, g := range order {
		best := 0
		for f := 1; f < k; f++ {
			if load[f] < load[best] {
				best = f
			}
		}
		assign[g] = best
		load[best] += len(rows[g])
	}

	folds := make([]Fold, k)
	for i, g := range groups {
		f := assign[g]
		for j := range folds {
			if j == f {
				folds[j].Validation = append(folds[j].Validation, i)
			} else {
				folds[j].Train = append(folds[j].Train, i)
			}
		}
	}
	return folds, nil
}
