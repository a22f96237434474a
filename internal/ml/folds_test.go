package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldCount(t *testing.T) {
	assert.Equal(t, 2, FoldCount([]string{"a", "b", "a"}, 5))
	assert.Equal(t, 5, FoldCount([]string{"a", "b", "c", "d", "e", "f", "g"}, 5))
}

func TestGroupKFold(t *testing.T) {
	groups := []string{"a", "a", "a", "b", "c", "c", "d", "e"}

	folds, err := GroupKFold(groups, 3)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	seen := make(map[int]int)
	for _, f := range folds {
		assert.NotEmpty(t, f.Validation)
		assert.Len(t, f.Train, len(groups)-len(f.Validation))

		valGroups := make(map[string]bool)
		for _, i := range f.Validation {
			valGroups[groups[i]] = true
			seen[i]++
		}
		for _, i := range f.Train {
			assert.False(t, valGroups[groups[i]], "group %s in both partitions", groups[i])
		}
	}
	for i := range groups {
		assert.Equal(t, 1, seen[i], "row %d validated %d times", i, seen[i])
	}

	// Largest group first: "a" (3 rows) to fold 0, "c" (2) to fold 1, then
	// b, d, e fill the lightest folds.
	assert.Equal(t, []int{0, 1, 2}, folds[0].Validation)
	assert.Equal(t, []int{4, 5, 7}, folds[1].Validation)
	assert.Equal(t, []int{3, 6}, folds[2].Validation)

	again, err := GroupKFold(groups, 3)
	require.NoError(t, err)
	assert.Equal(t, folds, again)
}

func TestGroupKFold_Errors(t *testing.T) {
	_, err := GroupKFold([]string{"a", "b"}, 1)
	assert.Error(t, err)

	_, err = GroupKFold([]string{"a", "a", "b"}, 3)
	assert.Error(t, err)
}
