// Package scores defines the score and label records consumed by feature
// extraction and training, and the lenient JSON ingestion that produces them.
//
// Rows whose date cannot be parsed or whose score is not numeric are dropped
// during ingestion rather than rejected, so a single bad row never fails a
// whole file. Missing required fields across the entire input are reported as
// common.ErrInputValidation.
package scores

import (
	"math"
	"sort"
	"time"
)

// ScoreRecord is one observed score for one user on one date.
type ScoreRecord struct {
	UserID string    `json:"user_id"`
	Date   time.Time `json:"date"`
	Score  float64   `json:"score"`
}

// Label is the training target for one user.
type Label struct {
	UserID         string `json:"user_id"`
	CloseToBurnout bool   `json:"close_to_burnout"`
}

// Group is the time series of a single user in ingestion order.
type Group struct {
	UserID  string
	Records []ScoreRecord
}

// GroupByUser partitions records by user id. Groups are returned in order of
// first appearance and records keep their insertion order within a group.
func GroupByUser(records []ScoreRecord) []Group {
	index := make(map[string]int)
	var groups []Group

	for _, r := range records {
		i, ok := index[r.UserID]
		if !ok {
			i = len(groups)
			index[r.UserID] = i
			groups = append(groups, Group{UserID: r.UserID})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// Clean returns a copy of series sorted ascending by date with non-finite
// scores removed. The sort is stable so duplicate dates keep their order.
func Clean(series []ScoreRecord) []ScoreRecord {
	out := make([]ScoreRecord, 0, len(series))
	for _, r := range series {
		if r.Date.IsZero() || math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// LabelIndex maps user id to label. Later labels for the same user win.
func LabelIndex(labels []Label) map[string]bool {
	idx := make(map[string]bool, len(labels))
	for _, l := range labels {
		idx[l.UserID] = l.CloseToBurnout
	}
	return idx
}
