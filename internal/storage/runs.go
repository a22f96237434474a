package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// TrainingRun summarises one execution of the training pipeline, including
// runs that were skipped for lack of class diversity.
type TrainingRun struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	Version     string    `json:"version,omitempty"`
	Rows        int       `json:"rows"`
	Positives   int       `json:"positives"`
	Negatives   int       `json:"negatives"`
	Folds       int       `json:"folds"`
	ScoredFolds int       `json:"scored_folds"`
	ROCAUC      float64   `json:"roc_auc"`
	PRAUC       float64   `json:"pr_auc"`
}

func runKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%020d_%s", ts.UnixNano(), id))
}

// StoreRun stores a training run record.
func (s *Store) StoreRun(run TrainingRun) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))

		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal training run: %w", err)
		}
		return b.Put(runKey(run.Timestamp, run.ID), data)
	})
}

// GetRunsInRange returns runs with start <= timestamp <= end, oldest first.
func (s *Store) GetRunsInRange(start, end time.Time) ([]TrainingRun, error) {
	var runs []TrainingRun

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()

		startKey := []byte(fmt.Sprintf("%020d", start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%020d~", end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			var run TrainingRun
			if err := json.Unmarshal(v, &run); err != nil {
				continue // Skip malformed records
			}
			runs = append(runs, run)
		}
		return nil
	})

	return runs, err
}
