package features

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"burnout-risk/internal/common"
	"burnout-risk/internal/scores"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// MetricsTracker receives feature extraction measurements.
type MetricsTracker interface {
	FeatureErrorsInc()
	FeatureCalcDuration(duration time.Duration)
	FeatureSampleCount(count int)
}

// Row is one user's feature values in Table.Columns order.
type Row struct {
	UserID string
	Values []float64
}

// Table is a per-user feature table.
type Table struct {
	Columns []string
	Rows    []Row
}

// Vector returns row i as a Vector keyed by column name.
func (t *Table) Vector(i int) Vector {
	v := make(Vector, len(t.Columns))
	for j, c := range t.Columns {
		v[c] = t.Rows[i].Values[j]
	}
	return v
}

// Lookup returns the features of userID keyed by column name.
func (t *Table) Lookup(userID string) (Vector, bool) {
	for i, r := range t.Rows {
		if r.UserID == userID {
			return t.Vector(i), true
		}
	}
	return nil, false
}

// BuildOptions tunes BuildTable.
type BuildOptions struct {
	// Workers bounds concurrent extractions. Zero means runtime.NumCPU().
	Workers int
	Metrics MetricsTracker
}

// BuildTable groups records by user and extracts one row per user. Users whose
// series has no usable rows are skipped. Rows are sorted by user id.
func BuildTable(ctx context.Context, records []scores.ScoreRecord, opts BuildOptions) (*Table, error) {
	groups := scores.GroupByUser(records)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*Row, len(groups))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, grp := range groups {
		i, grp := i, grp
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			vec, err := Extract(grp.Records)
			if opts.Metrics != nil {
				opts.Metrics.FeatureCalcDuration(time.Since(start))
				opts.Metrics.FeatureSampleCount(len(grp.Records))
			}
			if err != nil {
				if errors.Is(err, common.ErrEmptySeries) {
					if opts.Metrics != nil {
						opts.Metrics.FeatureErrorsInc()
					}
					log.Warn().Str("user_id", grp.UserID).Msg("Skipping user with no usable score rows")
					return nil
				}
				return fmt.Errorf("extract features for %s: %w", grp.UserID, err)
			}

			results[i] = &Row{UserID: grp.UserID, Values: vec.Values()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := &Table{Columns: Names()}
	for _, r := range results {
		if r != nil {
			table.Rows = append(table.Rows, *r)
		}
	}
	sort.Slice(table.Rows, func(i, j int) bool {
		return table.Rows[i].UserID < table.Rows[j].UserID
	})

	log.Debug().Int("users", len(groups)).Int("rows", len(table.Rows)).Msg("Built feature table")
	return table, nil
}
