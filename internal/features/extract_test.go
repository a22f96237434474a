package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"burnout-risk/internal/common"
	"burnout-risk/internal/scores"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func series(points ...any) []scores.ScoreRecord {
	var out []scores.ScoreRecord
	for i := 0; i < len(points); i += 2 {
		out = append(out, scores.ScoreRecord{
			UserID: "u1",
			Date:   date(points[i].(string)),
			Score:  float64(points[i+1].(int)),
		})
	}
	return out
}

func daily(start string, values ...float64) []scores.ScoreRecord {
	d := date(start)
	out := make([]scores.ScoreRecord, len(values))
	for i, v := range values {
		out[i] = scores.ScoreRecord{UserID: "u1", Date: d.AddDate(0, 0, i), Score: v}
	}
	return out
}

func assertSchema(t *testing.T, v Vector) {
	t.Helper()
	require.Len(t, v, len(Names()))
	for _, n := range Names() {
		val, ok := v[n]
		require.True(t, ok, "missing %s", n)
		assert.False(t, math.IsNaN(val) || math.IsInf(val, 0), "%s not finite", n)
	}
}

func TestExtract_Scenario(t *testing.T) {
	v, err := Extract(series("2025-01-05", 82, "2025-01-12", 78, "2025-01-20", 74))
	require.NoError(t, err)
	assertSchema(t, v)

	assert.Less(t, v[SlopeAll], 0.0)
	assert.Equal(t, 74.0, v[LastScore])
	assert.Equal(t, 3.0, v[CountPoints])
	assert.Equal(t, 15.0, v[SpanDays])
	assert.Equal(t, 78.0, v[MeanScore])
	assert.InDelta(t, 4.0, v[StdScore], 1e-12)
	assert.Equal(t, 74.0, v[MinScore])
	assert.Equal(t, 82.0, v[MaxScore])
	assert.Equal(t, -8.0, v[MaxDrawdown])
	assert.Equal(t, -4.0, v[Last2Diff])
	assert.Equal(t, -8.0, v[Last3Diff])
	assert.Equal(t, 7.5, v[CadenceMeanDays])
	// only two gaps
	assert.Equal(t, 0.0, v[CadenceCV])
	assert.Equal(t, 78.0, v[RecentMean3])
	assert.InDelta(t, 4.0, v[RecentStd3], 1e-12)

	// change per day: -4/7 and -4/8
	assert.InDelta(t, (-4.0/7-4.0/8)/2, v[MeanChangePerDay], 1e-12)
	assert.InDelta(t, (-4.0/7-4.0/8)/2, v[MedianChangePerDay], 1e-12)

	// 14-day window from 2025-01-06 holds the last two points
	assert.InDelta(t, -0.5, v[Slope14d], 1e-9)
	assert.Less(t, v[Slope28d], 0.0)
	assert.InDelta(t, v[SlopeAll], v[Slope28d], 1e-12)
}

func TestExtract_SlopeSign(t *testing.T) {
	up, err := Extract(daily("2025-01-01", 1, 2, 4, 7, 11))
	require.NoError(t, err)
	assert.Greater(t, up[SlopeAll], 0.0)

	down, err := Extract(daily("2025-01-01", 90, 80, 75, 60))
	require.NoError(t, err)
	assert.Less(t, down[SlopeAll], 0.0)

	flat, err := Extract(daily("2025-01-01", 50, 50, 50, 50))
	require.NoError(t, err)
	assert.Equal(t, 0.0, flat[SlopeAll])
	assert.Equal(t, 0.0, flat[Slope14d])
}

func TestExtract_SinglePoint(t *testing.T) {
	v, err := Extract(series("2025-01-05", 82))
	require.NoError(t, err)
	assertSchema(t, v)

	assert.Equal(t, 1.0, v[CountPoints])
	assert.Equal(t, 82.0, v[LastScore])
	assert.Equal(t, 82.0, v[RecentMean3])
	for _, n := range []string{
		SpanDays, StdScore, SlopeAll, Slope14d, Slope28d, Slope56d,
		Rolling3Std, RecentStd3, MeanChangePerDay, MedianChangePerDay,
		MaxDrawdown, CadenceMeanDays, CadenceCV, Last2Diff, Last3Diff,
		LastMinusEMA7, LastMinusEMA14, LastMinusEMA28,
	} {
		assert.Equal(t, 0.0, v[n], n)
	}
}

func TestExtract_Empty(t *testing.T) {
	_, err := Extract(nil)
	assert.True(t, errors.Is(err, common.ErrEmptySeries))

	bad := []scores.ScoreRecord{{UserID: "u1", Date: date("2025-01-01"), Score: math.NaN()}}
	v, err := Extract(bad)
	assert.True(t, errors.Is(err, common.ErrEmptySeries))
	assert.Nil(t, v)
}

func TestExtract_UnsortedInputMatchesSorted(t *testing.T) {
	sorted := series("2025-01-05", 82, "2025-01-12", 78, "2025-01-20", 74)
	shuffled := []scores.ScoreRecord{sorted[2], sorted[0], sorted[1]}

	a, err := Extract(sorted)
	require.NoError(t, err)
	b, err := Extract(shuffled)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtract_DrawdownNeverPositive(t *testing.T) {
	cases := [][]float64{
		{1, 2, 3, 4},
		{4, 3, 2, 1},
		{5, 9, 2, 8, 1, 10},
		{3, 3, 3},
	}
	for _, c := range cases {
		v, err := Extract(daily("2025-02-01", c...))
		require.NoError(t, err)
		assert.LessOrEqual(t, v[MaxDrawdown], 0.0)
	}

	v, err := Extract(daily("2025-02-01", 1, 2, 2, 5))
	require.NoError(t, err)
	assert.Equal(t, 0.0, v[MaxDrawdown])

	v, err = Extract(daily("2025-02-01", 5, 9, 2, 8, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, -8.0, v[MaxDrawdown])
}

func TestExtract_DuplicateDates(t *testing.T) {
	v, err := Extract(series("2025-01-05", 80, "2025-01-05", 70, "2025-01-10", 60, "2025-01-20", 50))
	require.NoError(t, err)
	assertSchema(t, v)

	// the zero-day gap is excluded from change-per-day but counted in cadence
	assert.InDelta(t, (-10.0/5-10.0/10)/2, v[MeanChangePerDay], 1e-12)
	assert.InDelta(t, 5.0, v[CadenceMeanDays], 1e-12)
	assert.InDelta(t, 1.0, v[CadenceCV], 1e-12)
}

func TestExtract_CadenceNeedsThreeGaps(t *testing.T) {
	v, err := Extract(series("2025-01-01", 1, "2025-01-02", 2))
	require.NoError(t, err)
	assert.Equal(t, 0.0, v[CadenceMeanDays])
	assert.Equal(t, 0.0, v[CadenceCV])

	v, err = Extract(series("2025-01-01", 1, "2025-01-02", 2, "2025-01-10", 3))
	require.NoError(t, err)
	assert.Equal(t, 4.5, v[CadenceMeanDays])
	assert.Equal(t, 0.0, v[CadenceCV])

	v, err = Extract(series("2025-01-01", 1, "2025-01-02", 2, "2025-01-10", 3, "2025-01-11", 4))
	require.NoError(t, err)
	assert.Greater(t, v[CadenceCV], 0.0)
}

func TestExtract_EMA(t *testing.T) {
	v, err := Extract(daily("2025-03-01", 10, 20))
	require.NoError(t, err)

	// alpha = 2/8, ema = 0.25*20 + 0.75*10 = 12.5
	assert.InDelta(t, 7.5, v[LastMinusEMA7], 1e-12)
	// alpha = 2/15
	assert.InDelta(t, 20-(2.0/15*20+13.0/15*10), v[LastMinusEMA14], 1e-12)
	assert.InDelta(t, 20-(2.0/29*20+27.0/29*10), v[LastMinusEMA28], 1e-12)
}

func TestExtract_Rolling3Std(t *testing.T) {
	v, err := Extract(daily("2025-03-01", 1, 3, 5, 7))
	require.NoError(t, err)

	// rolling means: 2, 3, 5 -> population std
	m := (2.0 + 3 + 5) / 3
	want := math.Sqrt(((2-m)*(2-m) + (3-m)*(3-m) + (5-m)*(5-m)) / 3)
	assert.InDelta(t, want, v[Rolling3Std], 1e-12)

	v, err = Extract(daily("2025-03-01", 1, 3))
	require.NoError(t, err)
	assert.Equal(t, 0.0, v[Rolling3Std])
}

func TestExtract_WindowSlopeIgnoresOldPoints(t *testing.T) {
	recs := []scores.ScoreRecord{
		{Date: date("2024-06-01"), Score: 10},
		{Date: date("2025-01-01"), Score: 90},
		{Date: date("2025-01-08"), Score: 80},
	}
	v, err := Extract(recs)
	require.NoError(t, err)

	assert.Greater(t, v[SlopeAll], 0.0)
	assert.InDelta(t, -10.0/7, v[Slope14d], 1e-9)
	assert.InDelta(t, -10.0/7, v[Slope56d], 1e-9)
}

func TestVector_Values(t *testing.T) {
	v, err := Extract(daily("2025-03-01", 1, 2, 3))
	require.NoError(t, err)

	vals := v.Values()
	require.Len(t, vals, len(Names()))
	for i, n := range Names() {
		assert.Equal(t, v[n], vals[i])
	}
}

func TestWholeDays(t *testing.T) {
	assert.Equal(t, 0.0, wholeDays(23*time.Hour))
	assert.Equal(t, 1.0, wholeDays(36*time.Hour))
	assert.Equal(t, -1.0, wholeDays(-2*time.Hour))
}
