// Package features computes the fixed-schema feature vector of a user's score
// history and assembles per-user feature tables.
//
// Extract is the single extraction routine shared by batch training and
// online prediction. It is pure: no state, no I/O.
package features

import (
	"fmt"
	"time"

	"burnout-risk/internal/common"
	"burnout-risk/internal/scores"
)

// dayIndex converts a date into fractional days since the Unix epoch.
func dayIndex(t time.Time) float64 {
	return float64(t.UnixNano()) / nanosPerDay
}

// wholeDays is the number of whole days in d, floored.
func wholeDays(d time.Duration) float64 {
	days := d / (24 * time.Hour)
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return float64(days)
}

// Extract computes the feature vector of one user's series. The series does
// not need to be sorted. It fails with common.ErrEmptySeries when no usable
// rows remain after cleaning.
func Extract(series []scores.ScoreRecord) (Vector, error) {
	rows := scores.Clean(series)
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("extract features: %w", common.ErrEmptySeries)
	}

	score := make([]float64, n)
	x := make([]float64, n)
	for i, r := range rows {
		score[i] = r.Score
		x[i] = dayIndex(r.Date)
	}

	// gaps[i] is the whole-day distance between rows i and i+1.
	gaps := make([]float64, 0, n-1)
	var changePerDay []float64
	for i := 1; i < n; i++ {
		days := wholeDays(rows[i].Date.Sub(rows[i-1].Date))
		gaps = append(gaps, days)
		if days != 0 {
			changePerDay = append(changePerDay, (score[i]-score[i-1])/days)
		}
	}

	last := score[n-1]
	lo, hi := minMax(score)
	f := Vector{
		CountPoints: float64(n),
		SpanDays:    wholeDays(rows[n-1].Date.Sub(rows[0].Date)),
		MeanScore:   mean(score),
		StdScore:    sampleStd(score),
		MinScore:    lo,
		MaxScore:    hi,
		LastScore:   last,
		SlopeAll:    slope(x, score),
		MaxDrawdown: maxDrawdown(score),
	}

	emaKeys := map[int]string{7: LastMinusEMA7, 14: LastMinusEMA14, 28: LastMinusEMA28}
	for _, span := range common.EMASpans {
		e := ema(score, span)
		f[emaKeys[span]] = last - e[n-1]
	}

	slopeKeys := map[int]string{14: Slope14d, 28: Slope28d, 56: Slope56d}
	lastDate := rows[n-1].Date
	for _, days := range common.SlopeWindowsDays {
		f[slopeKeys[days]] = windowSlope(rows, x, score, lastDate.AddDate(0, 0, -days))
	}

	f[Rolling3Std] = popStd(rollingMean(score, common.RollingWindow, common.RollingMinPeriods))
	recent := tail(score, common.RecentTail)
	f[RecentMean3] = mean(recent)
	f[RecentStd3] = sampleStd(recent)

	f[MeanChangePerDay] = mean(changePerDay)
	f[MedianChangePerDay] = median(changePerDay)

	cadenceMean, cadenceCV := cadence(gaps)
	f[CadenceMeanDays] = cadenceMean
	f[CadenceCV] = cadenceCV

	f[Last2Diff] = 0
	if n >= 2 {
		f[Last2Diff] = last - score[n-2]
	}
	f[Last3Diff] = 0
	if n >= 3 {
		f[Last3Diff] = last - score[n-3]
	}

	for _, name := range names {
		f[name] = finite(f[name])
	}
	return f, nil
}

// windowSlope is the slope over rows dated on or after cutoff.
func windowSlope(rows []scores.ScoreRecord, x, score []float64, cutoff time.Time) float64 {
	var wx, wy []float64
	for i, r := range rows {
		if !r.Date.Before(cutoff) {
			wx = append(wx, x[i])
			wy = append(wy, score[i])
		}
	}
	if len(wy) < 2 {
		return 0
	}
	return slope(wx, wy)
}

// cadence returns the mean gap (needs two gaps) and its coefficient of
// variation (needs three gaps and a non-zero mean).
func cadence(gaps []float64) (meanDays, cv float64) {
	if len(gaps) < 2 {
		return 0, 0
	}
	meanDays = mean(gaps)
	if len(gaps) < 3 || meanDays == 0 {
		return meanDays, 0
	}
	return meanDays, sampleStd(gaps) / meanDays
}
