// Command sampledata writes a synthetic scores.json and labels.json pair for
// trying the features, train and predict commands locally.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

type scoreRow struct {
	UserID string  `json:"user_id"`
	Date   string  `json:"date"`
	Score  float64 `json:"score"`
}

type labelRow struct {
	UserID         string `json:"user_id"`
	CloseToBurnout bool   `json:"close_to_burnout"`
}

func main() {
	var (
		outDir    = flag.String("out", "data", "Output directory")
		users     = flag.Int("users", 40, "Number of users to generate")
		days      = flag.Int("days", 60, "Days of history per user")
		burnout   = flag.Float64("burnout-share", 0.3, "Share of users trending towards burnout")
		skipRate  = flag.Float64("skip-rate", 0.15, "Probability that a user skips a day")
		unlabeled = flag.Int("unlabeled", 2, "Users left out of labels.json")
		seed      = flag.Int64("seed", 1, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating sample burnout data...\n")
	fmt.Printf("  Users: %d\n", *users)
	fmt.Printf("  Days: %d\n", *days)
	fmt.Printf("  Output: %s\n", *outDir)

	rng := rand.New(rand.NewSource(*seed))
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -*days)

	var scores []scoreRow
	var labels []labelRow
	positives := 0
	for u := 0; u < *users; u++ {
		id := fmt.Sprintf("user-%03d", u)
		atRisk := rng.Float64() < *burnout
		if atRisk {
			positives++
		}
		scores = append(scores, generateSeries(rng, id, start, *days, *skipRate, atRisk)...)
		if u < *users-*unlabeled {
			labels = append(labels, labelRow{UserID: id, CloseToBurnout: atRisk})
		}
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if err := writeJSON(filepath.Join(*outDir, "scores.json"), scores); err != nil {
		log.Fatalf("Failed to write scores: %v", err)
	}
	if err := writeJSON(filepath.Join(*outDir, "labels.json"), labels); err != nil {
		log.Fatalf("Failed to write labels: %v", err)
	}

	fmt.Printf("  Generated %d score rows and %d labels (%d at risk)\n", len(scores), len(labels), positives)
	fmt.Printf("✓ Wrote %s and %s\n", filepath.Join(*outDir, "scores.json"), filepath.Join(*outDir, "labels.json"))
}

// generateSeries simulates a daily wellbeing score on a 0-100 scale. At-risk
// users drift downwards with growing day-to-day swings over the last weeks.
func generateSeries(rng *rand.Rand, userID string, start time.Time, days int, skipRate float64, atRisk bool) []scoreRow {
	level := 55 + rng.Float64()*25
	drift := 0.05 * rng.NormFloat64()
	noise := 3.0
	if atRisk {
		drift = -0.3 - 0.3*rng.Float64()
	}

	rows := make([]scoreRow, 0, days)
	for d := 0; d < days; d++ {
		if d > 0 && rng.Float64() < skipRate {
			continue
		}
		swing := noise
		if atRisk && d > days*2/3 {
			swing = noise * 2.5
		}
		score := level + drift*float64(d) + swing*rng.NormFloat64()
		score = math.Max(0, math.Min(100, score))

		date := start.AddDate(0, 0, d)
		rows = append(rows, scoreRow{
			UserID: userID,
			Date:   date.Format("2006-01-02"),
			Score:  math.Round(score*10) / 10,
		})
	}
	return rows
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
