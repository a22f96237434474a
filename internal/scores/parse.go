package scores

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"burnout-risk/internal/common"

	"github.com/rs/zerolog/log"
)

// dateLayouts are tried in order when parsing a date string.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006/01/02",
}

// RawPoint is a single {date, score} element of a prediction request.
type RawPoint struct {
	Date  json.RawMessage `json:"date"`
	Score json.RawMessage `json:"score"`
}

// ParseDate parses an ISO date or date-time string. Results are in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ParseScore coerces a JSON number or numeric string to a finite float.
func ParseScore(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseRawDate(raw json.RawMessage) (time.Time, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseRawString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	// Numeric ids are accepted verbatim.
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// LoadScores reads a JSON array of {user_id?, date, score} objects.
//
// If no row carries user_id, every row is assigned defaultUserID; with no
// default that is an input validation error. Rows with an unparseable date or
// non-numeric score are dropped.
func LoadScores(r io.Reader, defaultUserID string) ([]ScoreRecord, error) {
	var rows []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: scores must be a JSON array of objects: %v", common.ErrInputValidation, err)
	}

	hasDate, hasScore, hasUser := false, false, false
	for _, row := range rows {
		_, d := row["date"]
		_, s := row["score"]
		_, u := row["user_id"]
		hasDate = hasDate || d
		hasScore = hasScore || s
		hasUser = hasUser || u
	}

	var missing []string
	if !hasDate {
		missing = append(missing, "date")
	}
	if !hasScore {
		missing = append(missing, "score")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: scores JSON missing required fields: %v", common.ErrInputValidation, missing)
	}
	if !hasUser && defaultUserID == "" {
		return nil, fmt.Errorf("%w: scores JSON is missing user_id; provide a default user id for single-user files", common.ErrInputValidation)
	}

	records := make([]ScoreRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		userID := defaultUserID
		if hasUser {
			id, ok := parseRawString(row["user_id"])
			if !ok {
				dropped++
				continue
			}
			userID = id
		}

		date, ok := parseRawDate(row["date"])
		if !ok {
			dropped++
			continue
		}
		score, ok := ParseScore(row["score"])
		if !ok {
			dropped++
			continue
		}
		records = append(records, ScoreRecord{UserID: userID, Date: date, Score: score})
	}

	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Int("kept", len(records)).Msg("Dropped unparseable score rows")
	}
	return records, nil
}

// ParseSeries converts the points of a prediction request into records for
// userID. Unusable points are dropped; an input with no date or no score field
// at all is an input validation error.
func ParseSeries(userID string, points []RawPoint) ([]ScoreRecord, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("series is empty: %w", common.ErrEmptySeries)
	}

	hasDate, hasScore := false, false
	for _, p := range points {
		hasDate = hasDate || len(p.Date) > 0
		hasScore = hasScore || len(p.Score) > 0
	}
	if !hasDate || !hasScore {
		return nil, fmt.Errorf("%w: each record must include 'date' and 'score'", common.ErrInputValidation)
	}

	records := make([]ScoreRecord, 0, len(points))
	for _, p := range points {
		date, ok := parseRawDate(p.Date)
		if !ok {
			continue
		}
		score, ok := ParseScore(p.Score)
		if !ok {
			continue
		}
		records = append(records, ScoreRecord{UserID: userID, Date: date, Score: score})
	}
	return records, nil
}

// LoadLabels reads a JSON array of {user_id, close_to_burnout} objects.
// Booleans, 0/1 numbers and "true"/"false" strings are accepted.
func LoadLabels(r io.Reader) ([]Label, error) {
	var rows []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: labels must be a JSON array of objects: %v", common.ErrInputValidation, err)
	}

	labels := make([]Label, 0, len(rows))
	for i, row := range rows {
		rawID, okID := row["user_id"]
		rawLabel, okLabel := row["close_to_burnout"]
		if !okID || !okLabel {
			return nil, fmt.Errorf("%w: labels row %d must have user_id and close_to_burnout", common.ErrInputValidation, i)
		}

		id, ok := parseRawString(rawID)
		if !ok {
			return nil, fmt.Errorf("%w: labels row %d has invalid user_id", common.ErrInputValidation, i)
		}
		v, err := parseBool(rawLabel)
		if err != nil {
			return nil, fmt.Errorf("%w: labels row %d: %v", common.ErrInputValidation, i, err)
		}
		labels = append(labels, Label{UserID: id, CloseToBurnout: v})
	}
	return labels, nil
}

func parseBool(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f != 0, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return v, nil
		}
	}
	return false, fmt.Errorf("close_to_burnout %s is not a boolean", string(raw))
}
