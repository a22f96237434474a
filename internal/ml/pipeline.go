package ml

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"burnout-risk/internal/common"
	"burnout-risk/internal/features"
	"burnout-risk/internal/scores"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Status is the outcome of a training run.
type Status string

const (
	StatusTrained Status = "trained"
	StatusSkipped Status = "skipped"
)

// ReasonInsufficientClasses is reported when the joined labels hold fewer
// than two classes.
const ReasonInsufficientClasses = "insufficient class diversity"

// TrainingMetrics receives training measurements.
type TrainingMetrics interface {
	TrainingRunsInc(status string)
	TrainingDurationObserve(seconds float64)
	CVScoresSet(rocAUC, prAUC float64, defined bool)
}

// TrainOptions configures Train. Zero values take defaults.
type TrainOptions struct {
	MaxFolds int
	MaxIter  int
	C        float64
	Workers  int
	Metrics  TrainingMetrics
}

// TrainResult describes a training run. Artifact is nil unless Status is
// StatusTrained.
type TrainResult struct {
	ID        string
	Status    Status
	Reason    string
	Artifact  *Artifact
	Metrics   Metrics
	Rows      int
	Positives int
	Negatives int
	// Users present on only one side of the feature/label join.
	UnlabeledUsers   int
	FeaturelessUsers int
	StartedAt        time.Time
	Duration         time.Duration
}

func (o TrainOptions) withDefaults() TrainOptions {
	if o.MaxFolds <= 0 {
		o.MaxFolds = common.DefaultMaxFolds
	}
	if o.MaxIter <= 0 {
		o.MaxIter = common.DefaultMaxIter
	}
	if o.C <= 0 {
		o.C = common.DefaultL2C
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

type dataset struct {
	users []string
	x     *mat.Dense
	y     []float64
}

// join inner-joins the feature table with labels on user id, in table order.
func join(table *features.Table, labels []scores.Label) (dataset, int, int) {
	idx := scores.LabelIndex(labels)
	var ds dataset
	var data []float64
	matched := make(map[string]struct{})

	for _, row := range table.Rows {
		label, ok := idx[row.UserID]
		if !ok {
			continue
		}
		matched[row.UserID] = struct{}{}
		ds.users = append(ds.users, row.UserID)
		data = append(data, row.Values...)
		if label {
			ds.y = append(ds.y, 1)
		} else {
			ds.y = append(ds.y, 0)
		}
	}
	if len(ds.users) > 0 {
		ds.x = mat.NewDense(len(ds.users), len(table.Columns), data)
	}
	return ds, len(table.Rows) - len(matched), len(idx) - len(matched)
}

// Train fits the burnout classifier with grouped cross-validation and a final
// fit on every joined row. A label set with fewer than two classes is not an
// error: the result has StatusSkipped and no artifact.
func Train(ctx context.Context, table *features.Table, labels []scores.Label, opts TrainOptions) (*TrainResult, error) {
	if table == nil || len(table.Columns) == 0 {
		return nil, fmt.Errorf("train: empty feature table: %w", common.ErrInputValidation)
	}
	opts = opts.withDefaults()

	res := &TrainResult{ID: uuid.NewString(), StartedAt: time.Now().UTC()}
	defer func() {
		res.Duration = time.Since(res.StartedAt)
		if opts.Metrics != nil && res.Status != "" {
			opts.Metrics.TrainingRunsInc(string(res.Status))
			opts.Metrics.TrainingDurationObserve(res.Duration.Seconds())
		}
	}()

	ds, unlabeled, featureless := join(table, labels)
	res.Rows = len(ds.users)
	res.UnlabeledUsers = unlabeled
	res.FeaturelessUsers = featureless
	for _, v := range ds.y {
		if v > 0.5 {
			res.Positives++
		} else {
			res.Negatives++
		}
	}

	log.Info().
		Int("rows", res.Rows).
		Int("positives", res.Positives).
		Int("negatives", res.Negatives).
		Int("unlabeled_users", unlabeled).
		Int("featureless_users", featureless).
		Msg("Joined features with labels")

	if res.Positives == 0 || res.Negatives == 0 {
		res.Status = StatusSkipped
		res.Reason = ReasonInsufficientClasses
		log.Warn().Int("rows", res.Rows).Msg("Skipping training: labels need at least two classes")
		return res, nil
	}

	lr := LogisticRegression{C: opts.C, MaxIter: opts.MaxIter}

	k := FoldCount(ds.users, opts.MaxFolds)
	folds, err := GroupKFold(ds.users, k)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	m, err := crossValidate(ctx, ds, folds, lr, opts.Workers)
	if err != nil {
		return nil, err
	}
	res.Metrics = m

	scaler := FitScaler(ds.x)
	scaled, err := scaler.Transform(ds.x)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	clf, err := lr.Fit(scaled, ds.y, BalancedWeights(ds.y))
	if err != nil {
		return nil, fmt.Errorf("train final model: %w", err)
	}

	res.Artifact = &Artifact{
		Version:      uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Features:     append([]string(nil), table.Columns...),
		Scaler:       scaler,
		Classifier:   clf,
		Metrics:      m,
		TrainingRows: res.Rows,
		Positives:    res.Positives,
		Negatives:    res.Negatives,
	}
	if err := res.Artifact.Validate(); err != nil {
		return nil, fmt.Errorf("train produced invalid artifact: %w", err)
	}
	res.Status = StatusTrained

	if opts.Metrics != nil {
		opts.Metrics.CVScoresSet(m.ROCAUC, m.PRAUC, m.Defined)
	}

	ev := log.Info().
		Str("version", res.Artifact.Version).
		Int("folds", m.Folds).
		Int("scored_folds", m.ScoredFolds)
	if m.Defined {
		ev = ev.Float64("roc_auc", m.ROCAUC).Float64("pr_auc", m.PRAUC)
	}
	ev.Msg("Training complete")

	return res, nil
}

// crossValidate evaluates lr on every fold in parallel. The scaler is fit on
// each training partition only.
func crossValidate(ctx context.Context, ds dataset, folds []Fold, lr LogisticRegression, workers int) (Metrics, error) {
	scoresOut := make([]FoldScore, len(folds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, fold := range folds {
		i, fold := i, fold
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fs, err := evaluateFold(ds, fold, lr)
			if err != nil {
				return fmt.Errorf("fold %d: %w", i, err)
			}
			fs.Fold = i
			scoresOut[i] = fs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Metrics{}, err
	}

	m := Metrics{Folds: len(folds), FoldScores: scoresOut}
	var rocSum, prSum float64
	for _, fs := range scoresOut {
		if !fs.Scored {
			continue
		}
		m.ScoredFolds++
		rocSum += fs.ROCAUC
		prSum += fs.PRAUC
	}
	if m.ScoredFolds > 0 {
		m.Defined = true
		m.ROCAUC = rocSum / float64(m.ScoredFolds)
		m.PRAUC = prSum / float64(m.ScoredFolds)
	}
	return m, nil
}

// fitFold fits the scaler and classifier on the fold's training rows. No
// validation row reaches either fit.
func fitFold(ds dataset, fold Fold, lr LogisticRegression) (Scaler, Classifier, error) {
	xTrain, yTrain := subset(ds, fold.Train)

	scaler := FitScaler(xTrain)
	sTrain, err := scaler.Transform(xTrain)
	if err != nil {
		return Scaler{}, Classifier{}, err
	}
	clf, err := lr.Fit(sTrain, yTrain, BalancedWeights(yTrain))
	if err != nil {
		return Scaler{}, Classifier{}, err
	}
	return scaler, clf, nil
}

func evaluateFold(ds dataset, fold Fold, lr LogisticRegression) (FoldScore, error) {
	fs := FoldScore{TrainRows: len(fold.Train), ValidationRows: len(fold.Validation)}

	scaler, clf, err := fitFold(ds, fold, lr)
	if err != nil {
		return fs, err
	}

	xVal, yVal := subset(ds, fold.Validation)
	sVal, err := scaler.Transform(xVal)
	if err != nil {
		return fs, err
	}
	probs := make([]float64, len(yVal))
	for i := range probs {
		probs[i] = clf.Prob(sVal.RawRowView(i))
	}

	roc := ROCAUC(yVal, probs)
	pr := AveragePrecision(yVal, probs)
	if math.IsNaN(roc) || math.IsNaN(pr) {
		return fs, nil
	}
	fs.Scored = true
	fs.ROCAUC = roc
	fs.PRAUC = pr
	return fs, nil
}

func subset(ds dataset, rows []int) (*mat.Dense, []float64) {
	_, c := ds.x.Dims()
	x := mat.NewDense(len(rows), c, nil)
	y := make([]float64, len(rows))
	for i, r := range rows {
		x.SetRow(i, ds.x.RawRowView(r))
		y[i] = ds.y[r]
	}
	return x, y
}
