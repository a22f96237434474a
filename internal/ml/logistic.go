package ml

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Classifier holds fitted linear model parameters over scaled features.
type Classifier struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// Prob returns P(y=1 | x) for an already scaled row.
func (c Classifier) Prob(x []float64) float64 {
	return sigmoid(floats.Dot(c.Coef, x) + c.Intercept)
}

// LogisticRegression fits an L2-regularised binary logistic model. C is the
// inverse regularisation strength; the intercept is not penalised.
type LogisticRegression struct {
	C       float64
	MaxIter int
}

// BalancedWeights returns per-sample weights n / (classes * n_class) so each
// present class contributes equally to the loss.
func BalancedWeights(y []float64) []float64 {
	var pos, neg int
	for _, v := range y {
		if v > 0.5 {
			pos++
		} else {
			neg++
		}
	}
	classes := 0
	if pos > 0 {
		classes++
	}
	if neg > 0 {
		classes++
	}

	n := float64(len(y))
	w := make([]float64, len(y))
	for i, v := range y {
		if v > 0.5 {
			w[i] = n / (float64(classes) * float64(pos))
		} else {
			w[i] = n / (float64(classes) * float64(neg))
		}
	}
	return w
}

// Fit minimises C * sum_i w_i * logloss_i + 0.5 * ||coef||^2 with L-BFGS.
//
// A training set holding a single class produces a constant model whose
// intercept is the smoothed log-odds of that class.
func (lr LogisticRegression) Fit(X mat.Matrix, y, weights []float64) (Classifier, error) {
	n, p := X.Dims()
	if n == 0 {
		return Classifier{}, fmt.Errorf("fit: no training rows")
	}
	if len(y) != n || len(weights) != n {
		return Classifier{}, fmt.Errorf("fit: %d rows but %d labels and %d weights", n, len(y), len(weights))
	}

	pos := floats.Sum(y)
	if pos == 0 || pos == float64(n) {
		prior := (pos + 0.5) / (float64(n) + 1)
		return Classifier{Coef: make([]float64, p), Intercept: math.Log(prior / (1 - prior))}, nil
	}

	c := lr.C
	if c <= 0 {
		c = 1
	}
	maxIter := lr.MaxIter
	if maxIter <= 0 {
		maxIter = 1000
	}

	z := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(n, nil)
	gradCoef := mat.NewVecDense(p, nil)

	linear := func(params []float64) {
		coef := mat.NewVecDense(p, params[:p])
		z.MulVec(X, coef)
		for i := 0; i < n; i++ {
			z.SetVec(i, z.AtVec(i)+params[p])
		}
	}

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			linear(params)
			loss := 0.0
			for i := 0; i < n; i++ {
				zi := z.AtVec(i)
				loss += weights[i] * (softplus(zi) - y[i]*zi)
			}
			coef := params[:p]
			return c*loss + 0.5*floats.Dot(coef, coef)
		},
		Grad: func(grad, params []float64) {
			linear(params)
			sum := 0.0
			for i := 0; i < n; i++ {
				r := weights[i] * (sigmoid(z.AtVec(i)) - y[i])
				resid.SetVec(i, r)
				sum += r
			}
			gradCoef.MulVec(X.T(), resid)
			for j := 0; j < p; j++ {
				grad[j] = c*gradCoef.AtVec(j) + params[j]
			}
			grad[p] = c * sum
		},
	}

	init := make([]float64, p+1)
	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: 1e-6,
	}

	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if result == nil {
		return Classifier{}, fmt.Errorf("fit: %w", err)
	}
	if err != nil {
		// The last iterate is still a usable, if less converged, solution.
		log.Warn().Err(err).Str("status", result.Status.String()).Msg("Logistic regression did not fully converge")
	}

	params := result.X
	for _, v := range params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Classifier{}, fmt.Errorf("fit: non-finite parameters")
		}
	}

	coef := make([]float64, p)
	copy(coef, params[:p])
	return Classifier{Coef: coef, Intercept: params[p]}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus is log(1 + e^z) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}
