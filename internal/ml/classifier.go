package ml

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/optimize"
)

// LinearModel is a fitted binary classifier: positive when W·x + B > 0.
// A label seen with a single class during training is stored with nil W and
// B = +1 or -1, which predicts that class for every input.
type LinearModel struct {
	W []float64 `json:"w,omitempty"`
	B float64   `json:"b"`
}

// Predict returns 1 or 0 for x.
func (m LinearModel) Predict(x SparseVec) int {
	score := m.B
	if m.W != nil {
		score += x.Dot(m.W)
	}
	if score > 0 {
		return 1
	}
	return 0
}

func constantModel(y []int) (LinearModel, bool) {
	first := y[0]
	for _, v := range y[1:] {
		if v != first {
			return LinearModel{}, false
		}
	}
	if first != 0 {
		return LinearModel{B: 1}, true
	}
	return LinearModel{B: -1}, true
}

// Trainer fits one binary classifier on vectorized rows.
type Trainer interface {
	Fit(x []SparseVec, y []int, dim int) (LinearModel, error)
}

// balancedWeights returns per-class sample weights n / (2 * n_class).
func balancedWeights(y []int) (neg, pos float64) {
	var np int
	for _, v := range y {
		if v != 0 {
			np++
		}
	}
	n := float64(len(y))
	return n / (2 * float64(len(y)-np)), n / (2 * float64(np))
}

func signs(y []int) []float64 {
	s := make([]float64, len(y))
	for i, v := range y {
		if v != 0 {
			s[i] = 1
		} else {
			s[i] = -1
		}
	}
	return s
}

// LogisticRegression is L2-regularized logistic regression minimised with L-BFGS.
// The intercept is regularized along with the weights.
type LogisticRegression struct {
	C        float64 `json:"c"`
	MaxIter  int     `json:"max_iter"`
	Balanced bool    `json:"balanced"`
}

// Fit implements Trainer.
func (lr LogisticRegression) Fit(x []SparseVec, y []int, dim int) (LinearModel, error) {
	if m, ok := constantModel(y); ok {
		return m, nil
	}

	ys := signs(y)
	cw := make([]float64, len(y))
	wNeg, wPos := 1.0, 1.0
	if lr.Balanced {
		wNeg, wPos = balancedWeights(y)
	}
	for i, s := range ys {
		if s > 0 {
			cw[i] = lr.C * wPos
		} else {
			cw[i] = lr.C * wNeg
		}
	}

	// params[:dim] are weights, params[dim] is the intercept.
	margins := make([]float64, len(x))
	loss := func(p []float64) float64 {
		f := 0.0
		for _, v := range p {
			f += 0.5 * v * v
		}
		for i, row := range x {
			z := ys[i] * (row.Dot(p[:dim]) + p[dim])
			f += cw[i] * logOnePlusExp(-z)
		}
		return f
	}
	grad := func(g, p []float64) {
		copy(g, p)
		for i, row := range x {
			margins[i] = ys[i] * (row.Dot(p[:dim]) + p[dim])
			coef := -cw[i] * ys[i] * sigmoid(-margins[i])
			row.AddScaled(g[:dim], coef)
			g[dim] += coef
		}
	}

	maxIter := lr.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}
	problem := optimize.Problem{Func: loss, Grad: grad}
	res, err := optimize.Minimize(problem, make([]float64, dim+1), &optimize.Settings{
		MajorIterations: maxIter,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-6, Iterations: 5},
	}, &optimize.LBFGS{})
	if res == nil {
		return LinearModel{}, fmt.Errorf("logistic regression: %w", err)
	}

	w := make([]float64, dim)
	copy(w, res.X[:dim])
	return LinearModel{W: w, B: res.X[dim]}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func logOnePlusExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

// LinearSVM is an L2-regularized squared-hinge linear SVM solved by dual
// coordinate descent. The intercept is treated as a constant feature.
type LinearSVM struct {
	C        float64 `json:"c"`
	MaxIter  int     `json:"max_iter"`
	Tol      float64 `json:"tol"`
	Balanced bool    `json:"balanced"`
}

// Fit implements Trainer.
func (svm LinearSVM) Fit(x []SparseVec, y []int, dim int) (LinearModel, error) {
	if m, ok := constantModel(y); ok {
		return m, nil
	}

	ys := signs(y)
	wNeg, wPos := 1.0, 1.0
	if svm.Balanced {
		wNeg, wPos = balancedWeights(y)
	}

	n := len(x)
	diag := make([]float64, n)
	qd := make([]float64, n)
	for i, row := range x {
		c := svm.C * wNeg
		if ys[i] > 0 {
			c = svm.C * wPos
		}
		diag[i] = 1 / (2 * c)
		qd[i] = row.SquaredNorm() + 1 + diag[i]
	}

	maxIter := svm.MaxIter
	if maxIter <= 0 {
		maxIter = 1000
	}
	tol := svm.Tol
	if tol <= 0 {
		tol = 1e-4
	}

	w := make([]float64, dim)
	var b float64
	alpha := make([]float64, n)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(1))

	for iter := 0; iter < maxIter; iter++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		maxPG, minPG := math.Inf(-1), math.Inf(1)
		for _, i := range order {
			g := ys[i]*(x[i].Dot(w)+b) - 1 + diag[i]*alpha[i]
			pg := g
			if alpha[i] == 0 && g > 0 {
				pg = 0
			}
			maxPG = math.Max(maxPG, pg)
			minPG = math.Min(minPG, pg)
			if pg == 0 {
				continue
			}
			old := alpha[i]
			alpha[i] = math.Max(alpha[i]-g/qd[i], 0)
			d := (alpha[i] - old) * ys[i]
			x[i].AddScaled(w, d)
			b += d
		}
		if maxPG-minPG < tol {
			break
		}
	}
	return LinearModel{W: w, B: b}, nil
}

// MultinomialNB is a two-class multinomial naive Bayes with additive smoothing.
// The fitted log-probability difference is stored as a linear model.
type MultinomialNB struct {
	Alpha float64 `json:"alpha"`
}

// Fit implements Trainer.
func (nb MultinomialNB) Fit(x []SparseVec, y []int, dim int) (LinearModel, error) {
	if m, ok := constantModel(y); ok {
		return m, nil
	}

	count := [2][]float64{make([]float64, dim), make([]float64, dim)}
	var docs [2]float64
	for i, row := range x {
		c := 0
		if y[i] != 0 {
			c = 1
		}
		docs[c]++
		row.AddScaled(count[c], 1)
	}

	var total [2]float64
	for c := 0; c < 2; c++ {
		for _, v := range count[c] {
			total[c] += v
		}
	}

	alpha := nb.Alpha
	den0 := total[0] + alpha*float64(dim)
	den1 := total[1] + alpha*float64(dim)
	w := make([]float64, dim)
	for j := 0; j < dim; j++ {
		w[j] = math.Log((count[1][j]+alpha)/den1) - math.Log((count[0][j]+alpha)/den0)
	}
	return LinearModel{W: w, B: math.Log(docs[1]) - math.Log(docs[0])}, nil
}
