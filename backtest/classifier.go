package backtest

import (
	"errors"
	"math"
)

// retrainPolicy decides when the accumulated samples justify a batch
// retrain: once at minHistory, then every interval samples after that.
type retrainPolicy struct {
	minHistory int
	interval   int
}

func (p retrainPolicy) due(sampleCount int) bool {
	if sampleCount < p.minHistory {
		return false
	}
	return (sampleCount-p.minHistory)%p.interval == 0
}

// logitModel is a plain logistic regression trained by gradient
// descent. Weights live for one engine run only.
type logitModel struct {
	weights []float64
	bias    float64
}

func newLogitModel(numFeatures int) *logitModel {
	return &logitModel{weights: make([]float64, numFeatures)}
}

func (m *logitModel) predict(features []float64) float64 {
	z := m.bias
	for i, w := range m.weights {
		z += w * features[i]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	if z > 20 {
		return 1
	}
	if z < -20 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}

const (
	trainLearningRate = 0.05
	trainEpochs       = 200
)

var errDegenerateLabels = errors.New("training labels are single-class")

func (m *logitModel) train(samples [][]float64, labels []float64) error {
	if len(samples) == 0 || len(samples) != len(labels) {
		return errors.New("invalid training data")
	}
	wins := 0
	for _, y := range labels {
		if y > 0.5 {
			wins++
		}
	}
	if wins == 0 || wins == len(labels) {
		return errDegenerateLabels
	}

	for epoch := 0; epoch < trainEpochs; epoch++ {
		for i, x := range samples {
			pred := m.predict(x)
			grad := pred - labels[i]
			m.bias -= trainLearningRate * grad
			for j := range m.weights {
				m.weights[j] -= trainLearningRate * grad * x[j]
			}
		}
	}
	return nil
}

// tradeClassifier is the online updater behind the admission filter: it
// accumulates (feature vector, outcome) pairs during the run and batch
// retrains on the policy's cadence. A failed retrain is skipped
// silently and the last good model keeps serving; Trained latches true
// after the first success.
type tradeClassifier struct {
	policy  retrainPolicy
	model   *logitModel
	samples [][]float64
	labels  []float64
	trained bool
}

func newTradeClassifier(cfg EngineConfig) *tradeClassifier {
	return &tradeClassifier{
		policy: retrainPolicy{minHistory: cfg.MinHistory, interval: cfg.RetrainInterval},
	}
}

func (c *tradeClassifier) Observe(features []float64, profitable bool) {
	if len(features) != featureArity {
		return
	}
	label := 0.0
	if profitable {
		label = 1
	}
	c.samples = append(c.samples, features)
	c.labels = append(c.labels, label)

	if !c.policy.due(len(c.samples)) {
		return
	}
	m := newLogitModel(featureArity)
	if err := m.train(c.samples, c.labels); err != nil {
		return
	}
	c.model = m
	c.trained = true
}

func (c *tradeClassifier) Trained() bool { return c.trained }

// Predict returns the probability of a profitable outcome. ok is false
// when the model cannot score the vector (not trained yet, wrong arity,
// non-finite result); callers treat that as no information.
func (c *tradeClassifier) Predict(features []float64) (p float64, ok bool) {
	if !c.trained || c.model == nil || len(features) != featureArity {
		return 0, false
	}
	p = c.model.predict(features)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	return p, true
}
