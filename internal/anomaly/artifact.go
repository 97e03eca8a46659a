package anomaly

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Artifact is the opaque classifier the anomaly detector calls. Loading and
// training are the implementer's concern; the decision procedure only ever
// sees (real_score, class_logits).
type Artifact interface {
	Infer(sequence [][]float64) (real float64, logits []float64, err error)
}

const hiddenDim = 64

// artifactWeights holds the flat parameters of a two-head feed-forward net:
// a shared ReLU hidden layer, a classification head (NumClasses logits),
// and a real-score head (one tanh-bounded scalar).
type artifactWeights struct {
	HiddenW []float64 `json:"hidden_w"` // (SeqLen*ReducedDim) x hiddenDim
	HiddenB []float64 `json:"hidden_b"` // hiddenDim
	ClassW  []float64 `json:"class_w"`  // hiddenDim x NumClasses
	ClassB  []float64 `json:"class_b"`  // NumClasses
	RealW   []float64 `json:"real_w"`   // hiddenDim x 1
	RealB   []float64 `json:"real_b"`   // 1
}

// randomArtifactWeights produces deterministic (seeded) weights for use
// when no trained artifact file is supplied, mirroring the fallback path
// the teacher's ML engine takes when a model hasn't been trained yet.
func randomArtifactWeights(seed int64) *artifactWeights {
	r := rand.New(rand.NewSource(seed))
	in := SeqLen * ReducedDim

	gen := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = (r.Float64()*2 - 1) * 0.1
		}
		return out
	}

	return &artifactWeights{
		HiddenW: gen(in * hiddenDim),
		HiddenB: gen(hiddenDim),
		ClassW:  gen(hiddenDim * NumClasses),
		ClassB:  gen(NumClasses),
		RealW:   gen(hiddenDim),
		RealB:   gen(1),
	}
}

// loadArtifactWeights reads weights from a JSON artifact file. An empty
// path yields deterministic random weights, seed fixed for reproducible
// tests and demo runs.
func loadArtifactWeights(path string) (*artifactWeights, error) {
	if path == "" {
		return randomArtifactWeights(42), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	var w artifactWeights
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return &w, nil
}

// NeuralArtifact is a Gorgonia-backed two-head feed-forward discriminator.
type NeuralArtifact struct {
	graph    *gorgonia.ExprGraph
	input    *gorgonia.Node
	classOut *gorgonia.Node
	realOut  *gorgonia.Node
	vm       gorgonia.VM
}

// NewNeuralArtifact builds the computation graph for weights w. The
// sequence is flattened to a single (SeqLen*ReducedDim) row before
// multiplication, since the preprocessing stage has already reduced the
// per-step dimensionality and the steady-state replication carries no
// additional temporal signal for this forward pass.
func NewNeuralArtifact(w *artifactWeights) *NeuralArtifact {
	g := gorgonia.NewGraph()
	in := SeqLen * ReducedDim

	input := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(1, in), gorgonia.WithName("input"))

	hiddenW := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(in, hiddenDim), gorgonia.WithName("hidden_w"),
		gorgonia.WithValue(tensor.New(tensor.WithShape(in, hiddenDim), tensor.WithBacking(w.HiddenW))))
	hiddenB := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(1, hiddenDim), gorgonia.WithName("hidden_b"),
		gorgonia.WithValue(tensor.New(tensor.WithShape(1, hiddenDim), tensor.WithBacking(w.HiddenB))))

	classW := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(hiddenDim, NumClasses), gorgonia.WithName("class_w"),
		gorgonia.WithValue(tensor.New(tensor.WithShape(hiddenDim, NumClasses), tensor.WithBacking(w.ClassW))))
	classB := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(1, NumClasses), gorgonia.WithName("class_b"),
		gorgonia.WithValue(tensor.New(tensor.WithShape(1, NumClasses), tensor.WithBacking(w.ClassB))))

	realW := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(hiddenDim, 1), gorgonia.WithName("real_w"),
		gorgonia.WithValue(tensor.New(tensor.WithShape(hiddenDim, 1), tensor.WithBacking(w.RealW))))
	realB := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(1, 1), gorgonia.WithName("real_b"),
		gorgonia.WithValue(tensor.New(tensor.WithShape(1, 1), tensor.WithBacking(w.RealB))))

	hidden := gorgonia.Must(gorgonia.Add(gorgonia.Must(gorgonia.Mul(input, hiddenW)), hiddenB))
	hidden = gorgonia.Must(gorgonia.Rectify(hidden))

	classOut := gorgonia.Must(gorgonia.Add(gorgonia.Must(gorgonia.Mul(hidden, classW)), classB))
	realOut := gorgonia.Must(gorgonia.Tanh(gorgonia.Must(gorgonia.Add(gorgonia.Must(gorgonia.Mul(hidden, realW)), realB))))

	return &NeuralArtifact{
		graph:    g,
		input:    input,
		classOut: classOut,
		realOut:  realOut,
		vm:       gorgonia.NewTapeMachine(g),
	}
}

// Infer flattens sequence, runs the forward pass, and returns the raw
// (unsoftmaxed) class logits alongside the real-score scalar.
func (a *NeuralArtifact) Infer(sequence [][]float64) (real float64, logits []float64, err error) {
	flat := make([]float64, 0, SeqLen*ReducedDim)
	for _, step := range sequence {
		flat = append(flat, step...)
	}
	if len(flat) != SeqLen*ReducedDim {
		return 0, nil, fmt.Errorf("expected sequence of %d values, got %d", SeqLen*ReducedDim, len(flat))
	}

	inputTensor := tensor.New(tensor.WithShape(1, len(flat)), tensor.WithBacking(flat))
	if err := gorgonia.Let(a.input, inputTensor); err != nil {
		return 0, nil, fmt.Errorf("bind input: %w", err)
	}

	if err := a.vm.RunAll(); err != nil {
		return 0, nil, fmt.Errorf("forward pass: %w", err)
	}
	defer a.vm.Reset()

	logitsData, ok := a.classOut.Value().Data().([]float64)
	if !ok || len(logitsData) != NumClasses {
		return 0, nil, fmt.Errorf("unexpected class output shape")
	}
	realData, ok := a.realOut.Value().Data().([]float64)
	if !ok || len(realData) != 1 {
		return 0, nil, fmt.Errorf("unexpected real-score output shape")
	}

	out := make([]float64, NumClasses)
	copy(out, logitsData)
	return realData[0], out, nil
}

// Close releases the VM's resources.
func (a *NeuralArtifact) Close() error {
	return a.vm.Close()
}

// LoadArtifact builds a ready-to-use Artifact from a weights file path. An
// empty path produces a deterministically-seeded artifact suitable for
// tests and demos, never for production scoring.
func LoadArtifact(path string) (*NeuralArtifact, error) {
	w, err := loadArtifactWeights(path)
	if err != nil {
		return nil, err
	}
	return NewNeuralArtifact(w), nil
}
