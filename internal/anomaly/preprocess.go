package anomaly

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/flow"
)

// ReducedDim is the dimensionality the 16-feature vector is projected down
// to before being handed to the discriminator.
const ReducedDim = 12

// SeqLen is the temporal window length the discriminator was trained on.
const SeqLen = 32

// Scaler standardizes a feature vector: (x - mean) / scale, per dimension.
type Scaler struct {
	Mean  [flow.NumFeatures]float64
	Scale [flow.NumFeatures]float64
}

// IdentityScaler performs no transformation. Used when no fitted scaler
// artifact is available.
func IdentityScaler() *Scaler {
	s := &Scaler{}
	for i := range s.Scale {
		s.Scale[i] = 1
	}
	return s
}

// Transform returns the standardized vector as a new slice; v is not
// modified.
func (s *Scaler) Transform(v flow.Vector) []float64 {
	out := make([]float64, flow.NumFeatures)
	for i := range v {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v[i] - s.Mean[i]) / scale
	}
	return out
}

type scalerFile struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LoadScaler reads a fitted scaler from a JSON artifact file. An empty
// path yields the identity scaler.
func LoadScaler(path string) (*Scaler, error) {
	if path == "" {
		return IdentityScaler(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler %s: %w", path, err)
	}
	var raw scalerFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse scaler %s: %w", path, err)
	}
	if len(raw.Mean) != flow.NumFeatures || len(raw.Scale) != flow.NumFeatures {
		return nil, fmt.Errorf("scaler %s: expected %d-dim mean/scale, got %d/%d", path, flow.NumFeatures, len(raw.Mean), len(raw.Scale))
	}
	s := &Scaler{}
	copy(s.Mean[:], raw.Mean)
	copy(s.Scale[:], raw.Scale)
	return s, nil
}

// Reducer projects a standardized feature vector from 16 to ReducedDim
// dimensions via a fitted linear map.
type Reducer struct {
	projection *mat.Dense // ReducedDim x NumFeatures
}

// TruncatingReducer drops the final (NumFeatures - ReducedDim) dimensions.
// Used when no fitted reducer artifact is available: a defensible
// placeholder until a real trained projection is supplied.
func TruncatingReducer() *Reducer {
	data := make([]float64, ReducedDim*flow.NumFeatures)
	for i := 0; i < ReducedDim; i++ {
		data[i*flow.NumFeatures+i] = 1
	}
	return &Reducer{projection: mat.NewDense(ReducedDim, flow.NumFeatures, data)}
}

// Transform projects x (length NumFeatures) down to ReducedDim.
func (r *Reducer) Transform(x []float64) []float64 {
	in := mat.NewVecDense(flow.NumFeatures, x)
	out := mat.NewVecDense(ReducedDim, nil)
	out.MulVec(r.projection, in)
	return out.RawVector().Data
}

type reducerFile struct {
	Projection [][]float64 `json:"projection"` // ReducedDim rows x NumFeatures cols
}

// LoadReducer reads a fitted projection matrix from a JSON artifact file.
// An empty path yields TruncatingReducer.
func LoadReducer(path string) (*Reducer, error) {
	if path == "" {
		return TruncatingReducer(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reducer %s: %w", path, err)
	}
	var raw reducerFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse reducer %s: %w", path, err)
	}
	if len(raw.Projection) != ReducedDim {
		return nil, fmt.Errorf("reducer %s: expected %d rows, got %d", path, ReducedDim, len(raw.Projection))
	}
	flat := make([]float64, 0, ReducedDim*flow.NumFeatures)
	for _, row := range raw.Projection {
		if len(row) != flow.NumFeatures {
			return nil, fmt.Errorf("reducer %s: expected %d cols, got %d", path, flow.NumFeatures, len(row))
		}
		flat = append(flat, row...)
	}
	return &Reducer{projection: mat.NewDense(ReducedDim, flow.NumFeatures, flat)}, nil
}

// BuildSequence replicates the standardized, reduced feature vector SeqLen
// times. The current flow state is treated as a steady-state snapshot: the
// discriminator expects a temporal window, but there is exactly one
// summary of the flow's whole history to feed it.
func BuildSequence(scaler *Scaler, reducer *Reducer, v flow.Vector) [][]float64 {
	reduced := reducer.Transform(scaler.Transform(v))
	seq := make([][]float64, SeqLen)
	for i := range seq {
		row := make([]float64, ReducedDim)
		copy(row, reduced)
		seq[i] = row
	}
	return seq
}
