package flow

// NumFeatures is the fixed dimensionality of a feature vector.
const NumFeatures = 16

// Vector is the fixed-order, fixed-length feature vector derived from a
// flow's current state. Field order matches spec exactly; downstream
// consumers (rule-engine-side logging and the anomaly detector) index into
// it positionally.
type Vector [NumFeatures]float64

const (
	idxDstPort = iota
	idxDurationMicros
	idxFwdPackets
	idxBwdPackets
	idxFwdBytes
	idxBwdBytes
	idxFwdLenMax
	idxFwdLenMin
	idxFwdLenMean
	idxBwdLenMax
	idxBwdLenMin
	idxBwdLenMean
	idxBytesPerSec
	idxPacketsPerSec
	idxFwdMeanIAT
	idxBwdMeanIAT
)

// Extract computes the feature vector for a flow's current state. It is a
// pure function of Stats: the sole source of feature vectors consumed by
// both the rule-engine-side logging and the anomaly detector.
func Extract(s *Stats) Vector {
	var v Vector

	durationSecs := s.Duration().Seconds()

	v[idxDstPort] = float64(s.FirstDstPort)
	v[idxDurationMicros] = durationSecs * 1e6

	v[idxFwdPackets] = float64(s.Forward.packets)
	v[idxBwdPackets] = float64(s.Backward.packets)
	v[idxFwdBytes] = float64(s.Forward.bytes)
	v[idxBwdBytes] = float64(s.Backward.bytes)

	v[idxFwdLenMax] = float64(s.Forward.maxLen)
	v[idxFwdLenMin] = float64(s.Forward.minLen)
	v[idxFwdLenMean] = s.Forward.mean()

	v[idxBwdLenMax] = float64(s.Backward.maxLen)
	v[idxBwdLenMin] = float64(s.Backward.minLen)
	v[idxBwdLenMean] = s.Backward.mean()

	totalBytes := float64(s.TotalBytes())
	totalPackets := float64(s.TotalPackets())
	v[idxBytesPerSec] = totalBytes / durationSecs
	v[idxPacketsPerSec] = totalPackets / durationSecs

	v[idxFwdMeanIAT] = s.Forward.meanIAT() * 1e6
	v[idxBwdMeanIAT] = s.Backward.meanIAT() * 1e6

	return v
}

// DestPort, PacketsPerSec, BytesPerSec and TotalPackets are convenience
// accessors used by the anomaly decision procedure, which needs these
// specific fields by name rather than by position.
func (v Vector) DestPort() float64      { return v[idxDstPort] }
func (v Vector) PacketsPerSec() float64 { return v[idxPacketsPerSec] }
func (v Vector) BytesPerSec() float64   { return v[idxBytesPerSec] }
func (v Vector) FwdPackets() float64    { return v[idxFwdPackets] }
func (v Vector) BwdPackets() float64    { return v[idxBwdPackets] }

// TotalPackets returns fwd+bwd packet counts as recorded in the vector.
func (v Vector) TotalPackets() float64 { return v[idxFwdPackets] + v[idxBwdPackets] }

// OneWay reports whether exactly one direction has observed packets.
func (v Vector) OneWay() bool {
	fwd, bwd := v[idxFwdPackets] > 0, v[idxBwdPackets] > 0
	return fwd != bwd
}
