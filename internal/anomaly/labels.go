package anomaly

// NumClasses is the fixed width of the classifier's logits vector.
const NumClasses = 9

// DefaultLabels is the class-index → name mapping used when no label file
// is supplied. Index 0 is Benign by convention.
var DefaultLabels = []string{
	"Benign",
	"DoS_Hulk",
	"DoS_GoldenEye",
	"PortScan",
	"DDoS",
	"BruteForce",
	"WebAttack",
	"Infiltration",
	"Bot",
}

// knownAttackLabels is the closed set of attack names the model was
// trained to recognize specifically, as opposed to the generic
// "UnknownAttack" bucket used for out-of-distribution promotion.
var knownAttackLabels = func() map[string]struct{} {
	m := make(map[string]struct{}, len(DefaultLabels)-1)
	for _, l := range DefaultLabels[1:] {
		m[l] = struct{}{}
	}
	return m
}()

func isKnownAttackLabel(name string) bool {
	_, ok := knownAttackLabels[name]
	return ok
}

// LoadLabels reads a plain newline-delimited label file, one class name per
// line in class-index order. An empty path yields DefaultLabels.
func LoadLabels(path string) ([]string, error) {
	if path == "" {
		return DefaultLabels, nil
	}
	return readLines(path)
}
