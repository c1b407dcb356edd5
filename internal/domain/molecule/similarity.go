package molecule

import (
	"math/bits"
	"strings"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

// SimilarityMetric names a fingerprint similarity coefficient.
type SimilarityMetric string

const (
	MetricTanimoto SimilarityMetric = "tanimoto"
	MetricDice     SimilarityMetric = "dice"
)

// SimilarityMetrics returns the metric names in display order, default first.
func SimilarityMetrics() []string {
	return []string{string(MetricTanimoto), string(MetricDice)}
}

// ParseSimilarityMetric resolves a metric name. Matching ignores case and
// empty selects Tanimoto.
func ParseSimilarityMetric(name string) (SimilarityMetric, error) {
	switch m := SimilarityMetric(strings.ToLower(strings.TrimSpace(name))); m {
	case "":
		return MetricTanimoto, nil
	case MetricTanimoto, MetricDice:
		return m, nil
	default:
		return "", errors.Newf(errors.CodeInvalidParam, "unknown similarity metric %q", name)
	}
}

// SimilarityCalculator compares two fingerprints of the same method.
type SimilarityCalculator interface {
	Calculate(fp1, fp2 *Fingerprint) (float64, error)
	Metric() SimilarityMetric
}

// NewSimilarityCalculator returns the calculator for a metric name.
func NewSimilarityCalculator(name SimilarityMetric) (SimilarityCalculator, error) {
	m, err := ParseSimilarityMetric(string(name))
	if err != nil {
		return nil, err
	}
	if m == MetricDice {
		return DiceCalculator{}, nil
	}
	return TanimotoCalculator{}, nil
}

func checkComparable(fp1, fp2 *Fingerprint) error {
	if fp1 == nil || fp2 == nil {
		return errors.New(errors.CodeInvalidParam, "fingerprint must not be nil")
	}
	if fp1.Method != fp2.Method || fp1.IsCount() != fp2.IsCount() || fp1.Length != fp2.Length {
		return errors.New(errors.CodeInvalidParam, "fingerprints must have same method and dimension")
	}
	return nil
}

// countOverlap returns Σmin(a,b) and Σa, Σb over the union of features.
func countOverlap(a, b map[uint32]uint32) (minSum, sumA, sumB int) {
	for id, ca := range a {
		sumA += int(ca)
		if cb, ok := b[id]; ok {
			if ca < cb {
				minSum += int(ca)
			} else {
				minSum += int(cb)
			}
		}
	}
	for _, cb := range b {
		sumB += int(cb)
	}
	return minSum, sumA, sumB
}

func bitOverlap(a, b []byte) (intersection, union int) {
	for i := range a {
		intersection += bits.OnesCount8(a[i] & b[i])
		union += bits.OnesCount8(a[i] | b[i])
	}
	return intersection, union
}

// TanimotoCalculator implements the Tanimoto (Jaccard) coefficient. For count
// fingerprints it is Σmin/Σmax over all features.
type TanimotoCalculator struct{}

// Calculate computes Tanimoto similarity.
func (c TanimotoCalculator) Calculate(fp1, fp2 *Fingerprint) (float64, error) {
	if err := checkComparable(fp1, fp2); err != nil {
		return 0, err
	}
	if fp1.IsCount() {
		minSum, sumA, sumB := countOverlap(fp1.Counts, fp2.Counts)
		maxSum := sumA + sumB - minSum
		if maxSum == 0 {
			return 0, nil
		}
		return float64(minSum) / float64(maxSum), nil
	}
	intersection, union := bitOverlap(fp1.Bits, fp2.Bits)
	if union == 0 {
		return 0, nil
	}
	return float64(intersection) / float64(union), nil
}

// Metric returns MetricTanimoto.
func (c TanimotoCalculator) Metric() SimilarityMetric { return MetricTanimoto }

// DiceCalculator implements the Dice coefficient.
type DiceCalculator struct{}

// Calculate computes Dice similarity.
func (c DiceCalculator) Calculate(fp1, fp2 *Fingerprint) (float64, error) {
	if err := checkComparable(fp1, fp2); err != nil {
		return 0, err
	}
	if fp1.IsCount() {
		minSum, sumA, sumB := countOverlap(fp1.Counts, fp2.Counts)
		if sumA+sumB == 0 {
			return 0, nil
		}
		return 2 * float64(minSum) / float64(sumA+sumB), nil
	}
	intersection, _ := bitOverlap(fp1.Bits, fp2.Bits)
	denominator := fp1.NumOnBits + fp2.NumOnBits
	if denominator == 0 {
		return 0, nil
	}
	return 2 * float64(intersection) / float64(denominator), nil
}

// Metric returns MetricDice.
func (c DiceCalculator) Metric() SimilarityMetric { return MetricDice }
