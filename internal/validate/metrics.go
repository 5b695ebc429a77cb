// Package validate compares model detections against ground-truth
// annotations and computes detection quality metrics.
package validate

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"vru-annotate/internal/shape"
	"vru-annotate/pkg/geometry"
)

// DefaultIOUThreshold is the minimum intersection-over-union for a
// detection to count as a true positive.
const DefaultIOUThreshold = 0.5

// Detection is one detector output box.
type Detection struct {
	Label      string
	Box        geometry.Rect
	Confidence float64
}

// FromShapes converts annotated shapes to ground-truth detections. Only
// visible shapes participate; bounding boxes stand in for non-rectangular
// geometry.
func FromShapes(shapes []*shape.Shape) []Detection {
	dets := make([]Detection, 0, len(shapes))
	for _, sh := range shapes {
		if sh == nil || !sh.Visible {
			continue
		}
		dets = append(dets, Detection{
			Label:      sh.Label,
			Box:        sh.BoundingBox,
			Confidence: 1.0,
		})
	}
	return dets
}

// Pair is one matched prediction/ground-truth couple.
type Pair struct {
	Prediction  int
	GroundTruth int
	IOU         float64
}

// MatchResult is the outcome of matching predictions against ground truth.
type MatchResult struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Pairs          []Pair
	IOUs           []float64
}

// Match greedily pairs predictions with ground-truth boxes of the same
// label, highest IoU first. Each ground-truth box matches at most one
// prediction. Unmatched predictions are false positives; unmatched ground
// truth are false negatives.
func Match(predictions, groundTruth []Detection, iouThreshold float64) MatchResult {
	if iouThreshold <= 0 {
		iouThreshold = DefaultIOUThreshold
	}

	type candidate struct {
		pred, gt int
		iou      float64
	}
	var candidates []candidate
	for pi, p := range predictions {
		for gi, g := range groundTruth {
			if p.Label != g.Label {
				continue
			}
			iou := geometry.IOU(p.Box, g.Box)
			if iou >= iouThreshold {
				candidates = append(candidates, candidate{pi, gi, iou})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].iou > candidates[j].iou
	})

	usedPred := make(map[int]bool)
	usedGT := make(map[int]bool)

	var res MatchResult
	for _, c := range candidates {
		if usedPred[c.pred] || usedGT[c.gt] {
			continue
		}
		usedPred[c.pred] = true
		usedGT[c.gt] = true
		res.Pairs = append(res.Pairs, Pair{Prediction: c.pred, GroundTruth: c.gt, IOU: c.iou})
		res.IOUs = append(res.IOUs, c.iou)
	}

	res.TruePositives = len(res.Pairs)
	res.FalsePositives = len(predictions) - res.TruePositives
	res.FalseNegatives = len(groundTruth) - res.TruePositives
	return res
}

// Precision returns TP / (TP + FP), or 0 with no predictions.
func (r MatchResult) Precision() float64 {
	denom := r.TruePositives + r.FalsePositives
	if denom == 0 {
		return 0
	}
	return float64(r.TruePositives) / float64(denom)
}

// Recall returns TP / (TP + FN), or 0 with no ground truth.
func (r MatchResult) Recall() float64 {
	denom := r.TruePositives + r.FalseNegatives
	if denom == 0 {
		return 0
	}
	return float64(r.TruePositives) / float64(denom)
}

// F1 returns the harmonic mean of precision and recall.
func (r MatchResult) F1() float64 {
	p, rec := r.Precision(), r.Recall()
	if p+rec == 0 {
		return 0
	}
	return 2 * p * rec / (p + rec)
}

// Summary aggregates match quality over one or more frames.
type Summary struct {
	Frames         int
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Precision      float64
	Recall         float64
	F1             float64
	MeanIOU        float64
	MedianIOU      float64
}

// Summarize folds per-frame match results into overall metrics.
func Summarize(results []MatchResult) Summary {
	var s Summary
	s.Frames = len(results)

	var ious []float64
	for _, r := range results {
		s.TruePositives += r.TruePositives
		s.FalsePositives += r.FalsePositives
		s.FalseNegatives += r.FalseNegatives
		ious = append(ious, r.IOUs...)
	}

	total := MatchResult{
		TruePositives:  s.TruePositives,
		FalsePositives: s.FalsePositives,
		FalseNegatives: s.FalseNegatives,
	}
	s.Precision = total.Precision()
	s.Recall = total.Recall()
	s.F1 = total.F1()

	if len(ious) > 0 {
		sort.Float64s(ious)
		s.MeanIOU = stat.Mean(ious, nil)
		s.MedianIOU = stat.Quantile(0.5, stat.Empirical, ious, nil)
	}
	return s
}
