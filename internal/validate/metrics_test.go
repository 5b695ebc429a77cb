package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vru-annotate/internal/shape"
	"vru-annotate/pkg/geometry"
)

func det(label string, x, y, w, h float64) Detection {
	return Detection{Label: label, Box: geometry.Rect{X: x, Y: y, Width: w, Height: h}, Confidence: 1}
}

func TestMatchExact(t *testing.T) {
	gt := []Detection{det("pedestrian", 0, 0, 10, 10)}
	pred := []Detection{det("pedestrian", 0, 0, 10, 10)}

	res := Match(pred, gt, 0.5)
	require.Equal(t, 1, res.TruePositives)
	require.Equal(t, 0, res.FalsePositives)
	require.Equal(t, 0, res.FalseNegatives)
	require.InDelta(t, 1.0, res.IOUs[0], 1e-9)
	require.InDelta(t, 1.0, res.Precision(), 1e-9)
	require.InDelta(t, 1.0, res.Recall(), 1e-9)
	require.InDelta(t, 1.0, res.F1(), 1e-9)
}

func TestMatchLabelMismatch(t *testing.T) {
	gt := []Detection{det("pedestrian", 0, 0, 10, 10)}
	pred := []Detection{det("cyclist", 0, 0, 10, 10)}

	res := Match(pred, gt, 0.5)
	require.Equal(t, 0, res.TruePositives)
	require.Equal(t, 1, res.FalsePositives)
	require.Equal(t, 1, res.FalseNegatives)
}

func TestMatchBelowThreshold(t *testing.T) {
	gt := []Detection{det("pedestrian", 0, 0, 10, 10)}
	pred := []Detection{det("pedestrian", 9, 9, 10, 10)}

	res := Match(pred, gt, 0.5)
	require.Equal(t, 0, res.TruePositives)
}

func TestMatchGreedyHighestIOUFirst(t *testing.T) {
	gt := []Detection{det("pedestrian", 0, 0, 10, 10)}
	good := det("pedestrian", 1, 1, 10, 10)
	exact := det("pedestrian", 0, 0, 10, 10)
	pred := []Detection{good, exact}

	res := Match(pred, gt, 0.5)
	require.Equal(t, 1, res.TruePositives)
	require.Equal(t, 1, res.FalsePositives)
	// The exact prediction (index 1) wins the single ground-truth box.
	require.Equal(t, 1, res.Pairs[0].Prediction)
}

func TestMatchEachGTOnce(t *testing.T) {
	gt := []Detection{
		det("cyclist", 0, 0, 10, 10),
		det("cyclist", 20, 0, 10, 10),
	}
	pred := []Detection{
		det("cyclist", 0, 0, 10, 10),
		det("cyclist", 20, 0, 10, 10),
		det("cyclist", 20, 1, 10, 10),
	}

	res := Match(pred, gt, 0.5)
	require.Equal(t, 2, res.TruePositives)
	require.Equal(t, 1, res.FalsePositives)
	require.Equal(t, 0, res.FalseNegatives)
}

func TestMetricsZeroDenominators(t *testing.T) {
	var res MatchResult
	require.Equal(t, 0.0, res.Precision())
	require.Equal(t, 0.0, res.Recall())
	require.Equal(t, 0.0, res.F1())
}

func TestFromShapesSkipsHidden(t *testing.T) {
	visible := shape.NewRectangle(geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10})
	visible.Label = "pedestrian"
	hidden := shape.NewRectangle(geometry.Rect{X: 20, Y: 0, Width: 10, Height: 10})
	hidden.Visible = false

	dets := FromShapes([]*shape.Shape{visible, hidden, nil})
	require.Len(t, dets, 1)
	require.Equal(t, "pedestrian", dets[0].Label)
	require.InDelta(t, 1.0, dets[0].Confidence, 1e-9)
}

func TestSummarize(t *testing.T) {
	results := []MatchResult{
		{TruePositives: 2, FalsePositives: 1, FalseNegatives: 0, IOUs: []float64{0.9, 0.7}},
		{TruePositives: 1, FalsePositives: 0, FalseNegatives: 1, IOUs: []float64{0.8}},
	}

	s := Summarize(results)
	require.Equal(t, 2, s.Frames)
	require.Equal(t, 3, s.TruePositives)
	require.Equal(t, 1, s.FalsePositives)
	require.Equal(t, 1, s.FalseNegatives)
	require.InDelta(t, 0.75, s.Precision, 1e-9)
	require.InDelta(t, 0.75, s.Recall, 1e-9)
	require.InDelta(t, 0.8, s.MeanIOU, 1e-9)
	require.InDelta(t, 0.8, s.MedianIOU, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	require.Equal(t, 0, s.Frames)
	require.Equal(t, 0.0, s.MeanIOU)
}
