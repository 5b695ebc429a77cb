package interchange

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vru-annotate/internal/shape"
	"vru-annotate/internal/validate"
	"vru-annotate/pkg/geometry"
)

func TestToRegionsRectangle(t *testing.T) {
	sh := shape.NewRectangle(geometry.Rect{X: 192, Y: 108, Width: 384, Height: 216})
	sh.Label = "pedestrian"

	regions, err := ToRegions([]*shape.Shape{sh}, 1920, 1080)
	require.NoError(t, err)
	require.Len(t, regions, 1)

	r := regions[0]
	require.Equal(t, RegionRectangle, r.Type)
	require.InDelta(t, 10.0, r.X, 1e-9)
	require.InDelta(t, 10.0, r.Y, 1e-9)
	require.InDelta(t, 20.0, r.Width, 1e-9)
	require.InDelta(t, 20.0, r.Height, 1e-9)
	require.Equal(t, []string{"pedestrian"}, r.Labels)
}

func TestRegionsRoundTrip(t *testing.T) {
	rect := shape.NewRectangle(geometry.Rect{X: 100, Y: 100, Width: 200, Height: 150})
	rect.Label = "cyclist"
	poly := shape.New(shape.TypePolygon, []geometry.Point2D{
		{X: 0, Y: 0}, {X: 960, Y: 0}, {X: 480, Y: 540},
	})
	pt := shape.NewPoint(geometry.Point2D{X: 960, Y: 540})

	regions, err := ToRegions([]*shape.Shape{rect, poly, pt}, 1920, 1080)
	require.NoError(t, err)

	back, err := FromRegions(regions, 1920, 1080)
	require.NoError(t, err)
	require.Len(t, back, 3)

	require.Equal(t, rect.ID, back[0].ID)
	require.InDelta(t, 100.0, back[0].BoundingBox.X, 1e-6)
	require.Equal(t, "cyclist", back[0].Label)

	require.Equal(t, shape.TypePolygon, back[1].Type)
	require.InDelta(t, 960.0, back[1].Points[1].X, 1e-6)

	require.Equal(t, shape.TypePoint, back[2].Type)
	require.InDelta(t, 540.0, back[2].Points[0].Y, 1e-6)
}

func TestFromRegionsSkipsMalformed(t *testing.T) {
	regions := []Region{
		{Type: RegionPolygon, Points: [][2]float64{{0, 0}, {10, 0}}}, // too few vertices
		{Type: "unknownlabels"},
		{Type: RegionRectangle, X: 10, Y: 10, Width: 20, Height: 20},
	}
	shapes, err := FromRegions(regions, 100, 100)
	require.NoError(t, err)
	require.Len(t, shapes, 1)
	require.Equal(t, shape.TypeRectangle, shapes[0].Type)
}

func TestToRegionsRejectsBadDimensions(t *testing.T) {
	_, err := ToRegions(nil, 0, 1080)
	require.Error(t, err)
	_, err = FromRegions(nil, 1920, -1)
	require.Error(t, err)
}

func TestParseYOLO(t *testing.T) {
	input := `
# detector output
0 0.5 0.5 0.2 0.4 0.91
2 0.25 0.25 0.1 0.1
`
	dets, err := ParseYOLO(strings.NewReader(input), 1000, 500, shape.VRULabels)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	require.Equal(t, "pedestrian", dets[0].Label)
	require.InDelta(t, 0.91, dets[0].Confidence, 1e-9)
	require.Equal(t, geometry.Rect{X: 400, Y: 150, Width: 200, Height: 200}, dets[0].Box)

	require.Equal(t, "motorcyclist", dets[1].Label)
	require.InDelta(t, 1.0, dets[1].Confidence, 1e-9)
}

func TestParseYOLOBadLine(t *testing.T) {
	_, err := ParseYOLO(strings.NewReader("0 0.5 0.5\n"), 100, 100, shape.VRULabels)
	require.Error(t, err)

	_, err = ParseYOLO(strings.NewReader("x 0.5 0.5 0.1 0.1\n"), 100, 100, shape.VRULabels)
	require.Error(t, err)
}

func TestWriteYOLORoundTrip(t *testing.T) {
	dets := []validate.Detection{
		{Label: "cyclist", Box: geometry.Rect{X: 100, Y: 100, Width: 50, Height: 80}, Confidence: 0.8},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteYOLO(&buf, dets, 1000, 1000, shape.VRULabels))

	back, err := ParseYOLO(&buf, 1000, 1000, shape.VRULabels)
	require.NoError(t, err)
	require.Len(t, back, 1)
	require.Equal(t, "cyclist", back[0].Label)
	require.InDelta(t, 100.0, back[0].Box.X, 0.01)
	require.InDelta(t, 80.0, back[0].Box.Height, 0.01)
}

func TestDetectionsToShapes(t *testing.T) {
	dets := []validate.Detection{
		{Label: "pedestrian", Box: geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10}},
	}
	shapes := DetectionsToShapes(dets)
	require.Len(t, shapes, 1)
	require.Equal(t, shape.TypeRectangle, shapes[0].Type)
	require.Equal(t, shape.LabelColor("pedestrian"), shapes[0].Style.StrokeColor)
}
