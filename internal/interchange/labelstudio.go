// Package interchange converts between the internal pixel-based shape model
// and external annotation formats: Label Studio-style regions with
// percentage coordinates, and YOLO detection files. Conversions are pure
// functions at the boundary; internal geometry is always pixel-based.
package interchange

import (
	"encoding/json"
	"fmt"
	"os"

	"vru-annotate/internal/shape"
	"vru-annotate/pkg/geometry"
)

// Region is a Label Studio-style annotation region. All coordinates are
// percentages (0-100) relative to the image dimensions.
type Region struct {
	ID     string   `json:"id,omitempty"`
	Type   string   `json:"type"`
	X      float64  `json:"x,omitempty"`
	Y      float64  `json:"y,omitempty"`
	Width  float64  `json:"width,omitempty"`
	Height float64  `json:"height,omitempty"`
	Points [][2]float64 `json:"points,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

// Region type tags, following Label Studio's control-tag naming.
const (
	RegionRectangle = "rectanglelabels"
	RegionPolygon   = "polygonlabels"
	RegionKeypoint  = "keypointlabels"
	RegionBrush     = "brushlabels"
)

// ToRegions converts shapes to percentage-coordinate regions for an image
// of the given pixel dimensions.
func ToRegions(shapes []*shape.Shape, imgWidth, imgHeight float64) ([]Region, error) {
	if imgWidth <= 0 || imgHeight <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %gx%g", imgWidth, imgHeight)
	}

	regions := make([]Region, 0, len(shapes))
	for _, sh := range shapes {
		if sh == nil {
			continue
		}
		r := Region{ID: sh.ID}
		if sh.Label != "" {
			r.Labels = []string{sh.Label}
		}

		switch sh.Type {
		case shape.TypeRectangle:
			box := sh.BoundingBox
			r.Type = RegionRectangle
			r.X = box.X / imgWidth * 100
			r.Y = box.Y / imgHeight * 100
			r.Width = box.Width / imgWidth * 100
			r.Height = box.Height / imgHeight * 100
		case shape.TypePolygon:
			r.Type = RegionPolygon
			r.Points = pointsToPercent(sh.Points, imgWidth, imgHeight)
		case shape.TypePoint:
			r.Type = RegionKeypoint
			if len(sh.Points) > 0 {
				r.X = sh.Points[0].X / imgWidth * 100
				r.Y = sh.Points[0].Y / imgHeight * 100
			}
		case shape.TypeBrush:
			r.Type = RegionBrush
			r.Points = pointsToPercent(sh.Points, imgWidth, imgHeight)
		default:
			continue // unknown shape types are not exportable
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// FromRegions converts percentage-coordinate regions back to pixel shapes.
// Malformed regions are skipped rather than failing the whole import;
// region data from external tools is not trusted.
func FromRegions(regions []Region, imgWidth, imgHeight float64) ([]*shape.Shape, error) {
	if imgWidth <= 0 || imgHeight <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %gx%g", imgWidth, imgHeight)
	}

	shapes := make([]*shape.Shape, 0, len(regions))
	for _, r := range regions {
		var sh *shape.Shape

		switch r.Type {
		case RegionRectangle:
			sh = shape.NewRectangle(geometry.Rect{
				X:      r.X / 100 * imgWidth,
				Y:      r.Y / 100 * imgHeight,
				Width:  r.Width / 100 * imgWidth,
				Height: r.Height / 100 * imgHeight,
			})
		case RegionPolygon:
			pts := percentToPoints(r.Points, imgWidth, imgHeight)
			if len(pts) < 3 {
				continue
			}
			sh = shape.New(shape.TypePolygon, pts)
		case RegionKeypoint:
			sh = shape.NewPoint(geometry.Point2D{
				X: r.X / 100 * imgWidth,
				Y: r.Y / 100 * imgHeight,
			})
		case RegionBrush:
			pts := percentToPoints(r.Points, imgWidth, imgHeight)
			if len(pts) < 2 {
				continue
			}
			sh = shape.New(shape.TypeBrush, pts)
		default:
			continue
		}

		if r.ID != "" {
			sh.ID = r.ID
		}
		if len(r.Labels) > 0 {
			sh.Label = r.Labels[0]
			sh.Style.StrokeColor = shape.LabelColor(sh.Label)
			sh.Style.FillColor = shape.LabelColor(sh.Label)
		}
		shapes = append(shapes, sh)
	}
	return shapes, nil
}

// ReadRegions loads a JSON region list from a file.
func ReadRegions(path string) ([]Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var regions []Region
	if err := json.Unmarshal(data, &regions); err != nil {
		return nil, fmt.Errorf("parse regions from %q: %w", path, err)
	}
	return regions, nil
}

// WriteRegions saves a JSON region list to a file.
func WriteRegions(path string, regions []Region) error {
	data, err := json.MarshalIndent(regions, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func pointsToPercent(pts []geometry.Point2D, w, h float64) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{p.X / w * 100, p.Y / h * 100}
	}
	return out
}

func percentToPoints(pts [][2]float64, w, h float64) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[i] = geometry.Point2D{X: p[0] / 100 * w, Y: p[1] / 100 * h}
	}
	return out
}
