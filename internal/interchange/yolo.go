package interchange

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"vru-annotate/internal/shape"
	"vru-annotate/internal/validate"
	"vru-annotate/pkg/geometry"
)

// YOLOClasses maps class indices to VRU labels for detector output files.
// Detection files carry indices only; the class list is project config.
var YOLOClasses = shape.VRULabels

// ParseYOLO reads detections in YOLO text format: one detection per line,
// "class cx cy w h [confidence]", all coordinates normalized to 0..1.
// Coordinates are denormalized against the given image dimensions.
func ParseYOLO(r io.Reader, imgWidth, imgHeight float64, classes []string) ([]validate.Detection, error) {
	if imgWidth <= 0 || imgHeight <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %gx%g", imgWidth, imgHeight)
	}

	var dets []validate.Detection
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 5 && len(fields) != 6 {
			return nil, fmt.Errorf("line %d: expected 5 or 6 fields, got %d", lineNo, len(fields))
		}

		classIdx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad class index %q", lineNo, fields[0])
		}

		vals := make([]float64, 4)
		for i := 0; i < 4; i++ {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad coordinate %q", lineNo, fields[i+1])
			}
			vals[i] = v
		}

		conf := 1.0
		if len(fields) == 6 {
			conf, err = strconv.ParseFloat(fields[5], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad confidence %q", lineNo, fields[5])
			}
		}

		cx, cy := vals[0]*imgWidth, vals[1]*imgHeight
		w, h := vals[2]*imgWidth, vals[3]*imgHeight

		label := ""
		if classIdx >= 0 && classIdx < len(classes) {
			label = classes[classIdx]
		}

		dets = append(dets, validate.Detection{
			Label:      label,
			Confidence: conf,
			Box: geometry.Rect{
				X:      cx - w/2,
				Y:      cy - h/2,
				Width:  w,
				Height: h,
			},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return dets, nil
}

// ReadYOLOFile parses a YOLO detection file from disk.
func ReadYOLOFile(path string, imgWidth, imgHeight float64, classes []string) ([]validate.Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseYOLO(f, imgWidth, imgHeight, classes)
}

// DetectionsToShapes converts detections to rectangle shapes for overlaying
// model output on the canvas.
func DetectionsToShapes(dets []validate.Detection) []*shape.Shape {
	shapes := make([]*shape.Shape, 0, len(dets))
	for _, d := range dets {
		sh := shape.NewRectangle(d.Box)
		sh.Label = d.Label
		sh.Style.StrokeColor = shape.LabelColor(d.Label)
		sh.Style.FillColor = shape.LabelColor(d.Label)
		shapes = append(shapes, sh)
	}
	return shapes
}

// WriteYOLO writes detections back out in normalized YOLO format.
func WriteYOLO(w io.Writer, dets []validate.Detection, imgWidth, imgHeight float64, classes []string) error {
	if imgWidth <= 0 || imgHeight <= 0 {
		return fmt.Errorf("invalid image dimensions %gx%g", imgWidth, imgHeight)
	}

	classIdx := make(map[string]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	for _, d := range dets {
		idx, ok := classIdx[d.Label]
		if !ok {
			continue
		}
		c := d.Box.Center()
		_, err := fmt.Fprintf(w, "%d %.6f %.6f %.6f %.6f %.4f\n",
			idx,
			c.X/imgWidth, c.Y/imgHeight,
			d.Box.Width/imgWidth, d.Box.Height/imgHeight,
			d.Confidence)
		if err != nil {
			return err
		}
	}
	return nil
}
