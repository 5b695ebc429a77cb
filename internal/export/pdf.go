// Package export produces PDF reports summarizing an annotation session.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"vru-annotate/internal/shape"
	"vru-annotate/internal/validate"
)

// Report collects everything that goes into a session report.
type Report struct {
	VideoPath   string
	FrameCount  int
	FrameShapes map[int][]*shape.Shape
	Validation  *validate.Summary
}

// WritePDF renders the report to a PDF file.
func WritePDF(path string, rep Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Annotation Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Video: %s", rep.VideoPath))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Frames: %d", rep.FrameCount))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")))
	pdf.Ln(10)

	writeLabelBreakdown(pdf, rep.FrameShapes)
	writeFrameTable(pdf, rep.FrameShapes)

	if rep.Validation != nil {
		writeValidation(pdf, *rep.Validation)
	}

	return pdf.OutputFileAndClose(path)
}

func writeLabelBreakdown(pdf *gofpdf.Fpdf, frameShapes map[int][]*shape.Shape) {
	counts := map[string]int{}
	total := 0
	for _, shapes := range frameShapes {
		for _, sh := range shapes {
			label := sh.Label
			if label == "" {
				label = "(unlabeled)"
			}
			counts[label]++
			total++
		}
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Annotations by label (%d total)", total))
	pdf.Ln(9)

	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	pdf.SetFont("Arial", "", 10)
	for _, l := range labels {
		pdf.Cell(60, 6, l)
		pdf.Cell(0, 6, fmt.Sprintf("%d", counts[l]))
		pdf.Ln(6)
	}
	pdf.Ln(4)
}

func writeFrameTable(pdf *gofpdf.Fpdf, frameShapes map[int][]*shape.Shape) {
	frames := make([]int, 0, len(frameShapes))
	for f, shapes := range frameShapes {
		if len(shapes) > 0 {
			frames = append(frames, f)
		}
	}
	if len(frames) == 0 {
		return
	}
	sort.Ints(frames)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Annotated frames")
	pdf.Ln(9)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 6, "Frame")
	pdf.Cell(30, 6, "Shapes")
	pdf.Cell(0, 6, "Labels")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 10)
	for _, f := range frames {
		shapes := frameShapes[f]
		labelSet := map[string]bool{}
		for _, sh := range shapes {
			if sh.Label != "" {
				labelSet[sh.Label] = true
			}
		}
		labels := make([]string, 0, len(labelSet))
		for l := range labelSet {
			labels = append(labels, l)
		}
		sort.Strings(labels)

		pdf.Cell(30, 6, fmt.Sprintf("%d", f))
		pdf.Cell(30, 6, fmt.Sprintf("%d", len(shapes)))
		pdf.Cell(0, 6, joinMax(labels, 60))
		pdf.Ln(6)
	}
	pdf.Ln(4)
}

func writeValidation(pdf *gofpdf.Fpdf, s validate.Summary) {
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Detector validation")
	pdf.Ln(9)

	pdf.SetFont("Arial", "", 10)
	rows := []struct {
		name  string
		value string
	}{
		{"Frames compared", fmt.Sprintf("%d", s.Frames)},
		{"True positives", fmt.Sprintf("%d", s.TruePositives)},
		{"False positives", fmt.Sprintf("%d", s.FalsePositives)},
		{"False negatives", fmt.Sprintf("%d", s.FalseNegatives)},
		{"Precision", fmt.Sprintf("%.3f", s.Precision)},
		{"Recall", fmt.Sprintf("%.3f", s.Recall)},
		{"F1", fmt.Sprintf("%.3f", s.F1)},
		{"Mean IoU", fmt.Sprintf("%.3f", s.MeanIOU)},
		{"Median IoU", fmt.Sprintf("%.3f", s.MedianIOU)},
	}
	for _, row := range rows {
		pdf.Cell(60, 6, row.name)
		pdf.Cell(0, 6, row.value)
		pdf.Ln(6)
	}
}

func joinMax(parts []string, max int) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		if len(out)+len(p) > max {
			return out + "..."
		}
		out += p
	}
	return out
}
