// Command gtcompare scores YOLO detector output against ground-truth
// annotations from a project file and prints precision, recall, F1 and IoU
// statistics.
//
// Detection files are looked up per frame as <dir>/<frame>.txt.
//
// Usage: gtcompare -proj session.vruproj -det detections/ -w 1920 -h 1080 [-iou 0.5]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"vru-annotate/internal/app"
	"vru-annotate/internal/interchange"
	"vru-annotate/internal/validate"
)

func main() {
	projPath := flag.String("proj", "", "Ground-truth project file (.vruproj)")
	detDir := flag.String("det", "", "Directory of per-frame YOLO detection files")
	width := flag.Float64("w", 0, "Image width in pixels")
	height := flag.Float64("h", 0, "Image height in pixels")
	iou := flag.Float64("iou", validate.DefaultIOUThreshold, "IoU threshold for a match")
	verbose := flag.Bool("v", false, "Print per-frame results")
	flag.Parse()

	if *projPath == "" || *detDir == "" || *width <= 0 || *height <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: gtcompare -proj <file> -det <dir> -w <px> -h <px> [-iou 0.5] [-v]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*projPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gtcompare: %v\n", err)
		os.Exit(1)
	}
	var proj app.ProjectFile
	if err := json.Unmarshal(data, &proj); err != nil {
		fmt.Fprintf(os.Stderr, "gtcompare: parse project: %v\n", err)
		os.Exit(1)
	}

	frames := make([]int, 0, len(proj.Frames))
	for key := range proj.Frames {
		f, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		frames = append(frames, f)
	}
	sort.Ints(frames)

	var results []validate.MatchResult
	for _, f := range frames {
		gt := validate.FromShapes(proj.Frames[strconv.Itoa(f)])

		detPath := filepath.Join(*detDir, fmt.Sprintf("%d.txt", f))
		preds, err := interchange.ReadYOLOFile(detPath, *width, *height, interchange.YOLOClasses)
		if err != nil {
			if os.IsNotExist(err) {
				preds = nil
			} else {
				fmt.Fprintf(os.Stderr, "gtcompare: frame %d: %v\n", f, err)
				os.Exit(1)
			}
		}

		res := validate.Match(preds, gt, *iou)
		results = append(results, res)

		if *verbose {
			fmt.Printf("frame %4d: TP=%d FP=%d FN=%d P=%.3f R=%.3f\n",
				f, res.TruePositives, res.FalsePositives, res.FalseNegatives,
				res.Precision(), res.Recall())
		}
	}

	s := validate.Summarize(results)
	fmt.Printf("Frames:     %d\n", s.Frames)
	fmt.Printf("TP/FP/FN:   %d / %d / %d\n", s.TruePositives, s.FalsePositives, s.FalseNegatives)
	fmt.Printf("Precision:  %.3f\n", s.Precision)
	fmt.Printf("Recall:     %.3f\n", s.Recall)
	fmt.Printf("F1:         %.3f\n", s.F1)
	fmt.Printf("Mean IoU:   %.3f\n", s.MeanIOU)
	fmt.Printf("Median IoU: %.3f\n", s.MedianIOU)
}
