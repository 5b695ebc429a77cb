// Command framedump extracts frames from a video as PNG files, optionally
// burning in the annotations from a project file.
//
// Usage: framedump -video clip.mp4 -out frames/ [-proj session.vruproj] [-start 0] [-end -1] [-step 25]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"vru-annotate/internal/app"
	"vru-annotate/internal/frames"
	"vru-annotate/internal/render"
	"vru-annotate/internal/shape"
)

func main() {
	videoPath := flag.String("video", "", "Input video file")
	outDir := flag.String("out", "", "Output directory for PNG frames")
	projPath := flag.String("proj", "", "Optional project file whose annotations are drawn onto frames")
	start := flag.Int("start", 0, "First frame")
	end := flag.Int("end", -1, "Last frame (inclusive, -1 = end of video)")
	step := flag.Int("step", 1, "Frame step")
	grid := flag.Bool("grid", false, "Draw the alignment grid")
	flag.Parse()

	if *videoPath == "" || *outDir == "" || *step < 1 {
		fmt.Fprintln(os.Stderr, "Usage: framedump -video <file> -out <dir> [-proj <file>] [-start N] [-end N] [-step N] [-grid]")
		os.Exit(1)
	}

	var frameShapes map[string][]*shape.Shape
	if *projPath != "" {
		data, err := os.ReadFile(*projPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "framedump: %v\n", err)
			os.Exit(1)
		}
		var proj app.ProjectFile
		if err := json.Unmarshal(data, &proj); err != nil {
			fmt.Fprintf(os.Stderr, "framedump: parse project: %v\n", err)
			os.Exit(1)
		}
		frameShapes = proj.Frames
	}

	src, err := frames.Open(*videoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "framedump: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	last := src.FrameCount() - 1
	if *end >= 0 && *end < last {
		last = *end
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "framedump: %v\n", err)
		os.Exit(1)
	}

	written := 0
	for f := *start; f <= last; f += *step {
		img, err := src.Frame(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "framedump: frame %d: %v\n", f, err)
			os.Exit(1)
		}

		composed := render.Frame(img, frameShapes[strconv.Itoa(f)], nil, render.Options{
			ShowGrid:   *grid,
			ShowLabels: true,
		})

		outPath := filepath.Join(*outDir, fmt.Sprintf("frame_%06d.png", f))
		out, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "framedump: %v\n", err)
			os.Exit(1)
		}
		if err := png.Encode(out, composed); err != nil {
			out.Close()
			fmt.Fprintf(os.Stderr, "framedump: encode %s: %v\n", outPath, err)
			os.Exit(1)
		}
		out.Close()
		written++
	}

	fmt.Printf("Wrote %d frames to %s\n", written, *outDir)
}
