// Command annoconv converts annotation project files between the internal
// per-frame format and Label Studio-style percentage-coordinate regions.
//
// Usage: annoconv -in session.vruproj -out regions.json -w 1920 -h 1080 [-frame 0] [-reverse]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"vru-annotate/internal/app"
	"vru-annotate/internal/interchange"
	"vru-annotate/internal/shape"
)

func main() {
	in := flag.String("in", "", "Input file (.vruproj, or regions JSON with -reverse)")
	out := flag.String("out", "", "Output file")
	width := flag.Float64("w", 0, "Image width in pixels")
	height := flag.Float64("h", 0, "Image height in pixels")
	frame := flag.Int("frame", 0, "Frame index to export")
	reverse := flag.Bool("reverse", false, "Convert regions JSON back into a single-frame project")
	flag.Parse()

	if *in == "" || *out == "" || *width <= 0 || *height <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: annoconv -in <file> -out <file> -w <px> -h <px> [-frame N] [-reverse]")
		os.Exit(1)
	}

	var err error
	if *reverse {
		err = regionsToProject(*in, *out, *width, *height)
	} else {
		err = projectToRegions(*in, *out, *frame, *width, *height)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "annoconv: %v\n", err)
		os.Exit(1)
	}
}

func projectToRegions(in, out string, frame int, w, h float64) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	var proj app.ProjectFile
	if err := json.Unmarshal(data, &proj); err != nil {
		return fmt.Errorf("parse project %q: %w", in, err)
	}

	shapes := proj.Frames[fmt.Sprintf("%d", frame)]
	regions, err := interchange.ToRegions(shapes, w, h)
	if err != nil {
		return err
	}

	if err := interchange.WriteRegions(out, regions); err != nil {
		return err
	}
	fmt.Printf("Wrote %d regions for frame %d to %s\n", len(regions), frame, out)
	return nil
}

func regionsToProject(in, out string, w, h float64) error {
	regions, err := interchange.ReadRegions(in)
	if err != nil {
		return err
	}

	shapes, err := interchange.FromRegions(regions, w, h)
	if err != nil {
		return err
	}

	proj := app.ProjectFile{
		Version: 1,
		Frames:  map[string][]*shape.Shape{"0": shapes},
	}
	data, err := json.MarshalIndent(proj, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %d shapes to %s\n", len(shapes), out)
	return nil
}
