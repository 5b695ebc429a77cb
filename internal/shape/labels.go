package shape

import (
	"image/color"

	"vru-annotate/pkg/colorutil"
)

// VRULabels is the vulnerable-road-user label set, in keyboard order
// (Shift+1 assigns the first label, Shift+5 the last).
var VRULabels = []string{
	"pedestrian",
	"cyclist",
	"motorcyclist",
	"e-scooter",
	"wheelchair",
}

// labelColors provides a highly saturated display color per VRU label.
var labelColors = map[string]color.RGBA{
	"pedestrian":   {R: 0, G: 255, B: 0, A: 255},
	"cyclist":      {R: 0, G: 128, B: 255, A: 255},
	"motorcyclist": {R: 255, G: 128, B: 0, A: 255},
	"e-scooter":    {R: 255, G: 0, B: 255, A: 255},
	"wheelchair":   {R: 0, G: 255, B: 255, A: 255},
}

// UnlabeledColor is used for shapes without an assigned label.
var UnlabeledColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// LabelColor returns the display color for a label. Labels outside the VRU
// set get a stable hue derived from the label text; the empty label gets
// UnlabeledColor.
func LabelColor(label string) color.RGBA {
	if c, ok := labelColors[label]; ok {
		return c
	}
	if label == "" {
		return UnlabeledColor
	}
	return colorutil.FromString(label)
}
