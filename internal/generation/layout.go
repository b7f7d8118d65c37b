package generation

import "aicodegen-backend/internal/models"

type deviceFrame struct {
	Type   string
	Label  string
	Width  int
	Height int
}

var deviceFrames = []deviceFrame{
	{Type: models.ScreenTypeDesktop, Label: "Desktop", Width: 1440, Height: 900},
	{Type: models.ScreenTypeTablet, Label: "Tablet", Width: 768, Height: 1024},
	{Type: models.ScreenTypeMobile, Label: "Mobile", Width: 375, Height: 812},
}

const canvasGap = 100

// Placement is where one device frame of a screen sits on the canvas.
type Placement struct {
	Type   string
	Label  string
	Width  int
	Height int
	X      int
	Y      int
}

// ScreenPlacements lays out the device frames for the screenIndex-th SCREEN step
// of a run. Each device type owns a column and each screen a horizontal band
// tall enough for the tallest frame, so screens never overlap.
func ScreenPlacements(screenIndex int) []Placement {
	bandHeight := 0
	for _, f := range deviceFrames {
		if f.Height > bandHeight {
			bandHeight = f.Height
		}
	}

	out := make([]Placement, 0, len(deviceFrames))
	x := 0
	for _, f := range deviceFrames {
		out = append(out, Placement{
			Type:   f.Type,
			Label:  f.Label,
			Width:  f.Width,
			Height: f.Height,
			X:      x,
			Y:      screenIndex * (bandHeight + canvasGap),
		})
		x += f.Width + canvasGap
	}
	return out
}
