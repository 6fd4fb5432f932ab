// Package region describes the rectangular screen areas that are monitored.
package region

import (
	"fmt"
	"image"
)

// UnknownLocation is used when the configuration has no name for a region.
const UnknownLocation = "Unknown"

// Region is one monitored capture area. Width and Height may be negative when
// the area was selected by dragging up or left; call Normalize before capture.
type Region struct {
	ID       int    `json:"id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Location string `json:"location"`
}

// Normalize returns the region with a top-left origin and non-negative size.
func (r Region) Normalize() Region {
	n := r
	if r.Width < 0 {
		n.X = r.X + r.Width
		n.Width = -r.Width
	}
	if r.Height < 0 {
		n.Y = r.Y + r.Height
		n.Height = -r.Height
	}
	return n
}

// Rect returns the normalized region as an image rectangle.
func (r Region) Rect() image.Rectangle {
	n := r.Normalize()
	return image.Rect(n.X, n.Y, n.X+n.Width, n.Y+n.Height)
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// WindowLabel is the display label for one pipeline of this region,
// e.g. "Gesture Tracker - Region 2 - Lobby".
func (r Region) WindowLabel(kind string) string {
	return fmt.Sprintf("%s - Region %d - %s", kind, r.ID, r.Location)
}

func (r Region) String() string {
	return fmt.Sprintf("region %d (%s) %dx%d+%d+%d", r.ID, r.Location, r.Width, r.Height, r.X, r.Y)
}
