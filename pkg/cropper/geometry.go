package cropper

import (
	"fmt"
	"image"
)

// Panel count limits for carousel splitting
const (
	MinSplitPanels = 2
	MaxPanelLimit  = 5
)

// Dimensions is the pixel size of a source or derived image
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate reports ErrInvalidGeometry unless both sides are positive
func (d Dimensions) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidGeometry, d.Width, d.Height)
	}
	return nil
}

// Ratio returns width / height
func (d Dimensions) Ratio() float64 {
	return float64(d.Width) / float64(d.Height)
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// DimensionsOf returns the size of an image's bounds
func DimensionsOf(img image.Image) Dimensions {
	b := img.Bounds()
	return Dimensions{Width: b.Dx(), Height: b.Dy()}
}

// AspectPreset is a target aspect ratio with an optional fixed output size.
// FixedSize is expected, not enforced, to share the RatioW:RatioH ratio.
type AspectPreset struct {
	RatioW    int         `json:"ratio_w"`
	RatioH    int         `json:"ratio_h"`
	FixedSize *Dimensions `json:"fixed_size,omitempty"`
}

// Ratio returns RatioW / RatioH as a float
func (p AspectPreset) Ratio() float64 {
	return float64(p.RatioW) / float64(p.RatioH)
}

// HasFixedSize reports whether outputs get resized to an exact size
func (p AspectPreset) HasFixedSize() bool {
	return p.FixedSize != nil
}

// Validate checks the ratio components and the fixed size, if any
func (p AspectPreset) Validate() error {
	if p.RatioW <= 0 || p.RatioH <= 0 {
		return fmt.Errorf("%w: ratio %d:%d", ErrInvalidGeometry, p.RatioW, p.RatioH)
	}
	if p.FixedSize != nil {
		if err := p.FixedSize.Validate(); err != nil {
			return fmt.Errorf("fixed size: %w", err)
		}
	}
	return nil
}

// Rect is a crop box in source pixel coordinates, right and bottom exclusive
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width of the box
func (r Rect) Width() int { return r.Right - r.Left }

// Height of the box
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the box has zero or negative area
func (r Rect) Empty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// Image converts the box to an image.Rectangle
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// Within reports whether the box lies inside [0,width]x[0,height]
func (r Rect) Within(d Dimensions) bool {
	return r.Left >= 0 && r.Top >= 0 && r.Right <= d.Width && r.Bottom <= d.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", r.Left, r.Top, r.Right, r.Bottom)
}

// PanelPlan is the result of splitting a wide image into carousel panels.
// Panels may be fewer than PanelCount when some collapse after clamping.
type PanelPlan struct {
	PanelCount    int    `json:"panel_count"`
	Panels        []Rect `json:"panels"`
	OverlapPixels int    `json:"overlap_pixels"`
	Spacing       int    `json:"spacing"`
	PanelWidth    int    `json:"panel_width"`
}
