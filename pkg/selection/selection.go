// Package selection tracks what a user currently has chosen (image size,
// preset, split toggle, panel count) and re-derives split eligibility on
// every change, so a CLI or UI layer never caches stale geometry.
package selection

import (
	"fmt"

	"github.com/menta2k/instacrop/pkg/cropper"
	"github.com/menta2k/instacrop/pkg/preset"
)

// DefaultPanels is the panel count selected before the user picks one
const DefaultPanels = 3

// Mode is how the current image will be exported
type Mode int

const (
	ModeSingle Mode = iota
	ModeSplit
)

func (m Mode) String() string {
	if m == ModeSplit {
		return "split"
	}
	return "single"
}

// Selection is the mutable "current choice" held by the caller.
// It is not safe for concurrent use.
type Selection struct {
	preset    preset.Preset
	dims      *cropper.Dimensions
	split     bool
	requested int
	maxPanels int
}

// New returns a selection with the given preset, split off and the default panel count
func New(p preset.Preset) *Selection {
	s := &Selection{preset: p, requested: DefaultPanels}
	s.refresh()
	return s
}

// SetImage records the dimensions of the newly loaded image
func (s *Selection) SetImage(dims cropper.Dimensions) error {
	if err := dims.Validate(); err != nil {
		return err
	}
	s.dims = &dims
	s.refresh()
	return nil
}

// ClearImage forgets the current image
func (s *Selection) ClearImage() {
	s.dims = nil
	s.refresh()
}

// SetPreset switches the target preset
func (s *Selection) SetPreset(p preset.Preset) {
	s.preset = p
	s.refresh()
}

// SetSplit toggles split mode. Enabling it is refused while the image is ineligible.
func (s *Selection) SetSplit(on bool) error {
	if on && !s.SplitEligible() {
		return fmt.Errorf("%w: %s", cropper.ErrNotSplittable, s.SplitInfo())
	}
	s.split = on
	return nil
}

// SetPanels records the requested panel count, clamped to what the image allows
func (s *Selection) SetPanels(n int) {
	s.requested = n
	s.refresh()
}

// Preset returns the current preset
func (s *Selection) Preset() preset.Preset { return s.preset }

// Split reports whether split mode is on
func (s *Selection) Split() bool { return s.split }

// Panels returns the current (clamped) requested panel count
func (s *Selection) Panels() int { return s.requested }

// MaxPanels returns the panel limit for the current image and preset
func (s *Selection) MaxPanels() int { return s.maxPanels }

// SplitEligible reports whether split mode can be enabled
func (s *Selection) SplitEligible() bool {
	return s.maxPanels >= cropper.MinSplitPanels
}

// SelectablePanels lists the panel counts that may be chosen right now
func (s *Selection) SelectablePanels() []int {
	var out []int
	for n := cropper.MinSplitPanels; n <= s.maxPanels; n++ {
		out = append(out, n)
	}
	return out
}

// Mode returns how the current image would be exported
func (s *Selection) Mode() Mode {
	if s.split && s.SplitEligible() {
		return ModeSplit
	}
	return ModeSingle
}

// SplitInfo describes the split options for the current image
func (s *Selection) SplitInfo() string {
	if s.dims == nil || !s.preset.Aspect.HasFixedSize() {
		return ""
	}
	if !s.SplitEligible() {
		return "This image is not wide enough for splitting."
	}
	return fmt.Sprintf("Image can be split into up to %d panels.", s.maxPanels)
}

// Plan is the geometry for the current selection: Crop in single mode,
// Panels in split mode.
type Plan struct {
	Mode   Mode               `json:"-"`
	Crop   *cropper.Rect      `json:"crop,omitempty"`
	Panels *cropper.PanelPlan `json:"panels,omitempty"`
}

// Plan computes the geometry for the current selection
func (s *Selection) Plan() (Plan, error) {
	if s.dims == nil {
		return Plan{}, fmt.Errorf("no image selected")
	}
	if s.Mode() == ModeSplit {
		pp, err := cropper.ComputePanels(*s.dims, s.preset.Aspect, s.requested)
		if err != nil {
			return Plan{}, err
		}
		return Plan{Mode: ModeSplit, Panels: &pp}, nil
	}
	r, err := cropper.ComputeCrop(*s.dims, s.preset.Aspect)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Mode: ModeSingle, Crop: &r}, nil
}

func (s *Selection) refresh() {
	if s.dims == nil {
		s.maxPanels = 1
	} else {
		s.maxPanels = cropper.MaxPanels(*s.dims, s.preset.Aspect)
	}
	if !s.SplitEligible() {
		s.split = false
		return
	}
	s.requested = cropper.ClampPanels(s.requested, *s.dims, s.preset.Aspect)
}
