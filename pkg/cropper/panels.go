package cropper

import "fmt"

// MaxPanels returns how many carousel panels an image can be split into,
// in [1, MaxPanelLimit]. Presets without a fixed size always yield 1.
func MaxPanels(dims Dimensions, preset AspectPreset) int {
	if !preset.HasFixedSize() || preset.FixedSize.Width <= 0 || dims.Width <= 0 {
		return 1
	}

	possible := dims.Width / preset.FixedSize.Width
	if possible > MaxPanelLimit {
		possible = MaxPanelLimit
	}
	if possible < 1 {
		possible = 1
	}
	return possible
}

// IsSplitEligible reports whether split mode may be enabled for the image
func IsSplitEligible(dims Dimensions, preset AspectPreset) bool {
	return MaxPanels(dims, preset) >= MinSplitPanels
}

// ClampPanels raises requested to MinSplitPanels and lowers it to MaxPanels.
// The result is below MinSplitPanels only when the image is not eligible.
func ClampPanels(requested int, dims Dimensions, preset AspectPreset) int {
	if requested < MinSplitPanels {
		requested = MinSplitPanels
	}
	if limit := MaxPanels(dims, preset); requested > limit {
		requested = limit
	}
	return requested
}

// ComputePanels splits a wide image into ordered, left-to-right panels that
// each span the full source height. An over-large request is reduced to
// MaxPanels rather than rejected.
func ComputePanels(dims Dimensions, preset AspectPreset, requested int) (PanelPlan, error) {
	if err := dims.Validate(); err != nil {
		return PanelPlan{}, err
	}
	if err := preset.Validate(); err != nil {
		return PanelPlan{}, err
	}
	if !preset.HasFixedSize() {
		return PanelPlan{}, fmt.Errorf("%w: preset %d:%d has no fixed size",
			ErrNotSplittable, preset.RatioW, preset.RatioH)
	}

	numPanels := ClampPanels(requested, dims, preset)
	if numPanels < MinSplitPanels {
		return PanelPlan{}, fmt.Errorf("%w: width %d holds fewer than %d panels of %d",
			ErrNotSplittable, dims.Width, MinSplitPanels, preset.FixedSize.Width)
	}

	panelWidth := dims.Width / numPanels
	// Evenly divided panels too narrow for the ratio at full height are
	// widened to the exact ratio width instead.
	if heightForWidth(panelWidth, preset) < dims.Height {
		panelWidth = widthForHeight(dims.Height, preset)
	}
	if panelWidth <= 0 {
		return PanelPlan{}, fmt.Errorf("%w: panel width %d for %v",
			ErrInvalidGeometry, panelWidth, dims)
	}

	plan := PanelPlan{
		PanelCount: numPanels,
		PanelWidth: panelWidth,
		Panels:     make([]Rect, 0, numPanels),
	}

	var startOffset int
	totalWidthNeeded := panelWidth * numPanels
	if totalWidthNeeded <= dims.Width {
		plan.Spacing = (dims.Width - totalWidthNeeded) / (numPanels + 1)
		startOffset = plan.Spacing
	} else {
		// truncation of the real-valued share
		plan.OverlapPixels = (totalWidthNeeded - dims.Width) / (numPanels - 1)
	}

	step := panelWidth - plan.OverlapPixels
	for i := 0; i < numPanels; i++ {
		left := startOffset + i*step
		if left < 0 {
			left = 0
		}
		right := left + panelWidth
		if right > dims.Width {
			left = dims.Width - panelWidth
			right = dims.Width
		}
		// Panels wider than the source collapse onto the full width. They are
		// then identical duplicates and no longer at the target ratio.
		if left < 0 {
			left = 0
		}
		if left >= right {
			continue
		}
		plan.Panels = append(plan.Panels, Rect{Left: left, Top: 0, Right: right, Bottom: dims.Height})
	}

	return plan, nil
}

// ComputePanelsStrict behaves like ComputePanels but rejects a request larger
// than MaxPanels with ErrTooManyPanels instead of reducing it.
func ComputePanelsStrict(dims Dimensions, preset AspectPreset, requested int) (PanelPlan, error) {
	if limit := MaxPanels(dims, preset); limit >= MinSplitPanels && requested > limit {
		return PanelPlan{}, fmt.Errorf("%w: requested %d, image holds %d",
			ErrTooManyPanels, requested, limit)
	}
	return ComputePanels(dims, preset, requested)
}
