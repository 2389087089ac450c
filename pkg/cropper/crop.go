package cropper

import "fmt"

// ComputeCrop returns the centered box matching the preset's aspect ratio.
// Wider sources lose width, taller or equal ones lose height; the full extent
// of the other axis is kept. No scaling happens here.
func ComputeCrop(dims Dimensions, preset AspectPreset) (Rect, error) {
	if err := dims.Validate(); err != nil {
		return Rect{}, err
	}
	if err := preset.Validate(); err != nil {
		return Rect{}, err
	}

	var r Rect
	// Strict > decides the axis at the tie point; equal ratios crop height.
	if dims.Ratio() > preset.Ratio() {
		newWidth := widthForHeight(dims.Height, preset)
		r.Left = (dims.Width - newWidth) / 2
		r.Top = 0
		r.Right = r.Left + newWidth
		r.Bottom = dims.Height
	} else {
		newHeight := heightForWidth(dims.Width, preset)
		r.Left = 0
		r.Top = (dims.Height - newHeight) / 2
		r.Right = dims.Width
		r.Bottom = r.Top + newHeight
	}

	if r.Empty() {
		return Rect{}, fmt.Errorf("%w: crop %v for %v at %d:%d",
			ErrInvalidGeometry, r, dims, preset.RatioW, preset.RatioH)
	}
	return r, nil
}

// widthForHeight is floor(height * ratioW / ratioH) computed on integers so an
// exact-ratio source maps back onto itself without float drift.
func widthForHeight(height int, preset AspectPreset) int {
	return int(int64(height) * int64(preset.RatioW) / int64(preset.RatioH))
}

// heightForWidth is floor(width * ratioH / ratioW)
func heightForWidth(width int, preset AspectPreset) int {
	return int(int64(width) * int64(preset.RatioH) / int64(preset.RatioW))
}
