package cropper

import "errors"

var (
	// ErrInvalidGeometry is returned when inputs or the derived box are degenerate
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrNotSplittable is returned when a split is requested for a preset
	// without a fixed size, or for an image too narrow for two panels
	ErrNotSplittable = errors.New("image not splittable")

	// ErrTooManyPanels is returned by ComputePanelsStrict when the request
	// exceeds what the image can hold
	ErrTooManyPanels = errors.New("too many panels requested")
)
