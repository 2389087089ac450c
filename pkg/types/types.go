package types

import (
	"fmt"
	"time"

	"github.com/menta2k/instacrop/pkg/cropper"
)

// DefaultQuality is the JPEG/WebP quality used when none is configured
const DefaultQuality = 95

// EncodeOptions controls how output images are written
type EncodeOptions struct {
	// Format overrides the source extension when set: jpg|png|gif|bmp|tiff|webp
	Format   string
	Quality  int
	Lossless bool
}

// ItemResult is the outcome of processing one source image
type ItemResult struct {
	Source     string             `json:"source"`
	Dimensions cropper.Dimensions `json:"dimensions"`
	Mode       string             `json:"mode"`
	Outputs    []string           `json:"outputs,omitempty"`
	Err        string             `json:"error,omitempty"`
}

// OK reports whether the item produced at least one output without error
func (r ItemResult) OK() bool {
	return r.Err == "" && len(r.Outputs) > 0
}

// Summary is the end-of-batch tally
type Summary struct {
	RunID     string        `json:"run_id"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Outputs   int           `json:"outputs"`
	Elapsed   time.Duration `json:"elapsed"`
	Items     []ItemResult  `json:"items"`
}

// Message renders the summary the way it is shown to users at the end of a run
func (s Summary) Message() string {
	if s.Failed > 0 {
		return fmt.Sprintf("Successfully processed %d of %d images.\n%d images could not be processed.\nTotal output images: %d",
			s.Processed, s.Total, s.Failed, s.Outputs)
	}
	return fmt.Sprintf("Successfully processed %d images.\nTotal output images: %d", s.Processed, s.Outputs)
}
