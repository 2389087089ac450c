package analyzer

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/instacrop/pkg/cropper"
)

// ImageAnalyzer reads image headers and checks them against requirements
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
}

// DefaultSupportedFormats are the decoder names accepted by default
var DefaultSupportedFormats = []string{"jpeg", "png", "gif", "bmp", "tiff", "webp"}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			SupportedFormats: DefaultSupportedFormats,
			MinImageSize:     1,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	if len(config.SupportedFormats) == 0 {
		config.SupportedFormats = DefaultSupportedFormats
	}
	return &ImageAnalyzer{config: config}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Dimensions  cropper.Dimensions `json:"dimensions"`
	Format      string             `json:"format"`
	AspectRatio float64            `json:"aspect_ratio"`
	Area        int                `json:"area"`
}

// Probe reads only the header of the file at path and returns its info
func (a *ImageAnalyzer) Probe(path string) (ImageInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return a.ProbeReader(file)
}

// ProbeReader reads an image header from reader
func (a *ImageAnalyzer) ProbeReader(reader io.Reader) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(reader)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to decode image header: %w", err)
	}

	if !a.isFormatSupported(format) {
		return ImageInfo{}, fmt.Errorf("unsupported image format: %s", format)
	}

	info := newImageInfo(cfg.Width, cfg.Height)
	info.Format = format
	return info, nil
}

// GetImageInfo returns basic information about a decoded image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	return newImageInfo(bounds.Dx(), bounds.Dy())
}

func newImageInfo(width, height int) ImageInfo {
	info := ImageInfo{
		Dimensions: cropper.Dimensions{Width: width, Height: height},
		Area:       width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
		if strings.EqualFold(supported, "jpg") && strings.EqualFold(format, "jpeg") {
			return true
		}
	}
	return false
}

// Validate checks that the dimensions meet minimum requirements
func (a *ImageAnalyzer) Validate(dims cropper.Dimensions) error {
	if err := dims.Validate(); err != nil {
		return err
	}
	if dims.Width < a.config.MinImageSize || dims.Height < a.config.MinImageSize {
		return fmt.Errorf("image too small: %v (minimum: %d)", dims, a.config.MinImageSize)
	}
	return nil
}

// ValidateImage checks if a decoded image meets minimum requirements
func (a *ImageAnalyzer) ValidateImage(img image.Image) error {
	return a.Validate(cropper.DimensionsOf(img))
}
