package processing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/instacrop/pkg/cropper"
	"github.com/menta2k/instacrop/pkg/types"
)

// Processor handles the pixel work around the geometry core: decoding,
// cropping, resizing and encoding.
type Processor struct {
	client *http.Client
	logger *zap.Logger
	encode encodeFunc
}

type encodeFunc func(img image.Image, path, format string, quality int, lossless bool) error

// NewProcessor creates a new image processor. A nil logger disables logging.
func NewProcessor(logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
		encode: encodeFile,
	}
}

// LoadImageFromURL downloads and loads an image from a URL
func (p *Processor) LoadImageFromURL(ctx context.Context, imageURL string) (image.Image, error) {
	// Validate URL
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "instacrop/1.0 (+https://github.com/menta2k/instacrop)")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	p.logger.Debug("downloaded image", zap.String("url", imageURL), zap.Int("bytes", len(imageData)))
	return p.decodeImageFromBytes(imageData)
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := p.decodeImageFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(ctx context.Context, source string) (image.Image, error) {
	if IsURL(source) {
		return p.LoadImageFromURL(ctx, source)
	}
	return p.LoadImage(source)
}

// IsURL reports whether source should be fetched over http(s)
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// Crop cuts rect out of img and, when size is non-nil, resizes the result to
// exactly that size with a Lanczos filter.
func (p *Processor) Crop(img image.Image, rect cropper.Rect, size *cropper.Dimensions) (image.Image, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("empty crop rectangle %v", rect)
	}

	bounds := img.Bounds()
	r := rect.Image().Add(bounds.Min).Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("crop rectangle %v outside image %v", rect, bounds)
	}

	var out image.Image = imaging.Crop(img, r)
	if size != nil {
		out = imaging.Resize(out, size.Width, size.Height, imaging.Lanczos)
	}
	return out, nil
}

// ResolveFormat picks the encoder for a destination extension. An explicit
// format wins; unrecognised extensions fall back to PNG. The returned
// extension includes the leading dot.
func ResolveFormat(ext, override string) (format string, outExt string) {
	name := strings.ToLower(strings.TrimPrefix(override, "."))
	if name == "" {
		name = strings.ToLower(strings.TrimPrefix(ext, "."))
	}

	switch name {
	case "jpg", "jpeg":
		if override != "" {
			return "jpeg", ".jpg"
		}
		return "jpeg", ext
	case "png", "gif", "bmp", "webp":
		if override != "" {
			return name, "." + name
		}
		return name, ext
	case "tif", "tiff":
		if override != "" {
			return "tiff", ".tiff"
		}
		return "tiff", ext
	default:
		return "png", ".png"
	}
}

// SaveImage writes img to path using the encoder implied by its extension
// (or opts.Format). The path actually written is returned, since an
// unrecognised extension is replaced by .png and an empty result is retried
// once as "<name>_backup.jpg" flattened onto white.
func (p *Processor) SaveImage(img image.Image, path string, opts types.EncodeOptions) (string, error) {
	ext := filepath.Ext(path)
	format, outExt := ResolveFormat(ext, opts.Format)
	if outExt != ext {
		if opts.Format == "" {
			p.logger.Warn("unrecognised format, saving as png", zap.String("path", path))
		}
		path = strings.TrimSuffix(path, ext) + outExt
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = types.DefaultQuality
	}

	if err := p.encode(img, path, format, quality, opts.Lossless); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("output file was not created: %w", err)
	}
	if info.Size() == 0 {
		p.logger.Warn("output file is empty, retrying as jpeg", zap.String("path", path))
		_ = os.Remove(path)
		return p.saveBackup(img, strings.TrimSuffix(path, outExt)+"_backup.jpg")
	}

	p.logger.Debug("saved image",
		zap.String("path", path),
		zap.String("format", format),
		zap.Int64("bytes", info.Size()))
	return path, nil
}

// saveBackup flattens img onto white and writes it as a quality 95 JPEG
func (p *Processor) saveBackup(img image.Image, path string) (string, error) {
	bounds := img.Bounds()
	flat := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	if err := p.encode(flat, path, "jpeg", types.DefaultQuality, false); err != nil {
		return "", fmt.Errorf("failed to save backup %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("backup file was not created: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("output file is empty: %s", path)
	}
	p.logger.Info("saved backup image", zap.String("path", path), zap.Int64("bytes", info.Size()))
	return path, nil
}

func encodeFile(img image.Image, path, format string, quality int, lossless bool) error {
	switch format {
	case "webp":
		return saveWebP(img, path, quality, lossless)
	case "jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	default:
		return imaging.Save(img, path)
	}
}

func saveWebP(img image.Image, path string, quality int, lossless bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
	if err := webp.Encode(f, img, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
