// Package instacrop prepares photos for Instagram-style posting.
//
// It crops a source image to a preset aspect ratio (Feed 4:5, Grid Feed 3:4,
// Reels 9:16 or a custom one) around its center, and optionally splits an
// unusually wide image into 2 to 5 panels for a swipeable carousel. Every
// exported image is a valid crop for the preset and, when the preset has a
// fixed size, is resized to exactly that size.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"github.com/menta2k/instacrop"
//		"github.com/menta2k/instacrop/pkg/preset"
//	)
//
//	func main() {
//		tool := instacrop.New(instacrop.Options{
//			Preset:    preset.Feed,
//			Split:     true,
//			Panels:    3,
//			OutputDir: "out",
//		}, nil)
//
//		res := tool.ProcessImage(context.Background(), "panorama.jpg")
//		if !res.OK() {
//			log.Fatal(res.Err)
//		}
//		fmt.Println(res.Outputs)
//	}
//
// The package consists of these components:
//
// 1. Cropper (pkg/cropper): pure crop and panel geometry, no I/O
// 2. Selection (pkg/selection): current preset/split/panel choice and eligibility
// 3. Analyzer (pkg/analyzer): header probing and validation
// 4. Processing (pkg/processing): decoding, pixel cropping, resizing and encoding
// 5. Batch (pkg/batch): bounded parallel processing with a per-item summary
package instacrop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/menta2k/instacrop/internal/utils"
	"github.com/menta2k/instacrop/pkg/analyzer"
	"github.com/menta2k/instacrop/pkg/batch"
	"github.com/menta2k/instacrop/pkg/cropper"
	"github.com/menta2k/instacrop/pkg/preset"
	"github.com/menta2k/instacrop/pkg/processing"
	"github.com/menta2k/instacrop/pkg/selection"
	"github.com/menta2k/instacrop/pkg/types"
)

// Version of the instacrop library
const Version = "1.0.0"

// Options describes what to produce for each source image
type Options struct {
	Preset preset.Preset
	// Split exports carousel panels when the image is wide enough
	Split  bool
	Panels int
	// Strict rejects a panel count the image cannot hold instead of lowering it
	Strict    bool
	OutputDir string
	Encode    types.EncodeOptions
	// Preview also writes the source with the crop boxes drawn on it
	Preview bool
}

// Tool ties the geometry core to image decoding and encoding
type Tool struct {
	opts      Options
	analyzer  *analyzer.ImageAnalyzer
	processor *processing.Processor
	logger    *zap.Logger
}

// New creates a Tool with the given options. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Tool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Preset.Name == "" {
		opts.Preset = preset.Default
	}
	if opts.Panels == 0 {
		opts.Panels = selection.DefaultPanels
	}
	if opts.Encode.Quality == 0 {
		opts.Encode.Quality = types.DefaultQuality
	}
	return &Tool{
		opts:      opts,
		analyzer:  analyzer.New(),
		processor: processing.NewProcessor(logger),
		logger:    logger,
	}
}

// Options returns the options the tool was built with, defaults applied
func (t *Tool) Options() Options {
	return t.opts
}

// PlanImage computes the crop or panel geometry for an image of the given size.
// Split mode falls back to a single crop when the image is not eligible.
func (t *Tool) PlanImage(dims cropper.Dimensions) (selection.Plan, error) {
	sel := selection.New(t.opts.Preset)
	if err := sel.SetImage(dims); err != nil {
		return selection.Plan{}, err
	}

	if t.opts.Split && sel.SplitEligible() {
		if t.opts.Strict {
			pp, err := cropper.ComputePanelsStrict(dims, t.opts.Preset.Aspect, t.opts.Panels)
			if err != nil {
				return selection.Plan{}, err
			}
			return selection.Plan{Mode: selection.ModeSplit, Panels: &pp}, nil
		}
		sel.SetPanels(t.opts.Panels)
		if err := sel.SetSplit(true); err != nil {
			return selection.Plan{}, err
		}
	}

	return sel.Plan()
}

// ProcessImage loads source, crops or splits it and writes the results to
// the output directory. The returned result carries either the written paths
// or the reason for failure.
func (t *Tool) ProcessImage(ctx context.Context, source string) types.ItemResult {
	stem, _ := utils.SplitName(source)
	return t.processImage(ctx, source, stem)
}

// processImage writes every output of source under the given stem
func (t *Tool) processImage(ctx context.Context, source, stem string) types.ItemResult {
	res := types.ItemResult{Source: source}
	logger := t.logger.With(zap.String("source", source))

	img, err := t.processor.LoadImageSmart(ctx, source)
	if err != nil {
		res.Err = fmt.Sprintf("failed to load image: %v", err)
		return res
	}

	dims := cropper.DimensionsOf(img)
	res.Dimensions = dims
	if err := t.analyzer.Validate(dims); err != nil {
		res.Err = fmt.Sprintf("image validation failed: %v", err)
		return res
	}

	plan, err := t.PlanImage(dims)
	if err != nil {
		res.Err = fmt.Sprintf("geometry failed: %v", err)
		return res
	}
	res.Mode = plan.Mode.String()

	presetName := t.opts.Preset.FormatName()
	fixed := t.opts.Preset.Aspect.FixedSize
	_, ext := utils.SplitName(source)

	var boxes []cropper.Rect
	switch plan.Mode {
	case selection.ModeSplit:
		n := plan.Panels.PanelCount
		logger.Debug("splitting image",
			zap.Stringer("dims", dims),
			zap.Int("panels", n),
			zap.Int("overlap", plan.Panels.OverlapPixels))
		for i, rect := range plan.Panels.Panels {
			name := utils.PanelName(stem, presetName, ext, i+1, n)
			path, err := t.export(img, rect, fixed, name)
			if err != nil {
				logger.Warn("panel failed", zap.Int("panel", i+1), zap.Error(err))
				continue
			}
			res.Outputs = append(res.Outputs, path)
		}
		boxes = plan.Panels.Panels
		if len(res.Outputs) == 0 {
			res.Err = "no panels could be saved"
		}
	default:
		logger.Debug("cropping image", zap.Stringer("dims", dims), zap.Stringer("crop", *plan.Crop))
		path, err := t.export(img, *plan.Crop, fixed, utils.SingleName(stem, presetName, ext))
		if err != nil {
			res.Err = err.Error()
			return res
		}
		res.Outputs = append(res.Outputs, path)
		boxes = []cropper.Rect{*plan.Crop}
	}

	if t.opts.Preview && len(res.Outputs) > 0 {
		previewPath := filepath.Join(t.opts.OutputDir, fmt.Sprintf("%s_%s_preview.png", stem, presetName))
		preview := t.processor.CreatePreview(img, boxes)
		if _, err := t.processor.SaveImage(preview, previewPath, types.EncodeOptions{}); err != nil {
			logger.Warn("preview failed", zap.Error(err))
		}
	}

	return res
}

func (t *Tool) export(img image.Image, rect cropper.Rect, size *cropper.Dimensions, name string) (string, error) {
	out, err := t.processor.Crop(img, rect, size)
	if err != nil {
		return "", err
	}
	return t.processor.SaveImage(out, filepath.Join(t.opts.OutputDir, name), t.opts.Encode)
}

// ProcessBatch prepares the output directory and processes every source with
// up to workers images in flight. Only an unusable output directory is fatal.
// Output stems are reserved in input order before any work starts: a later
// source whose names would clash with an earlier one gets a "_2", "_3", ...
// suffix on its stem.
func (t *Tool) ProcessBatch(ctx context.Context, sources []string, workers int, progress batch.ProgressFunc) (types.Summary, error) {
	if len(sources) == 0 {
		return types.Summary{}, errors.New("no input images")
	}
	if err := utils.EnsureWritableDir(t.opts.OutputDir); err != nil {
		return types.Summary{}, err
	}

	run := &batchRun{tool: t, stems: make(map[string][]string, len(sources))}
	names := utils.NewNameSet()
	for _, src := range sources {
		stem, ext := utils.SplitName(src)
		_, outExt := processing.ResolveFormat(ext, t.opts.Encode.Format)
		reserved := names.Reserve(stem, outExt)
		if reserved != stem {
			t.logger.Info("output name taken, using suffix",
				zap.String("source", src), zap.String("stem", reserved))
		}
		run.stems[src] = append(run.stems[src], reserved)
	}

	runner := batch.New(run, workers, t.logger)
	if progress != nil {
		runner.OnProgress(progress)
	}
	return runner.Run(ctx, sources), nil
}

// batchRun hands each source the stem reserved for it. A source listed
// twice holds one stem per occurrence.
type batchRun struct {
	tool  *Tool
	mu    sync.Mutex
	stems map[string][]string
}

func (r *batchRun) ProcessImage(ctx context.Context, source string) types.ItemResult {
	r.mu.Lock()
	queue := r.stems[source]
	var stem string
	if len(queue) > 0 {
		stem, r.stems[source] = queue[0], queue[1:]
	} else {
		stem, _ = utils.SplitName(source)
	}
	r.mu.Unlock()

	return r.tool.processImage(ctx, source, stem)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
