package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/menta2k/instacrop"
	"github.com/menta2k/instacrop/internal/config"
	"github.com/menta2k/instacrop/internal/logging"
	"github.com/menta2k/instacrop/internal/utils"
	"github.com/menta2k/instacrop/pkg/analyzer"
	"github.com/menta2k/instacrop/pkg/cropper"
	"github.com/menta2k/instacrop/pkg/preset"
	"github.com/menta2k/instacrop/pkg/selection"
	"github.com/menta2k/instacrop/pkg/types"
)

// planReport is what -plan prints for each input
type planReport struct {
	Source     string             `json:"source"`
	Dimensions cropper.Dimensions `json:"dimensions"`
	Preset     string             `json:"preset"`
	Mode       string             `json:"mode,omitempty"`
	MaxPanels  int                `json:"max_panels,omitempty"`
	SplitInfo  string             `json:"split_info,omitempty"`
	Plan       *selection.Plan    `json:"plan,omitempty"`
	Err        string             `json:"error,omitempty"`
}

func main() {
	var configPath, presetName, outDir, format string
	var logLevel, logMode, logFile string
	var panels, quality, workers int
	var split, strict, lossless, preview bool
	var planOnly, listPresets, saveConfig, showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default ~/.config/instacrop/config.yaml)")
	flag.StringVar(&presetName, "preset", "", "preset name: feed|grid-feed|reels or a configured one")
	flag.BoolVar(&split, "split", false, "split wide images into carousel panels")
	flag.IntVar(&panels, "panels", 0, "requested number of panels (2-5)")
	flag.BoolVar(&strict, "strict", false, "fail instead of lowering a panel count the image cannot hold")

	flag.StringVar(&outDir, "out", "", "output directory")
	flag.StringVar(&format, "format", "", "output format: jpg|png|webp|gif|bmp|tiff (default: keep input extension)")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP output lossless mode")
	flag.BoolVar(&preview, "preview", false, "also write the source with crop boxes drawn on it")
	flag.IntVar(&workers, "workers", 0, "images processed in parallel")

	flag.BoolVar(&planOnly, "plan", false, "print crop geometry as JSON without writing images")
	flag.BoolVar(&listPresets, "list-presets", false, "list available presets and exit")
	flag.BoolVar(&saveConfig, "save-config", false, "write the effective configuration to -config and exit")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")

	flag.StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")
	flag.StringVar(&logMode, "log-mode", "", "log mode: debug (console) or release (JSON)")
	flag.StringVar(&logFile, "log-file", "", "also write rotated JSON logs to this file")

	flag.Parse()

	if showVersion {
		fmt.Println(instacrop.GetVersion())
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	// explicit flags win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "preset":
			cfg.Crop.Preset = presetName
		case "split":
			cfg.Crop.Split = split
		case "panels":
			cfg.Crop.Panels = panels
		case "strict":
			cfg.Crop.Strict = strict
		case "out":
			cfg.Output.Dir = outDir
		case "format":
			cfg.Output.Format = format
		case "quality":
			cfg.Output.Quality = quality
		case "lossless":
			cfg.Output.Lossless = lossless
		case "preview":
			cfg.Output.Preview = preview
		case "workers":
			cfg.Batch.Workers = workers
		case "log-level":
			cfg.Log.Level = logLevel
		case "log-mode":
			cfg.Log.Mode = logMode
		case "log-file":
			cfg.Log.File = logFile
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if saveConfig {
		path := configPath
		if path == "" {
			path = config.GetConfigPath()
		}
		if utils.FileExists(path) {
			log.Printf("overwriting %s", path)
		}
		if err := cfg.SaveToFile(path); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", path)
		return
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		log.Fatal(err)
	}
	if listPresets {
		for _, p := range catalog.Presets() {
			fmt.Println(p.Describe())
		}
		return
	}

	if flag.NArg() == 0 {
		log.Fatalf("usage: %s [flags] image|dir|glob|URL ...", filepath.Base(os.Args[0]))
	}

	logger, err := logging.New(logging.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		log.Fatal(err)
	}
	defer logging.Sync(logger)

	p, err := cfg.SelectedPreset()
	if err != nil {
		logger.Fatal("preset lookup failed", zap.Error(err))
	}

	sources, err := utils.CollectInputs(flag.Args())
	if err != nil {
		logger.Fatal("no inputs", zap.Error(err))
	}

	tool := instacrop.New(instacrop.Options{
		Preset:    p,
		Split:     cfg.Crop.Split,
		Panels:    cfg.Crop.Panels,
		Strict:    cfg.Crop.Strict,
		OutputDir: cfg.Output.Dir,
		Encode: types.EncodeOptions{
			Format:   cfg.Output.Format,
			Quality:  cfg.Output.Quality,
			Lossless: cfg.Output.Lossless,
		},
		Preview: cfg.Output.Preview,
	}, logger)

	if planOnly {
		printPlans(tool, p, sources)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := tool.ProcessBatch(ctx, sources, cfg.Batch.Workers, func(done, total int, item types.ItemResult) {
		if !item.OK() {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", done, total, item.Source, item.Err)
			return
		}
		for _, out := range item.Outputs {
			size := ""
			if info, err := os.Stat(out); err == nil {
				size = " (" + utils.FormatFileSize(info.Size()) + ")"
			}
			fmt.Printf("[%d/%d] wrote %s%s\n", done, total, out, size)
		}
	})
	if err != nil {
		logger.Fatal("batch aborted", zap.Error(err))
	}

	fmt.Println(summary.Message())
	if summary.Processed == 0 {
		logging.Sync(logger)
		os.Exit(1)
	}
}

// printPlans reports geometry from image headers only, without decoding pixels
func printPlans(tool *instacrop.Tool, p preset.Preset, sources []string) {
	probe := analyzer.New()
	reports := make([]planReport, 0, len(sources))

	for _, src := range sources {
		r := planReport{Source: src, Preset: p.Name}
		info, err := probe.Probe(src)
		if err != nil {
			r.Err = err.Error()
			reports = append(reports, r)
			continue
		}
		r.Dimensions = info.Dimensions

		sel := selection.New(p)
		if err := sel.SetImage(info.Dimensions); err != nil {
			r.Err = err.Error()
			reports = append(reports, r)
			continue
		}
		r.MaxPanels = sel.MaxPanels()
		r.SplitInfo = sel.SplitInfo()

		plan, err := tool.PlanImage(info.Dimensions)
		if err != nil {
			r.Err = err.Error()
		} else {
			r.Mode = plan.Mode.String()
			r.Plan = &plan
		}
		reports = append(reports, r)
	}

	js, _ := json.MarshalIndent(reports, "", "  ")
	fmt.Println(string(js))
}
