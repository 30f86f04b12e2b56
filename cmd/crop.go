// -- cmd/crop.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pagetrim/pagetrim/internal/config"
	"github.com/pagetrim/pagetrim/internal/cropper"
	"github.com/pagetrim/pagetrim/internal/detect"
	"github.com/pagetrim/pagetrim/internal/observability"
	"github.com/pagetrim/pagetrim/internal/pdfdoc"
	"github.com/pagetrim/pagetrim/internal/reporting"
)

// cropFlagBindings maps viper keys to the crop command flags that override
// them. The two order selectors are bound conditionally instead: their
// config fields must stay nil when neither flag nor file sets them. The
// float-slice margin flags are also handled separately, since viper has no
// typed accessor for float64Slice flags and would surface their bracketed
// string form.
var cropFlagBindings = map[string]string{
	"crop.uniform":               "uniform",
	"crop.even_odd":              "even-odd",
	"crop.same_page_size":        "same-page-size",
	"crop.pages":                 "pages",
	"crop.full_page_box":         "full-page-box",
	"crop.boxes_to_set":          "boxes-to-set",
	"crop.no_undo_save":          "no-undo-save",
	"detect.engine":              "engine",
	"detect.ghostscript_path":    "ghostscript-path",
	"detect.dpi":                 "dpi",
	"detect.threshold":           "threshold",
	"detect.workers":             "workers",
	"detect.timeout":             "timeout",
	"detect.render_format":       "render-format",
	"output.path":                "output",
	"output.no_clobber":          "no-clobber",
	"output.modify_original":     "modify-original",
	"output.no_clobber_original": "no-clobber-original",
	"output.preview":             "preview",
	"output.report_path":         "report-path",
	"output.repair":              "repair",
}

// newCropCmd creates and configures the `crop` command.
func newCropCmd() *cobra.Command {
	var queryModify bool

	cropCmd := &cobra.Command{
		Use:   "crop <input.pdf>",
		Short: "Crops the margins of a PDF file",
		Long: `Crop detects the tight content bounding box of each selected page and
shrinks the page boxes around it, keeping the configured percentage of
each margin plus any absolute offset. The pre-crop boxes are stashed in
the file so the operation can be undone with the restore command.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so command-line values
			// override the config file and environment.
			for key, flag := range cropFlagBindings {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("order-stat") {
				if err := viper.BindPFlag("crop.uniform_order_stat", cmd.Flags().Lookup("order-stat")); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("order-percent") {
				if err := viper.BindPFlag("crop.uniform_order_percent", cmd.Flags().Lookup("order-percent")); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("percent-retain") {
				vals, err := cmd.Flags().GetFloat64Slice("percent-retain")
				if err != nil {
					return err
				}
				viper.Set("crop.percent_retain", vals)
			}
			if cmd.Flags().Changed("absolute-offset") {
				vals, err := cmd.Flags().GetFloat64Slice("absolute-offset")
				if err != nil {
					return err
				}
				viper.Set("crop.absolute_offset", vals)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Re-unmarshal now that the flag bindings are in place, so the
			// final values carry the right precedence.
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			return runCrop(cmd.Context(), cmd, cfg, observability.GetLogger(), args[0], queryModify)
		},
	}

	// Crop geometry.
	cropCmd.Flags().Float64SliceP("percent-retain", "p", []float64{0}, "Percentage of each margin to retain; one value or four (left bottom right top).")
	cropCmd.Flags().Float64SliceP("absolute-offset", "a", []float64{0}, "Absolute offset in points added to each margin; one value or four.")
	cropCmd.Flags().BoolP("uniform", "u", false, "Crop every selected page by the same amount per margin.")
	cropCmd.Flags().BoolP("even-odd", "e", false, "Crop even and odd pages as two independent groups.")
	cropCmd.Flags().BoolP("same-page-size", "s", false, "Grow every page to the union of all page sizes before cropping.")
	cropCmd.Flags().IntP("order-stat", "m", 0, "Ignore the n smallest margin deltas when choosing uniform crop values.")
	cropCmd.Flags().Float64("order-percent", 0, "Percentile variant of --order-stat, in [0, 100].")
	cropCmd.Flags().String("pages", "", "Pages to crop, e.g. '1,4-8,12'. Default is all pages.")
	cropCmd.Flags().StringSliceP("full-page-box", "f", nil, "Box kinds defining the full page (m, c, t, a, b); intersected when repeated.")
	cropCmd.Flags().StringSliceP("boxes-to-set", "b", nil, "Box kinds that receive the computed crop. Default media and crop.")
	cropCmd.Flags().Bool("no-undo-save", false, "Do not stash the original boxes for a later restore.")

	// Detection engine.
	cropCmd.Flags().String("engine", "bbox", "Bounding box detection engine: bbox or render.")
	cropCmd.Flags().String("ghostscript-path", "gs", "Path to the Ghostscript executable.")
	cropCmd.Flags().Int("dpi", 150, "Rasterization resolution for the render engine.")
	cropCmd.Flags().Int("threshold", 232, "Whiteness cutoff (0-255) for the render engine.")
	cropCmd.Flags().Int("workers", 4, "Concurrent page renders for the render engine.")
	cropCmd.Flags().Duration("timeout", 2*time.Minute, "Timeout per Ghostscript invocation.")
	cropCmd.Flags().String("render-format", "png", "Intermediate image format for the render engine: png or tiff.")

	// Output plumbing.
	cropCmd.Flags().StringP("output", "o", "", "Output file path. Default derives from the input name.")
	cropCmd.Flags().Bool("no-clobber", false, "Refuse to overwrite an existing output file.")
	cropCmd.Flags().Bool("repair", false, "Repair the input through Ghostscript before reading it.")
	cropCmd.Flags().Bool("modify-original", false, "Replace the original file, archiving it under the uncropped name.")
	cropCmd.Flags().Bool("no-clobber-original", false, "Refuse to overwrite an existing uncropped-archive file.")
	cropCmd.Flags().BoolVar(&queryModify, "query-modify-original", false, "Ask interactively whether to replace the original after cropping.")
	cropCmd.Flags().String("preview", "", "Viewer command run on the output file; pagetrim waits for it to exit.")
	cropCmd.Flags().String("report-path", "", "Write a JSON crop report to this path.")

	return cropCmd
}

// runCrop executes the crop pipeline: repair, resolve, detect, calculate,
// apply, write, then the post-write plumbing.
func runCrop(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, inputPath string, queryModify bool) error {
	// 1. File plumbing checks, before any computation.
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file %s: %w", inputPath, err)
	}

	outputPath := cfg.Output.Path
	if outputPath == "" {
		outputPath = deriveOutputPath(inputPath, cfg.Output.SuffixCropped, cfg.Output.Separator, cfg.Output.UsePrefix)
	}
	if cfg.Output.NoClobber {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("option no_clobber is set, refusing to overwrite existing output file %s", outputPath)
		}
	}

	// Both detection engines and the repair pass shell out to Ghostscript.
	if _, err := exec.LookPath(cfg.Detect.GhostscriptPath); err != nil {
		return fmt.Errorf("ghostscript executable not found: %w", err)
	}

	detectOpts := detect.Options{
		GhostscriptPath: cfg.Detect.GhostscriptPath,
		Timeout:         cfg.Detect.Timeout,
		DPI:             cfg.Detect.DPI,
		Threshold:       cfg.Detect.Threshold,
		Workers:         cfg.Detect.Workers,
		RenderFormat:    cfg.Detect.RenderFormat,
	}

	// 2. Optional repair pass; the run reads the repaired copy instead.
	readPath := inputPath
	if cfg.Output.Repair {
		logger.Info("Repairing the input file with Ghostscript before reading.", zap.String("input", inputPath))
		repaired, err := detect.Repair(ctx, detectOpts, inputPath)
		if err != nil {
			return err
		}
		defer os.Remove(repaired)
		readPath = repaired
	}

	// 3. Open the document and settle the page selection and box kinds.
	doc, err := pdfdoc.Open(readPath)
	if err != nil {
		return err
	}
	pageCount := doc.PageCount()

	selection, err := parseSelection(cfg.Crop.Pages, pageCount)
	if err != nil {
		return err
	}
	sources, err := fullPageSources(cfg.Detect.Engine, cfg.Crop.FullPageBox, logger)
	if err != nil {
		return err
	}
	targets, err := pdfdoc.ParseBoxKinds(cfg.Crop.BoxesToSet)
	if err != nil {
		return err
	}

	logger.Info("Cropping PDF.",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("pages", pageCount),
		zap.Int("selected", selection.Count()),
		zap.String("engine", cfg.Detect.Engine))

	// 4. Resolve the full-page boxes, stashing the pre-resolution values.
	res, err := cropper.ResolveFullPages(doc, sources)
	if err != nil {
		return err
	}

	// 5. Detect tight boxes on a resolved temp copy so the engine reports
	// in the same coordinate space the calculation uses.
	tmpPath, err := writeResolvedTemp(readPath, sources)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	provider, err := detect.NewProvider(cfg.Detect.Engine, detectOpts, logger)
	if err != nil {
		return err
	}
	tight, err := provider.Detect(ctx, tmpPath, pageCount, res.Full, selection)
	if err != nil {
		return fmt.Errorf("bounding box detection failed: %w", err)
	}

	// 6. Compute the crop list and apply it.
	params := cropper.Params{
		Uniform:      cfg.Crop.Uniform,
		EvenOdd:      cfg.Crop.EvenOdd,
		SamePageSize: cfg.Crop.SamePageSize,
		OrderStat:    cfg.Crop.UniformOrderStat,
		OrderPercent: cfg.Crop.UniformOrderPercent,
	}
	copy(params.PercentRetain[:], cfg.Crop.PercentRetain)
	copy(params.AbsoluteOffset[:], cfg.Crop.AbsoluteOffset)

	crops, err := cropper.NewCalculator(logger).CropList(res.Full, tight, selection, params)
	if err != nil {
		return err
	}

	alreadyMarked, err := cropper.MarkDocument(doc)
	if err != nil {
		return err
	}
	if alreadyMarked {
		logger.Info("The document was already cropped at least once by this tool; skipping the undo-save.")
	}

	applyOpts := cropper.ApplyOptions{
		Targets:       targets,
		NoUndoSave:    cfg.Crop.NoUndoSave,
		AlreadyMarked: alreadyMarked,
	}
	if err := cropper.ApplyCrops(doc, crops, res, selection, applyOpts); err != nil {
		return err
	}

	// 7. Write the cropped document.
	if err := doc.Write(outputPath); err != nil {
		return err
	}
	logger.Info("Wrote the cropped document.", zap.String("output", outputPath))

	// 8. Post-write options.
	if cfg.Output.ReportPath != "" {
		report, err := reporting.NewReport(inputPath, outputPath, cfg.Detect.Engine, res.Full, tight, crops, selection)
		if err != nil {
			return err
		}
		if err := report.WriteFile(cfg.Output.ReportPath); err != nil {
			return err
		}
		logger.Info("Wrote the crop report.", zap.String("path", cfg.Output.ReportPath))
	}

	return finishRun(ctx, cmd, cfg, logger, inputPath, outputPath, queryModify)
}

// writeResolvedTemp writes a copy of the document whose page boxes equal
// the resolved full-page boxes, for the detector to measure. A separate
// document context is opened so the primary one is serialized exactly once.
func writeResolvedTemp(inputPath string, sources []pdfdoc.BoxKind) (string, error) {
	tmpDoc, err := pdfdoc.Open(inputPath)
	if err != nil {
		return "", err
	}
	if _, err := cropper.ResolveFullPages(tmpDoc, sources); err != nil {
		return "", err
	}

	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("pagetrim-resolved-%s.pdf", uuid.New().String()))
	if err := tmpDoc.Write(tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// finishRun handles the post-write options shared by crop and restore:
// preview, the interactive modify-original query, and the archive swap.
func finishRun(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, inputPath, outputPath string, queryModify bool) error {
	if cfg.Output.Preview != "" {
		logger.Info("Previewing the output document.", zap.String("viewer", cfg.Output.Preview))
		if err := runPreview(ctx, cfg.Output.Preview, outputPath); err != nil {
			return err
		}
	}

	modifyOriginal := cfg.Output.ModifyOriginal
	if queryModify {
		answer, err := queryModifyOriginal(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		modifyOriginal = answer
	}

	if modifyOriginal {
		archivePath := deriveOutputPath(inputPath, cfg.Output.SuffixUncropped, cfg.Output.Separator, cfg.Output.UsePrefix)
		protect := cfg.Output.NoClobberOriginal || cfg.Output.NoClobber
		if err := swapOriginal(logger, inputPath, outputPath, archivePath, protect); err != nil {
			return err
		}
	}
	return nil
}
