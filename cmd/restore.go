// -- cmd/restore.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pagetrim/pagetrim/internal/config"
	"github.com/pagetrim/pagetrim/internal/cropper"
	"github.com/pagetrim/pagetrim/internal/detect"
	"github.com/pagetrim/pagetrim/internal/observability"
	"github.com/pagetrim/pagetrim/internal/pdfdoc"
)

// restoreFlagBindings maps viper keys to the restore command flags that
// override them.
var restoreFlagBindings = map[string]string{
	"detect.ghostscript_path":    "ghostscript-path",
	"detect.timeout":             "timeout",
	"output.path":                "output",
	"output.no_clobber":          "no-clobber",
	"output.modify_original":     "modify-original",
	"output.no_clobber_original": "no-clobber-original",
	"output.preview":             "preview",
	"output.repair":              "repair",
}

// newRestoreCmd creates and configures the `restore` command.
func newRestoreCmd() *cobra.Command {
	var queryModify bool

	restoreCmd := &cobra.Command{
		Use:   "restore <input.pdf>",
		Short: "Undoes a previous crop using the saved page boxes",
		Long: `Restore copies the page boxes stashed by a previous crop run back onto
every page and writes the result to a new file. Pages cropped with the
no-undo-save option have no stashed boxes and keep their current size.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for key, flag := range restoreFlagBindings {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			return runRestore(cmd.Context(), cmd, cfg, observability.GetLogger(), args[0], queryModify)
		},
	}

	restoreCmd.Flags().StringP("output", "o", "", "Output file path. Default derives from the input name.")
	restoreCmd.Flags().Bool("no-clobber", false, "Refuse to overwrite an existing output file.")
	restoreCmd.Flags().Bool("repair", false, "Repair the input through Ghostscript before reading it.")
	restoreCmd.Flags().String("ghostscript-path", "gs", "Path to the Ghostscript executable, used by --repair.")
	restoreCmd.Flags().Duration("timeout", 2*time.Minute, "Timeout per Ghostscript invocation.")
	restoreCmd.Flags().Bool("modify-original", false, "Replace the original file, archiving it under the uncropped name.")
	restoreCmd.Flags().Bool("no-clobber-original", false, "Refuse to overwrite an existing uncropped-archive file.")
	restoreCmd.Flags().BoolVar(&queryModify, "query-modify-original", false, "Ask interactively whether to replace the original after restoring.")
	restoreCmd.Flags().String("preview", "", "Viewer command run on the output file; pagetrim waits for it to exit.")

	return restoreCmd
}

// runRestore executes the restore pipeline: repair, resolve, restore the
// stashed boxes, write, then the post-write plumbing.
func runRestore(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, inputPath string, queryModify bool) error {
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

	readPath := inputPath
	if cfg.Output.Repair {
		logger.Info("Repairing the input file with Ghostscript before reading.", zap.String("input", inputPath))
		repaired, err := detect.Repair(ctx, detect.Options{
			GhostscriptPath: cfg.Detect.GhostscriptPath,
			Timeout:         cfg.Detect.Timeout,
		}, inputPath)
		if err != nil {
			return err
		}
		defer os.Remove(repaired)
		readPath = repaired
	}

	doc, err := pdfdoc.Open(readPath)
	if err != nil {
		return err
	}

	logger.Info("Restoring the pre-crop page boxes.",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("pages", doc.PageCount()))

	// Resolution runs here too: pages without a stashed box then fall back
	// to the resolved full-page box instead of whatever was left behind.
	sources, err := fullPageSources(cfg.Detect.Engine, cfg.Crop.FullPageBox, logger)
	if err != nil {
		return err
	}
	if _, err := cropper.ResolveFullPages(doc, sources); err != nil {
		return err
	}

	marked, err := cropper.IsMarked(doc)
	if err != nil {
		return err
	}
	if !marked {
		logger.Warn("The document does not appear to have been cropped by this tool; attempting the restore anyway.")
	}

	if err := cropper.RestoreAll(doc); err != nil {
		return err
	}

	if err := doc.Write(outputPath); err != nil {
		return err
	}
	logger.Info("Wrote the restored document.", zap.String("output", outputPath))

	return finishRun(ctx, cmd, cfg, logger, inputPath, outputPath, queryModify)
}
