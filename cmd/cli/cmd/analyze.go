package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/linkmap-analysis/internal/analyzer"
	"github.com/linkmap-analysis/internal/formatter"
	apperrors "github.com/linkmap-analysis/pkg/errors"
	"github.com/linkmap-analysis/pkg/model"
	"github.com/linkmap-analysis/pkg/writer"
)

func jsonOut(w io.Writer, v interface{}) error {
	return writer.NewPrettyJSONWriter[interface{}]().Write(v, w)
}

func (a *app) analyzeCmd() *cobra.Command {
	var (
		input       string
		outputDir   string
		fromStorage bool
		persist     bool
		publish     bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a map file and write its report",
		Long: `Analyze a map file and write report.json (pretty printed) and report.json.gz
into the output directory.

With --from-storage the input is a key in the configured object storage
instead of a local path. --persist stores the report in the report database
(database.enabled must be set) and --publish uploads report.json to object
storage under reports/<name>/<digest>.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ana, deps, err := analyzer.NewFromConfig(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			req := &model.AnalysisRequest{
				Input:     input,
				Kind:      model.SourceLocal,
				OutputDir: outputDir,
				Persist:   persist,
				Publish:   publish,
			}
			if fromStorage {
				req.Kind = model.SourceStorage
			}

			a.logger.Info("Analyzing %s (%s)", input, req.Kind)
			resp, err := ana.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}

			if asJSON {
				return jsonOut(cmd.OutOrStdout(), resp)
			}
			formatter.LogResponse(resp, a.logger)
			return nil
		},
	}

	binName := BinName()
	cmd.Example = `  # Write ./output/report.json and ./output/report.json.gz
  ` + binName + ` analyze -i build/app.map

  # Analyze a map file uploaded by CI and store the report
  ` + binName + ` analyze -i builds/1234/app.map.gz --from-storage --persist --publish`

	cmd.Flags().StringVarP(&input, "input", "i", "", "Map file path, or storage key with --from-storage (required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "./output", "Output directory for report files, empty to skip")
	cmd.Flags().BoolVar(&fromStorage, "from-storage", false, "Read the input from object storage")
	cmd.Flags().BoolVar(&persist, "persist", false, "Store the report in the report database")
	cmd.Flags().BoolVar(&publish, "publish", false, "Upload the JSON report to object storage")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis response as JSON")
	cmd.MarkFlagRequired("input")

	return cmd
}

func (a *app) batchCmd() *cobra.Command {
	var (
		dir       string
		pattern   string
		workers   int
		outputDir string
		persist   bool
		publish   bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every map file under a directory",
		Long: `Find the map files under a directory with a glob pattern and analyze them in
parallel. Each report is written to <output>/<path of the map file>/.

Patterns use / as separator; ** matches any number of directories and {a,b}
matches either alternative. Hidden directories are skipped. A failed map file
does not stop the others, but makes the command exit with status 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fm := outputFormatter(asJSON)
			if !cmd.Flags().Changed("pattern") {
				pattern = a.cfg.Batch.Pattern
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Batch.Workers
			}

			inputs, err := analyzer.Discover(cmd.Context(), dir, pattern)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return apperrors.New(apperrors.CodeNotFound, "no map files matching "+pattern+" under "+dir)
			}
			a.logger.Info("Found %d map files under %s", len(inputs), dir)

			ana, deps, err := analyzer.NewFromConfig(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			results := ana.AnalyzeBatch(cmd.Context(), inputs, analyzer.BatchOptions{
				Root:      dir,
				OutputDir: outputDir,
				Kind:      model.SourceLocal,
				Persist:   persist,
				Publish:   publish,
				Workers:   workers,
				Timeout:   a.cfg.Batch.Timeout,
				OnProgress: func(done, total int) {
					a.logger.Debug("Progress: %d/%d", done, total)
				},
			})

			if err := fm.FormatBatch(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if failed := analyzer.CountFailed(results); failed > 0 {
				return apperrors.New(apperrors.CodeUnknown, fmt.Sprintf("%d of %d map files failed", failed, len(results)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to search for map files (required)")
	cmd.Flags().StringVar(&pattern, "pattern", analyzer.DefaultPattern, "Glob pattern of map files, relative to --dir")
	cmd.Flags().IntVar(&workers, "workers", 4, "Number of map files analyzed in parallel")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "./output", "Output directory for report files, empty to skip")
	cmd.Flags().BoolVar(&persist, "persist", false, "Store the reports in the report database")
	cmd.Flags().BoolVar(&publish, "publish", false, "Upload the JSON reports to object storage")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the results as JSON")
	cmd.MarkFlagRequired("dir")

	return cmd
}
