// Package main provides the CLI entrypoint for iaa.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/iaa/internal/agreement"
	"github.com/verte-zerg/iaa/internal/config"
	"github.com/verte-zerg/iaa/internal/model"
	"github.com/verte-zerg/iaa/internal/report"
	"github.com/verte-zerg/iaa/internal/source"
)

const (
	defaultMetric    = "interval"
	defaultTable     = "annotations"
	defaultItemCol   = "item"
	defaultAnnotCol  = "annotator"
	defaultLabelCol  = "label"
	defaultDelimiter = ","
)

var (
	inputFile      string
	inputDB        string
	inputTable     string
	inputCols      []string
	inputItemCol   string
	inputAnnotCol  string
	inputLabelCol  string
	inputAnnots    []string
	inputDelimiter string
	inputMissing   []string

	computeMetric    string
	computeOrder     []string
	computeOrderFile string
	computeCycle     float64
	computeVerbose   bool
	outputColor      bool

	cohenPair []string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "iaa",
		Short:         "Inter-annotator agreement for categorical labels",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runReportCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&inputFile, "file", "", "wide CSV file: one row per item, one column per annotator")
	flags.StringVar(&inputDB, "db", "", "SQLite database with a long-format annotation table")
	flags.StringVar(&inputTable, "table", defaultTable, "annotation table (with --db)")
	flags.StringSliceVar(&inputCols, "cols", nil, "annotator columns (with --file; default: all but --item-col)")
	flags.StringVar(&inputItemCol, "item-col", "", "item identifier column")
	flags.StringVar(&inputAnnotCol, "annotator-col", defaultAnnotCol, "annotator column (with --db)")
	flags.StringVar(&inputLabelCol, "label-col", defaultLabelCol, "label column (with --db)")
	flags.StringSliceVar(&inputAnnots, "annotators", nil, "annotators to include, in order (with --db)")
	flags.StringVar(&inputDelimiter, "delimiter", defaultDelimiter, "CSV field delimiter")
	flags.StringSliceVar(&inputMissing, "missing", nil, "cell values treated as missing (default: blank, NA, N/A, NaN, nan, null, NULL, None)")
	flags.StringVar(&computeMetric, "metric", defaultMetric, "Krippendorff metric: nominal, ordinal, interval, ratio, circular")
	flags.StringSliceVar(&computeOrder, "order", nil, "category order, low to high")
	flags.StringVar(&computeOrderFile, "order-file", "", "file with one category per line, low to high")
	flags.Float64Var(&computeCycle, "cycle", 0, "cycle length for the circular metric (default: category count)")
	flags.BoolVarP(&computeVerbose, "verbose", "v", false, "print intermediate tables and quantities")
	flags.BoolVar(&outputColor, "color", false, "force colored tables")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newFleissCmd())
	rootCmd.AddCommand(newCohenCmd())
	rootCmd.AddCommand(newLightCmd())
	rootCmd.AddCommand(newAlphaCmd())

	return rootCmd
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Compute all four coefficients",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	set, cfg, err := loadSet(cmd)
	if err != nil {
		return err
	}
	metric, err := agreement.ParseMetric(cfg.Metric)
	if err != nil {
		return err
	}
	r, err := report.Compute(commandContext(cmd), set, metric)
	if err != nil {
		return fmt.Errorf("failed to compute report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := report.RenderSummary(out, r); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if cfg.Verbose {
		if err := report.RenderPairwise(out, set); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newFleissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fleiss",
		Short: "Fleiss' kappa over items labelled by every annotator",
		Args:  cobra.NoArgs,
		RunE:  runFleissCmd,
	}
}

func runFleissCmd(cmd *cobra.Command, _ []string) error {
	set, _, err := loadSet(cmd)
	if err != nil {
		return err
	}
	res, err := set.FleissDetail()
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), report.Fleiss, res, true)
}

func newCohenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cohen",
		Short: "Cohen's kappa for two annotators",
		Args:  cobra.NoArgs,
		RunE:  runCohenCmd,
	}
	cmd.Flags().StringSliceVar(&cohenPair, "pair", nil, "two annotators by name or 1-based position (default: first two)")
	return cmd
}

func runCohenCmd(cmd *cobra.Command, _ []string) error {
	set, _, err := loadSet(cmd)
	if err != nil {
		return err
	}
	i, j := 0, 1
	if len(cohenPair) > 0 {
		if len(cohenPair) != 2 {
			return fmt.Errorf("--pair needs exactly two annotators")
		}
		names := set.AnnotatorNames()
		if i, err = resolveAnnotator(names, cohenPair[0]); err != nil {
			return err
		}
		if j, err = resolveAnnotator(names, cohenPair[1]); err != nil {
			return err
		}
	}
	res, err := set.CohenDetail(i, j)
	if err != nil {
		return err
	}
	names := set.AnnotatorNames()
	title := fmt.Sprintf("%s (%s, %s)", report.Cohen, names[i], names[j])
	return writeResult(cmd.OutOrStdout(), title, res, true)
}

func newLightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "light",
		Short: "Light's kappa: mean Cohen's kappa over all annotator pairs",
		Args:  cobra.NoArgs,
		RunE:  runLightCmd,
	}
}

func runLightCmd(cmd *cobra.Command, _ []string) error {
	set, cfg, err := loadSet(cmd)
	if err != nil {
		return err
	}
	k, err := set.LightKappa()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if cfg.Verbose {
		if err := report.RenderPairwise(out, set); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return writeResult(out, report.Light, agreement.Result{Value: k}, false)
}

func newAlphaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alpha",
		Short: "Krippendorff's alpha under --metric",
		Args:  cobra.NoArgs,
		RunE:  runAlphaCmd,
	}
}

func runAlphaCmd(cmd *cobra.Command, _ []string) error {
	set, cfg, err := loadSet(cmd)
	if err != nil {
		return err
	}
	metric, err := agreement.ParseMetric(cfg.Metric)
	if err != nil {
		return err
	}
	res, err := set.AlphaDetail(metric)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), fmt.Sprintf("%s (%s)", report.Krippendorff, metric), res, true)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// loadSet resolves config and flags, loads the input and builds the agreement set.
func loadSet(cmd *cobra.Command) (*agreement.Set, model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "metric", &computeMetric, fileCfg.Compute.Metric)
	if !cmd.Flags().Changed("order-file") {
		applySliceConfig(cmd, "order", &computeOrder, fileCfg.Compute.CategoryOrder)
	}
	applyFloatConfig(cmd, "cycle", &computeCycle, fileCfg.Compute.Cycle)
	applyBoolConfig(cmd, "verbose", &computeVerbose, fileCfg.Compute.Verbose)
	applySliceConfig(cmd, "missing", &inputMissing, fileCfg.Input.Missing)
	applyStringConfig(cmd, "item-col", &inputItemCol, fileCfg.Input.ItemColumn)
	applyStringConfig(cmd, "delimiter", &inputDelimiter, fileCfg.Input.Delimiter)
	applyStringConfig(cmd, "table", &inputTable, fileCfg.Input.Table)
	applyStringConfig(cmd, "annotator-col", &inputAnnotCol, fileCfg.Input.AnnotatorColumn)
	applyStringConfig(cmd, "label-col", &inputLabelCol, fileCfg.Input.LabelColumn)
	applyBoolConfig(cmd, "color", &outputColor, fileCfg.Output.Color)

	cfg := model.Config{
		Metric:        computeMetric,
		CategoryOrder: computeOrder,
		OrderFile:     computeOrderFile,
		Cycle:         computeCycle,
		Verbose:       computeVerbose,
		Color:         outputColor,
	}
	in := model.InputConfig{
		File:            inputFile,
		DB:              inputDB,
		Columns:         inputCols,
		ItemColumn:      inputItemCol,
		Delimiter:       inputDelimiter,
		Table:           inputTable,
		AnnotatorColumn: inputAnnotCol,
		LabelColumn:     inputLabelCol,
		Annotators:      inputAnnots,
		Missing:         inputMissing,
	}
	if err := validateConfig(cfg, in); err != nil {
		return nil, model.Config{}, err
	}

	ann, err := loadAnnotations(commandContext(cmd), in)
	if err != nil {
		return nil, model.Config{}, err
	}

	order := cfg.CategoryOrder
	if cfg.OrderFile != "" {
		if order, err = source.LoadCategoryOrder(cfg.OrderFile); err != nil {
			return nil, model.Config{}, fmt.Errorf("failed to load category order: %w", err)
		}
	}

	opts := []agreement.Option{
		agreement.WithCategoryOrder(order...),
		agreement.WithCycle(cfg.Cycle),
	}
	if cfg.Verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
		opts = append(opts,
			agreement.WithVerbose(true),
			agreement.WithLogger(logger),
			agreement.WithRenderer(report.Renderer(cmd.OutOrStdout(), cfg.Color)),
		)
	}
	set, err := ann.Set(opts...)
	if err != nil {
		return nil, model.Config{}, fmt.Errorf("failed to build annotation set: %w", err)
	}
	if cfg.Verbose {
		logErrf("Loaded %d items from %d annotators (%s)\n", set.Items(), set.Annotators(), strings.Join(set.AnnotatorNames(), ", "))
	}
	return set, cfg, nil
}

func loadAnnotations(ctx context.Context, in model.InputConfig) (source.Annotations, error) {
	if in.DB != "" {
		db, err := source.OpenDB(in.DB)
		if err != nil {
			return source.Annotations{}, fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
		itemCol := in.ItemColumn
		if itemCol == "" {
			itemCol = defaultItemCol
		}
		ann, err := db.Load(ctx, source.LongQuery{
			Table:           in.Table,
			ItemColumn:      itemCol,
			AnnotatorColumn: in.AnnotatorColumn,
			LabelColumn:     in.LabelColumn,
			Annotators:      in.Annotators,
			Missing:         in.Missing,
		})
		if err != nil {
			return source.Annotations{}, fmt.Errorf("failed to load annotations: %w", err)
		}
		return ann, nil
	}

	delim, _ := utf8.DecodeRuneInString(in.Delimiter)
	ann, err := source.LoadCSV(in.File, source.CSVOptions{
		Columns:    in.Columns,
		ItemColumn: in.ItemColumn,
		Delimiter:  delim,
		Missing:    in.Missing,
	})
	if err != nil {
		return source.Annotations{}, fmt.Errorf("failed to load annotations: %w", err)
	}
	return ann, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func resolveAnnotator(names []string, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	for i, name := range names {
		if name == ref {
			return i, nil
		}
	}
	pos, err := strconv.Atoi(ref)
	if err != nil || pos < 1 || pos > len(names) {
		return 0, fmt.Errorf("unknown annotator %q (available: %s)", ref, strings.Join(names, ", "))
	}
	return pos - 1, nil
}

func writeResult(w io.Writer, name string, res agreement.Result, detailed bool) error {
	lines := []string{fmt.Sprintf("%s: %.4f", name, res.Value)}
	if detailed {
		lines = append(lines,
			fmt.Sprintf("  observed: %.4f", res.Observed),
			fmt.Sprintf("  expected: %.4f", res.Expected),
		)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applySliceConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), value...)
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# iaa configuration
# Uncomment a value to enable it. CLI flags override config values.

[compute]
# metric = %q             # Krippendorff metric: nominal, ordinal, interval, ratio, circular
# category-order = []          # Category order, low to high (ordinal/interval scales)
# cycle = 0                    # Circular metric cycle length (0 = category count)
# verbose = false              # Print intermediate tables and quantities

[input]
# missing = ["", "NA", "N/A", "NaN", "nan", "null", "NULL", "None"]  # Cell values treated as missing
# item-column = ""             # Item identifier column
# delimiter = %q                # CSV field delimiter
# table = %q         # Long-format table for --db
# annotator-column = %q  # Annotator column for --db
# label-column = %q          # Label column for --db

[output]
# color = false                # Force colored tables
`,
		defaultMetric,
		defaultDelimiter,
		defaultTable,
		defaultAnnotCol,
		defaultLabelCol,
	)
}

func validateConfig(cfg model.Config, in model.InputConfig) error {
	if in.File == "" && in.DB == "" {
		return fmt.Errorf("one of --file or --db is required")
	}
	if in.File != "" && in.DB != "" {
		return fmt.Errorf("--file and --db are mutually exclusive")
	}
	if _, err := agreement.ParseMetric(cfg.Metric); err != nil {
		return err
	}
	if cfg.Cycle < 0 {
		return fmt.Errorf("--cycle must be >= 0")
	}
	if len(cfg.CategoryOrder) > 0 && cfg.OrderFile != "" {
		return fmt.Errorf("--order and --order-file are mutually exclusive")
	}
	if utf8.RuneCountInString(in.Delimiter) != 1 {
		return fmt.Errorf("--delimiter must be a single character")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
