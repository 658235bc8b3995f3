package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"plp-bookstore/internal/constants"
	"plp-bookstore/internal/models"
	"plp-bookstore/internal/seed"
	"plp-bookstore/internal/walkthrough"
)

var (
	sections      []string
	stopOnError   bool
	pageSize      int
	seedFile      string
	seedDrop      bool
	createIndexes bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the query walkthrough against the books collection",
	Long: `Executes every statement of the walkthrough in order and prints each
result under its section header:

  crud          counts, finds, the price update and the delete
  advanced      combined filters, projection, sorting and pagination
  aggregation   per-genre, per-author and per-decade pipelines
  indexing      index creation, listing and explain plans
  verification  final collection checks

A failing statement is reported and the run continues unless
--stop-on-error is set. The command exits non-zero if anything failed.`,
	Args: cobra.NoArgs,
	RunE: runWalkthrough,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the book dataset",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "List the indexes on the books collection",
	Args:  cobra.NoArgs,
	RunE:  runIndexes,
}

var explainCmd = &cobra.Command{
	Use:   "explain field=value...",
	Short: "Show the winning plan for an equality filter",
	Long: `Explains a find on the books collection with executionStats verbosity.

Example:
  bookstore explain title="The Great Gatsby"
  bookstore explain author="George Orwell" published_year=1949`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExplain,
}

func runWalkthrough(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	runner := walkthrough.NewRunner(s.books, cmd.OutOrStdout(), logger)
	runner.Audit = s.audit
	runner.Timeout = cfg.QueryTimeout
	runner.StopOnError = stopOnError
	runner.Sections = sections
	if pageSize > 0 {
		runner.Params.PageSize = pageSize
	} else {
		runner.Params.PageSize = cfg.PageSize
	}

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("walkthrough finished",
		zap.Int("executed", report.Executed),
		zap.Int("failed", len(report.Failed)))
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d statement(s) failed", len(report.Failed))
	}
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	var (
		books []models.Book
		err   error
	)
	if seedFile != "" {
		books, err = seed.LoadFile(seedFile)
	} else {
		books, err = seed.Default()
	}
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	n, err := seed.NewLoader(s.books, s.audit, logger).Seed(ctx, books, seedDrop)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d books into %s.%s\n", n, cfg.DBName, cfg.BooksCollection)
	return nil
}

func runIndexes(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()
	if createIndexes {
		names, err := s.books.CreateIndexes(ctx)
		if err != nil {
			return err
		}
		if err := s.audit.Log(ctx, models.IndexEntity, constants.CreateIndex, names); err != nil {
			logger.Warn("audit log write failed", zap.Error(err))
		}
		fmt.Fprintf(out, "Created: %s\n\n", strings.Join(names, ", "))
	}

	indexes, err := s.books.ListIndexes(ctx)
	if err != nil {
		return err
	}
	printIndexes(out, indexes)
	return nil
}

func printIndexes(out io.Writer, indexes []models.IndexInfo) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKEY\tUNIQUE")
	for _, idx := range indexes {
		keys := make([]string, 0, len(idx.Key))
		for _, k := range idx.Key {
			keys = append(keys, fmt.Sprintf("%s:%v", k.Key, k.Value))
		}
		fmt.Fprintf(w, "%s\t%s\t%t\n", idx.Name, strings.Join(keys, ", "), idx.Unique)
	}
	w.Flush()
}

func runExplain(cmd *cobra.Command, args []string) error {
	filter, err := parseFilter(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	summary, err := s.books.Explain(ctx, filter)
	if err != nil {
		return err
	}
	printExplain(cmd.OutOrStdout(), summary)
	return nil
}

func printExplain(out io.Writer, s models.ExplainSummary) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Stage:\t%s\n", s.Stage)
	if s.IndexName != "" {
		fmt.Fprintf(w, "Index:\t%s\n", s.IndexName)
	}
	fmt.Fprintf(w, "Returned:\t%d\n", s.NReturned)
	fmt.Fprintf(w, "Keys examined:\t%d\n", s.TotalKeysExamined)
	fmt.Fprintf(w, "Docs examined:\t%d\n", s.TotalDocsExamined)
	fmt.Fprintf(w, "Time (ms):\t%d\n", s.ExecutionTimeMillis)
	fmt.Fprintf(w, "Uses index:\t%t\n", s.UsesIndex())
	w.Flush()
}

// parseFilter turns field=value arguments into an equality filter. Values
// are typed by field: published_year and pages are integers, price is a
// number and in_stock a boolean. Everything else stays a string, so
// title=1984 matches the title "1984".
func parseFilter(args []string) (bson.D, error) {
	filter := make(bson.D, 0, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter %q: expected field=value", arg)
		}
		if !models.IsBookField(name) || name == models.FieldID {
			return nil, fmt.Errorf("unknown field %q", name)
		}

		var value any = raw
		switch name {
		case models.FieldPublishedYear, models.FieldPages:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: not an integer", name, raw)
			}
			value = n
		case models.FieldPrice:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: not a number", name, raw)
			}
			value = f
		case models.FieldInStock:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: not a boolean", name, raw)
			}
			value = b
		}
		filter = append(filter, bson.E{Key: name, Value: value})
	}
	return filter, nil
}
