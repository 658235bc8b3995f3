// Package walkthrough replays the bookstore query sequence: CRUD, advanced
// queries, aggregation, indexing and a final verification, one statement at
// a time, printing a header and the result of each.
package walkthrough

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"plp-bookstore/internal/models"
	"plp-bookstore/internal/store"
	"plp-bookstore/internal/utils"
)

// Queries is the set of book store operations the walkthrough issues.
type Queries interface {
	Count(ctx context.Context) (int64, error)
	Find(ctx context.Context, q store.Query) ([]models.Book, error)
	FindByGenre(ctx context.Context, genre string) ([]models.Book, error)
	FindPublishedAfter(ctx context.Context, year int) ([]models.Book, error)
	FindByAuthor(ctx context.Context, author string) ([]models.Book, error)
	FindByTitle(ctx context.Context, title string, projection bson.D) ([]models.Book, error)
	FindInStockPublishedAfter(ctx context.Context, year int) ([]models.Book, error)
	CountInStockPublishedAfter(ctx context.Context, year int) (int64, error)
	Page(ctx context.Context, q store.Query, page, size int) ([]models.Book, error)
	UpdatePrice(ctx context.Context, title string, price float64) (*mongo.UpdateResult, error)
	DeleteByTitle(ctx context.Context, title string) (int64, error)
	Sample(ctx context.Context) (*models.Book, error)
	Genres(ctx context.Context) ([]string, error)
	CollectionNames(ctx context.Context) ([]string, error)

	AveragePriceByGenre(ctx context.Context) ([]models.GenrePriceStats, error)
	TopAuthor(ctx context.Context) (*models.AuthorRanking, error)
	AuthorsByBookCount(ctx context.Context) ([]models.AuthorRanking, error)
	BooksByDecade(ctx context.Context) ([]models.DecadeBucket, error)
	MostExpensiveByGenre(ctx context.Context) ([]models.GenreTopBook, error)
	CollectionStats(ctx context.Context) (models.CollectionStats, error)
	PublicationYearRange(ctx context.Context) (models.YearRange, error)

	CreateIndexes(ctx context.Context, indexes ...mongo.IndexModel) ([]string, error)
	ListIndexes(ctx context.Context) ([]models.IndexInfo, error)
	Explain(ctx context.Context, filter bson.D) (models.ExplainSummary, error)
}

// Note is printed verbatim instead of as JSON.
type Note string

type Step struct {
	Section string
	Title   string
	Run     func(ctx context.Context) (any, error)
}

type StepError struct {
	Section string
	Title   string
	Err     error
}

func (e StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Section, strings.TrimSpace(e.Title), e.Err)
}

func (e StepError) Unwrap() error {
	return e.Err
}

type Report struct {
	Executed int
	Failed   []StepError
}

type Runner struct {
	Store  Queries
	Out    io.Writer
	Logger *zap.Logger
	Audit  *utils.Logger
	Params Params

	// Timeout bounds each statement; zero means no per-statement limit.
	Timeout time.Duration
	// StopOnError aborts at the first failing statement instead of
	// reporting it and moving on.
	StopOnError bool
	// Sections restricts the run to the named sections; empty runs all.
	Sections []string
}

func NewRunner(q Queries, out io.Writer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Store: q, Out: out, Logger: logger, Params: DefaultParams()}
}

// Run executes the selected steps in order. With StopOnError the first
// failure is returned; otherwise failures are collected in the report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var report Report

	selected, err := r.selectedSections()
	if err != nil {
		return report, err
	}

	current := ""
	for _, step := range r.Steps() {
		if !selected[step.Section] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if step.Section != current {
			current = step.Section
			fmt.Fprintf(r.Out, "\n=== %s ===\n", sectionTitles[current])
		}

		report.Executed++
		if err := r.runStep(ctx, step); err != nil {
			stepErr := StepError{Section: step.Section, Title: step.Title, Err: err}
			report.Failed = append(report.Failed, stepErr)
			r.Logger.Error("statement failed",
				zap.String("section", step.Section),
				zap.String("statement", strings.TrimSpace(step.Title)),
				zap.Error(err))
			fmt.Fprintf(r.Out, "ERROR: %v\n", err)
			if r.StopOnError {
				return report, stepErr
			}
		}
	}

	if len(report.Failed) == 0 {
		fmt.Fprintln(r.Out, "\n=== ALL TASKS COMPLETED SUCCESSFULLY ===")
	} else {
		fmt.Fprintf(r.Out, "\n=== COMPLETED WITH %d FAILED STATEMENT(S) ===\n", len(report.Failed))
	}
	return report, nil
}

func (r *Runner) runStep(ctx context.Context, step Step) error {
	if step.Title != "" {
		fmt.Fprintf(r.Out, "\n%s\n", step.Title)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := step.Run(ctx)
	r.Logger.Debug("statement executed",
		zap.String("statement", strings.TrimSpace(step.Title)),
		zap.Duration("took", time.Since(start)),
		zap.Bool("ok", err == nil))
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *Runner) print(result any) error {
	switch v := result.(type) {
	case nil:
		return nil
	case Note:
		_, err := fmt.Fprintln(r.Out, string(v))
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("format result: %w", err)
	}
	_, err = fmt.Fprintln(r.Out, string(out))
	return err
}

func (r *Runner) selectedSections() (map[string]bool, error) {
	selected := make(map[string]bool, len(SectionOrder))
	if len(r.Sections) == 0 {
		for _, s := range SectionOrder {
			selected[s] = true
		}
		return selected, nil
	}
	for _, s := range r.Sections {
		if _, ok := sectionTitles[s]; !ok {
			return nil, fmt.Errorf("unknown section %q (want one of %s)", s, strings.Join(SectionOrder, ", "))
		}
		selected[s] = true
	}
	return selected, nil
}

func (r *Runner) audit(ctx context.Context, action string, data any) {
	if r.Audit == nil {
		return
	}
	if err := r.Audit.Log(ctx, models.BookEntity, action, data); err != nil {
		r.Logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
