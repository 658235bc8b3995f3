package walkthrough

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"plp-bookstore/internal/constants"
	"plp-bookstore/internal/models"
	"plp-bookstore/internal/store"
)

const (
	SectionCRUD         = "crud"
	SectionAdvanced     = "advanced"
	SectionAggregation  = "aggregation"
	SectionIndexing     = "indexing"
	SectionVerification = "verification"
)

var SectionOrder = []string{
	SectionCRUD,
	SectionAdvanced,
	SectionAggregation,
	SectionIndexing,
	SectionVerification,
}

var sectionTitles = map[string]string{
	SectionCRUD:         "TASK 2: BASIC CRUD OPERATIONS",
	SectionAdvanced:     "TASK 3: ADVANCED QUERIES",
	SectionAggregation:  "TASK 4: AGGREGATION PIPELINE",
	SectionIndexing:     "TASK 5: INDEXING",
	SectionVerification: "FINAL VERIFICATION",
}

func genreFilter(genre string) bson.D {
	return bson.D{{Key: models.FieldGenre, Value: genre}}
}

// Steps returns the full statement sequence in execution order.
func (r *Runner) Steps() []Step {
	var steps []Step
	steps = append(steps, r.crudSteps()...)
	steps = append(steps, r.advancedSteps()...)
	steps = append(steps, r.aggregationSteps()...)
	steps = append(steps, r.indexingSteps()...)
	steps = append(steps, r.verificationSteps()...)
	return steps
}

func (r *Runner) crudSteps() []Step {
	p, q := r.Params, r.Store
	s := func(title string, run func(ctx context.Context) (any, error)) Step {
		return Step{Section: SectionCRUD, Title: title, Run: run}
	}

	return []Step{
		s("Initial document count:", func(ctx context.Context) (any, error) {
			return q.Count(ctx)
		}),
		s(fmt.Sprintf("1. Find all books in %s genre:", p.Genre), func(ctx context.Context) (any, error) {
			return q.FindByGenre(ctx, p.Genre)
		}),
		s(fmt.Sprintf("2. Find books published after %d:", p.PublishedAfter), func(ctx context.Context) (any, error) {
			return q.FindPublishedAfter(ctx, p.PublishedAfter)
		}),
		s(fmt.Sprintf("   Alternative: books published after %d:", p.AltPublishedAfter), func(ctx context.Context) (any, error) {
			return q.FindPublishedAfter(ctx, p.AltPublishedAfter)
		}),
		s(fmt.Sprintf("3. Find books by %s:", p.Author), func(ctx context.Context) (any, error) {
			return q.FindByAuthor(ctx, p.Author)
		}),
		s(fmt.Sprintf("   Alternative: books by %s:", p.AltAuthor), func(ctx context.Context) (any, error) {
			return q.FindByAuthor(ctx, p.AltAuthor)
		}),
		s(fmt.Sprintf("4. Update price of '%s' to $%.2f:", p.PriceTitle, p.NewPrice), func(ctx context.Context) (any, error) {
			res, err := q.UpdatePrice(ctx, p.PriceTitle, p.NewPrice)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount > 0 {
				r.audit(ctx, constants.UpdatePrice, map[string]any{"title": p.PriceTitle, "price": p.NewPrice})
			}
			return map[string]int64{"matchedCount": res.MatchedCount, "modifiedCount": res.ModifiedCount}, nil
		}),
		s("   Verify the update:", func(ctx context.Context) (any, error) {
			return q.FindByTitle(ctx, p.PriceTitle, store.TitlePriceProjection)
		}),
		s(fmt.Sprintf("5. Delete '%s':", p.DeleteTitle), func(ctx context.Context) (any, error) {
			deleted, err := q.DeleteByTitle(ctx, p.DeleteTitle)
			if err != nil {
				return nil, err
			}
			if deleted > 0 {
				r.audit(ctx, constants.Delete, map[string]any{"title": p.DeleteTitle, "deleted": deleted})
			}
			return map[string]int64{"deletedCount": deleted}, nil
		}),
		s("   Verify deletion, document count:", func(ctx context.Context) (any, error) {
			return q.Count(ctx)
		}),
		s("   Verify book is gone:", func(ctx context.Context) (any, error) {
			return q.FindByTitle(ctx, p.DeleteTitle, nil)
		}),
	}
}

func (r *Runner) advancedSteps() []Step {
	p, q := r.Params, r.Store
	s := func(title string, run func(ctx context.Context) (any, error)) Step {
		return Step{Section: SectionAdvanced, Title: title, Run: run}
	}

	steps := []Step{
		s(fmt.Sprintf("1. Books in stock AND published after %d:", p.PublishedAfter), func(ctx context.Context) (any, error) {
			return q.FindInStockPublishedAfter(ctx, p.PublishedAfter)
		}),
		s("   Number of matches:", func(ctx context.Context) (any, error) {
			return q.CountInStockPublishedAfter(ctx, p.PublishedAfter)
		}),
		s("2. All books with projection (title, author, price only):", func(ctx context.Context) (any, error) {
			return q.Find(ctx, store.Query{Projection: store.TitleAuthorPriceProjection})
		}),
		s(fmt.Sprintf("   Projection with filter, %s books only:", p.Genre), func(ctx context.Context) (any, error) {
			return q.Find(ctx, store.Query{
				Filter:     genreFilter(p.Genre),
				Projection: store.TitleAuthorPriceProjection,
			})
		}),
		s("3a. Books sorted by price (ASCENDING - lowest to highest):", func(ctx context.Context) (any, error) {
			return q.Find(ctx, store.Query{
				Projection: store.TitlePriceProjection,
				Sort:       store.Ascending(models.FieldPrice),
			})
		}),
		s("3b. Books sorted by price (DESCENDING - highest to lowest):", func(ctx context.Context) (any, error) {
			return q.Find(ctx, store.Query{
				Projection: store.TitlePriceProjection,
				Sort:       store.Descending(models.FieldPrice),
			})
		}),
		s("   Books sorted by publication year (newest first):", func(ctx context.Context) (any, error) {
			return q.Find(ctx, store.Query{
				Projection: store.TitleYearProjection,
				Sort:       store.Descending(models.FieldPublishedYear),
			})
		}),
		s(fmt.Sprintf("4. PAGINATION (%d books per page):", p.PageSize), func(ctx context.Context) (any, error) {
			return nil, nil
		}),
	}

	for page := 1; page <= p.Pages; page++ {
		page := page
		first := (page-1)*p.PageSize + 1
		title := fmt.Sprintf("PAGE %d: Books %d-%d", page, first, first+p.PageSize-1)
		steps = append(steps, s(title, func(ctx context.Context) (any, error) {
			return q.Page(ctx, store.Query{Projection: store.TitleAuthorPriceProjection}, page, p.PageSize)
		}))
	}

	steps = append(steps, s(fmt.Sprintf("Pagination with sorting - Cheapest %d books:", p.PageSize), func(ctx context.Context) (any, error) {
		return q.Page(ctx, store.Query{
			Projection: store.TitlePriceProjection,
			Sort:       store.Ascending(models.FieldPrice),
		}, 1, p.PageSize)
	}))
	return steps
}

func (r *Runner) aggregationSteps() []Step {
	q := r.Store
	s := func(title string, run func(ctx context.Context) (any, error)) Step {
		return Step{Section: SectionAggregation, Title: title, Run: run}
	}

	return []Step{
		s("1. Average price by genre:", func(ctx context.Context) (any, error) {
			return q.AveragePriceByGenre(ctx)
		}),
		s("2. Author with most books:", func(ctx context.Context) (any, error) {
			return q.TopAuthor(ctx)
		}),
		s("All authors with book counts:", func(ctx context.Context) (any, error) {
			return q.AuthorsByBookCount(ctx)
		}),
		s("3. Books grouped by decade:", func(ctx context.Context) (any, error) {
			return q.BooksByDecade(ctx)
		}),
		s("BONUS: Most expensive book in each genre:", func(ctx context.Context) (any, error) {
			return q.MostExpensiveByGenre(ctx)
		}),
		s("BONUS: Overall collection statistics:", func(ctx context.Context) (any, error) {
			return q.CollectionStats(ctx)
		}),
	}
}

func (r *Runner) indexingSteps() []Step {
	q := r.Store
	s := func(title string, run func(ctx context.Context) (any, error)) Step {
		return Step{Section: SectionIndexing, Title: title, Run: run}
	}

	indexes := store.DefaultIndexes()
	titles := []string{
		"1. Creating index on 'title' field:",
		"2. Creating compound index on 'author' and 'published_year':",
		"3. Creating index on 'price' field:",
	}

	var steps []Step
	for i, title := range titles {
		index := indexes[i]
		steps = append(steps, s(title, func(ctx context.Context) (any, error) {
			names, err := q.CreateIndexes(ctx, index)
			if err != nil {
				return nil, err
			}
			r.audit(ctx, constants.CreateIndex, names)
			return names, nil
		}))
	}

	steps = append(steps,
		s("4. All indexes on books collection:", func(ctx context.Context) (any, error) {
			return q.ListIndexes(ctx)
		}),
		s("5. Performance Analysis with explain():", func(ctx context.Context) (any, error) {
			return nil, nil
		}),
	)

	for _, probe := range r.Params.Probes {
		probe := probe
		steps = append(steps, s(probe.Title, func(ctx context.Context) (any, error) {
			return q.Explain(ctx, probe.Filter)
		}))
	}

	steps = append(steps, s("=== Performance Summary ===", func(ctx context.Context) (any, error) {
		return Note("Indexed queries use IXSCAN (Index Scan)\n" +
			"Non-indexed queries use COLLSCAN (Collection Scan)\n" +
			"Indexed queries examine fewer documents\n" +
			"Compound indexes work for queries on first field or both fields"), nil
	}))
	return steps
}

func (r *Runner) verificationSteps() []Step {
	q := r.Store
	s := func(title string, run func(ctx context.Context) (any, error)) Step {
		return Step{Section: SectionVerification, Title: title, Run: run}
	}

	return []Step{
		s("Total documents in collection:", func(ctx context.Context) (any, error) {
			return q.Count(ctx)
		}),
		s("Collections in database:", func(ctx context.Context) (any, error) {
			return q.CollectionNames(ctx)
		}),
		s("Sample document:", func(ctx context.Context) (any, error) {
			return q.Sample(ctx)
		}),
		s("Unique genres:", func(ctx context.Context) (any, error) {
			return q.Genres(ctx)
		}),
		s("Publication year range:", func(ctx context.Context) (any, error) {
			return q.PublicationYearRange(ctx)
		}),
	}
}
