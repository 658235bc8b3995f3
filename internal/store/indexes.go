package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"plp-bookstore/internal/models"
)

// DefaultIndexes are the indexes the walkthrough creates: title, the
// author/year compound, and price.
func DefaultIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: Ascending(models.FieldTitle)},
		{Keys: bson.D{
			{Key: models.FieldAuthor, Value: 1},
			{Key: models.FieldPublishedYear, Value: -1},
		}},
		{Keys: Ascending(models.FieldPrice)},
	}
}

// CreateIndexes creates the given indexes, or DefaultIndexes when none are
// passed, and returns their names. Creating an existing index is a no-op on
// the server.
func (s *BookStore) CreateIndexes(ctx context.Context, indexes ...mongo.IndexModel) ([]string, error) {
	if len(indexes) == 0 {
		indexes = DefaultIndexes()
	}
	names, err := s.Collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	s.Logger.Info("indexes created", zap.Strings("names", names))
	return names, nil
}

func (s *BookStore) ListIndexes(ctx context.Context) ([]models.IndexInfo, error) {
	cursor, err := s.Collection.Indexes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	defer cursor.Close(ctx)

	indexes := []models.IndexInfo{}
	if err := cursor.All(ctx, &indexes); err != nil {
		return nil, fmt.Errorf("decode indexes: %w", err)
	}
	return indexes, nil
}

// Explain runs find(filter) under explain with executionStats verbosity and
// summarises the winning plan.
func (s *BookStore) Explain(ctx context.Context, filter bson.D) (models.ExplainSummary, error) {
	if filter == nil {
		filter = bson.D{}
	}
	cmd := bson.D{
		{Key: "explain", Value: bson.D{
			{Key: "find", Value: s.Collection.Name()},
			{Key: "filter", Value: filter},
		}},
		{Key: "verbosity", Value: "executionStats"},
	}

	var raw bson.M
	if err := s.Collection.Database().RunCommand(ctx, cmd).Decode(&raw); err != nil {
		return models.ExplainSummary{}, fmt.Errorf("explain: %w", err)
	}
	return SummarizeExplain(raw)
}

// SummarizeExplain extracts the leaf stage of the winning plan, the index it
// used, and the executionStats counters from an explain document.
func SummarizeExplain(raw bson.M) (models.ExplainSummary, error) {
	var summary models.ExplainSummary

	planner, ok := asDoc(raw["queryPlanner"])
	if !ok {
		return summary, fmt.Errorf("explain output has no queryPlanner")
	}
	plan, ok := asDoc(planner["winningPlan"])
	if !ok {
		return summary, fmt.Errorf("explain output has no winningPlan")
	}
	// Slot based execution nests the classic plan one level down.
	if inner, ok := asDoc(plan["queryPlan"]); ok {
		plan = inner
	}

	for plan != nil {
		if stage, ok := plan["stage"].(string); ok {
			summary.Stage = stage
		}
		if name, ok := plan["indexName"].(string); ok && summary.IndexName == "" {
			summary.IndexName = name
		}
		plan = childStage(plan)
	}

	if stats, ok := asDoc(raw["executionStats"]); ok {
		summary.NReturned = toInt64(stats["nReturned"])
		summary.TotalKeysExamined = toInt64(stats["totalKeysExamined"])
		summary.TotalDocsExamined = toInt64(stats["totalDocsExamined"])
		summary.ExecutionTimeMillis = toInt64(stats["executionTimeMillis"])
	}
	return summary, nil
}

func childStage(plan bson.M) bson.M {
	if next, ok := asDoc(plan["inputStage"]); ok {
		return next
	}
	var stages []any
	switch v := plan["inputStages"].(type) {
	case bson.A:
		stages = v
	case []any:
		stages = v
	}
	if len(stages) > 0 {
		if next, ok := asDoc(stages[0]); ok {
			return next
		}
	}
	return nil
}

func asDoc(v any) (bson.M, bool) {
	switch doc := v.(type) {
	case bson.M:
		return doc, true
	case map[string]any:
		return bson.M(doc), true
	case bson.D:
		m := make(bson.M, len(doc))
		for _, e := range doc {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
