package daemon

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"plp-bookstore/internal/models"
	"plp-bookstore/internal/utils"
)

type LogExporter struct {
	Coll     *mongo.Collection
	Logger   *zap.Logger
	Interval time.Duration
}

// Run exports pending audit logs every Interval until ctx is cancelled.
// Export failures are logged and retried on the next tick.
func (l *LogExporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		if _, err := l.ExportOnce(ctx); err != nil && ctx.Err() == nil {
			l.Logger.Warn("audit export failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// ExportOnce ships every audit log not yet exported and flags them as
// exported. It returns how many were shipped.
func (l *LogExporter) ExportOnce(ctx context.Context) (int, error) {
	cursor, err := l.Coll.Find(ctx, bson.M{"exported": false})
	if err != nil {
		return 0, fmt.Errorf("find pending audit logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []models.AuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return 0, fmt.Errorf("decode audit logs: %w", err)
	}
	if len(logs) == 0 {
		return 0, nil
	}

	if err := utils.ExportData(l.Logger, logs); err != nil {
		return 0, err
	}

	updateIds := make([]primitive.ObjectID, 0, len(logs))
	for i := range logs {
		updateIds = append(updateIds, logs[i].ID)
	}

	_, err = l.Coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": updateIds}},
		bson.M{"$set": bson.M{"exported": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark audit logs exported: %w", err)
	}
	return len(logs), nil
}
