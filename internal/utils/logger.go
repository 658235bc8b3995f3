package utils

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"plp-bookstore/internal/constants"
	"plp-bookstore/internal/models"
)

// Logger writes audit entries to the audit_logs collection. A Logger with a
// nil Collection only emits the entry through Zap.
type Logger struct {
	Collection *mongo.Collection
	Zap        *zap.Logger
}

type performerKey struct{}

// WithPerformer records who is acting on behalf of the request.
func WithPerformer(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, performerKey{}, userID)
}

func performer(ctx context.Context) string {
	if id, ok := ctx.Value(performerKey{}).(string); ok && id != "" {
		return id
	}
	return constants.PerformedBySystem
}

func (l *Logger) Log(ctx context.Context, entity, action string, data any) error {
	entry := models.AuditLog{
		Timestamp:   time.Now(),
		Entity:      entity,
		Action:      action,
		PerformedBy: performer(ctx),
		Data:        data,
	}

	if l.Zap != nil {
		l.Zap.Debug("audit",
			zap.String("entity", entity),
			zap.String("action", action),
			zap.String("performed_by", entry.PerformedBy))
	}
	if l.Collection == nil {
		return nil
	}
	_, err := l.Collection.InsertOne(ctx, entry)
	return err
}
