package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"plp-bookstore/internal/constants"
	"plp-bookstore/internal/utils"
)

func TestLogger_Log(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("records performer from context", func(mt *mtest.T) {
		logger := utils.Logger{Collection: mt.Coll, Zap: zap.NewNop()}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		ctx := utils.WithPerformer(context.Background(), "admin-1")
		require.NoError(t, logger.Log(ctx, "book", constants.Delete, "1984"))

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "insert", started.CommandName)

		docs := started.Command.Lookup("documents").Array()
		values, err := docs.Values()
		require.NoError(t, err)
		require.Len(t, values, 1)

		var entry bson.M
		require.NoError(t, bson.Unmarshal(values[0].Document(), &entry))
		assert.Equal(t, "admin-1", entry["performed_by"])
		assert.Equal(t, constants.Delete, entry["action"])
		assert.Equal(t, false, entry["exported"])
	})
}

func TestLogger_NoCollection(t *testing.T) {
	logger := utils.Logger{}
	assert.NoError(t, logger.Log(context.Background(), "book", constants.Seed, nil))
}
