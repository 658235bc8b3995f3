package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"plp-bookstore/configs"
	"plp-bookstore/internal/db"
	"plp-bookstore/internal/models"
	"plp-bookstore/internal/store"
	"plp-bookstore/internal/utils"
)

var (
	// Global flags
	verbose bool
	timeout time.Duration
	envFile string

	cfg    configs.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bookstore",
	Short: "Query walkthrough and HTTP API over the plp_bookstore books collection",
	Long: `bookstore seeds a MongoDB books collection and runs the query walkthrough
against it: CRUD, filtering, projection, sorting, pagination, aggregation
pipelines, indexes and explain plans.

Connection settings come from the environment (MONGO_URI, DB_NAME,
BOOKS_COLLECTION) or a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if envFile != "" {
			cfg, err = configs.LoadConfig(envFile)
			if err == nil && !cfg.EnvFileLoaded {
				err = fmt.Errorf("env file %s could not be read", envFile)
			}
		} else {
			cfg, err = configs.LoadConfig()
		}
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("timeout") {
			cfg.QueryTimeout = timeout
		}

		config := zap.NewProductionConfig()
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		config.Level = level
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", configs.DefaultQueryTimeout, "Per-statement timeout (overrides QUERY_TIMEOUT)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file to load (default: .env when present)")

	runCmd.Flags().StringSliceVar(&sections, "section", nil, "Run only these sections (crud, advanced, aggregation, indexing, verification)")
	runCmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "Abort at the first failing statement")
	runCmd.Flags().IntVar(&pageSize, "page-size", 0, "Books per page in the pagination section (default: PAGE_SIZE)")

	seedCmd.Flags().StringVar(&seedFile, "file", "", "JSON or YAML file with the books to insert (default: built-in dataset)")
	seedCmd.Flags().BoolVar(&seedDrop, "drop", false, "Drop the collection before inserting")

	indexesCmd.Flags().BoolVar(&createIndexes, "create", false, "Create the title, author/published_year and price indexes first")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// session is an open connection plus the stores built on it.
type session struct {
	client *mongo.Client
	books  *store.BookStore
	audit  *utils.Logger
}

func connect(ctx context.Context) (*session, error) {
	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	logger.Debug("connected to mongo",
		zap.String("db", cfg.DBName),
		zap.String("collection", cfg.BooksCollection))

	return &session{
		client: client,
		books:  store.NewBookStore(db.GetCollection(client, cfg.DBName, cfg.BooksCollection), logger, cfg.PageSize),
		audit: &utils.Logger{
			Collection: db.GetCollection(client, cfg.DBName, models.AuditLogCollection),
			Zap:        logger,
		},
	}, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		logger.Warn("disconnect failed", zap.Error(err))
	}
}
