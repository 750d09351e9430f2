package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetlite/internal/amqp"
	"budgetlite/internal/ledger"
	"budgetlite/internal/ledger/memory"
	"budgetlite/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, now: time.Now}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo ledger.Repository
		err  error
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err = f.createSQLiteRepository(config)
	case MemoryBackend:
		repo = f.createMemoryRepository(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	events := f.connectEvents(ctx, config)

	return &BackendResult{
		Repository: repo,
		Events:     events,
		Cleanup: func() error {
			var errs []error
			if events != nil {
				if err := events.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			if err := repo.Close(); err != nil {
				errs = append(errs, fmt.Errorf("repository: %w", err))
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createSQLiteRepository(config Config) (ledger.Repository, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) createMemoryRepository(config Config) ledger.Repository {
	if config.CategoriesFile == "" {
		f.logger.Info("Initialized memory backend")
		return memory.New()
	}
	f.logger.Info("Initialized memory backend", "categories_file", config.CategoriesFile)
	return memory.NewFromFile(config.CategoriesFile, f.now())
}

// connectEvents dials AMQP when configured. A broker that cannot be reached
// is logged and the process continues without change sharing.
func (f *DefaultFactory) connectEvents(ctx context.Context, config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", "error", err)
		return nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
