package backend

import (
	"context"
	"errors"
	"fmt"

	"smartexpense/internal/amqp"
	"smartexpense/internal/log"
	"smartexpense/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the configured store and, when AMQP is configured, the
// voice recognizer. A recognizer that cannot connect is logged and skipped so
// the tracker still runs without voice.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: store}

	var client *amqp.Client
	if config.AMQPURL != "" {
		client, err = amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP recognizer, continuing without voice", log.FieldError, err)
		} else {
			result.Recognizer = client
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if client != nil {
			errs = append(errs, client.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		log.FieldBackend, config.Type.String(),
		"voice_enabled", result.Recognizer != nil)
	return result, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (storage.KV, error) {
	switch config.Type {
	case SQLiteBackend:
		kv, err := storage.NewSQLiteKV(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.DebugContext(ctx, "Opened SQLite store", "db_path", config.SQLiteDBPath)
		return kv, nil

	case RedisBackend:
		kv := storage.NewRedisKV(storage.RedisOptions{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
			Prefix:   config.RedisPrefix,
		})
		if err := kv.Ping(ctx); err != nil {
			kv.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", config.RedisAddr, err)
		}
		return kv, nil

	case MemoryBackend:
		return storage.NewMemoryKV(), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
