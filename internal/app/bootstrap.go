// Package app wires configuration into repositories and collaborators. It is
// shared by the HTTP server and the command line tool.
package app

import (
	"context"
	"fmt"
	"time"

	"alcyxob/fittrack/internal/config"
	"alcyxob/fittrack/internal/fooddata"
	"alcyxob/fittrack/internal/repository"
	"alcyxob/fittrack/internal/repository/memory"
	"alcyxob/fittrack/internal/repository/mongo"
	"alcyxob/fittrack/internal/storage"

	log "github.com/sirupsen/logrus"
)

const indexTimeout = time.Minute

type Repositories struct {
	Users    repository.UserRepository
	Workouts repository.WorkoutRepository
	Entries  repository.NutritionEntryRepository

	close func()
}

// Close releases the database connection, if any.
func (r *Repositories) Close() {
	if r.close != nil {
		r.close()
	}
}

// OpenRepositories connects the configured backend. For mongo the indexes are
// ensured before returning.
func OpenRepositories(cfg config.DatabaseConfig) (*Repositories, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn("using the in-memory backend; data is lost on exit")
		return &Repositories{
			Users:    memory.NewUserRepository(),
			Workouts: memory.NewWorkoutRepository(),
			Entries:  memory.NewNutritionEntryRepository(),
		}, nil

	case config.BackendMongo:
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("could not connect to MongoDB: %w", err)
		}
		db := client.Database(cfg.Name)
		log.Infof("connected to MongoDB database %q", cfg.Name)

		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		mongo.EnsureIndexes(ctx, db)

		return &Repositories{
			Users:    mongo.NewMongoUserRepository(db),
			Workouts: mongo.NewMongoWorkoutRepository(db),
			Entries:  mongo.NewMongoNutritionEntryRepository(db),
			close: func() {
				log.Info("disconnecting MongoDB...")
				if err := mongo.DisconnectDB(client); err != nil {
					log.Errorf("failed to disconnect MongoDB: %v", err)
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown database backend %q", cfg.Backend)
}

// NewFoodLookup builds the cached Open Food Facts client.
func NewFoodLookup(cfg config.FoodDataConfig) *fooddata.CachedLookup {
	return fooddata.NewCachedLookup(
		fooddata.NewOpenFoodFacts(cfg.BaseURL, cfg.Timeout),
		cfg.CacheSizeMB,
		cfg.CacheTTL,
	)
}

// NewFileStorage returns nil when no bucket is configured; meal photos are
// then disabled.
func NewFileStorage(ctx context.Context, cfg config.S3Config) (storage.FileStorage, error) {
	if !cfg.Enabled() {
		log.Info("S3 bucket not configured; meal photos are disabled")
		return nil, nil
	}
	fs, err := storage.NewS3Storage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
	}
	return fs, nil
}
