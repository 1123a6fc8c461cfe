package infrafx

import (
	"context"
	"etape/training-hub/internal/ai"
	"etape/training-hub/internal/config"
	"etape/training-hub/internal/email"
	"etape/training-hub/internal/repository"
	"etape/training-hub/internal/repository/memory"
	repoMongo "etape/training-hub/internal/repository/mongo"
	"etape/training-hub/internal/repository/redis"
	"etape/training-hub/internal/service"
	"etape/training-hub/internal/storage"
	"etape/training-hub/internal/strava"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
)

// Module provides configuration and the external systems the services talk to.
var Module = fx.Provide(
	provideConfig,
	provideMongoClient,
	provideDatabase,
	provideFileStorage,
	provideEmailSender,
	provideModel,
	ai.NewPlanParser,
	provideStravaClient,
	provideStateRepository,
)

func provideConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return config.Config{}, err
	}
	log.Println("Configuration loaded.")
	return cfg, nil
}

func provideMongoClient(lc fx.Lifecycle, cfg config.Config) (*mongo.Client, error) {
	client, err := repoMongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Disconnecting MongoDB...")
			if err := repoMongo.DisconnectDB(client); err != nil {
				log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
			}
			return nil
		},
	})
	return client, nil
}

func provideDatabase(client *mongo.Client, cfg config.Config) *mongo.Database {
	db := client.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		repoMongo.EnsureIndexes(ctx, db)
		log.Println("Index creation process completed.")
	}()
	return db
}

func provideFileStorage(cfg config.Config) (storage.FileStorage, error) {
	log.Println("Initializing file storage service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return storage.NewS3Storage(ctx, cfg.S3)
}

func provideEmailSender(cfg config.Config) email.Sender {
	return email.NewSender(cfg.Email)
}

func provideModel(cfg config.Config) (ai.Model, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return ai.NewModel(ctx, cfg.AI)
}

func provideStravaClient(cfg config.Config) service.StravaClient {
	if !cfg.Strava.Enabled() {
		log.Println("INFO: Strava credentials not set; integrations are disabled")
	}
	return strava.NewClient(cfg.Strava)
}

// provideStateRepository keeps OAuth states in Redis when configured so that
// several server instances can share them; otherwise in process memory.
func provideStateRepository(lc fx.Lifecycle, cfg config.Config) (repository.OAuthStateRepository, error) {
	if cfg.Redis.URL == "" {
		log.Println("WARN: redis.url not set; OAuth states are kept in memory")
		return memory.NewStateRepository(), nil
	}
	states, err := redis.NewStateRepository(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return states.Close() },
	})
	log.Println("OAuth state store connected to Redis.")
	return states, nil
}
