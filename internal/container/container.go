package container

import (
	"context"
	"fmt"

	milvusclient "github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
	"github.com/qdrant/go-client/qdrant"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	pgrepo "github.com/mnemo-ai/mnemo/internal/application/repository/entity/postgres"
	neo4jrepo "github.com/mnemo-ai/mnemo/internal/application/repository/graph/neo4j"
	redisrepo "github.com/mnemo-ai/mnemo/internal/application/repository/turnstate/redis"
	milvusrepo "github.com/mnemo-ai/mnemo/internal/application/repository/vector/milvus"
	qdrantrepo "github.com/mnemo-ai/mnemo/internal/application/repository/vector/qdrant"
	"github.com/mnemo-ai/mnemo/internal/application/service/decision"
	"github.com/mnemo-ai/mnemo/internal/application/service/embedding"
	"github.com/mnemo-ai/mnemo/internal/application/service/retrieval"
	"github.com/mnemo-ai/mnemo/internal/application/service/turn"
	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

// Build wires the retrieval core. The host dialogue system invokes against the
// returned container to obtain the TurnService, or the DecisionService,
// RetrievalService, and ContextAssembler individually.
func Build(cfg *config.Config) (*dig.Container, error) {
	c := dig.New()

	providers := []interface{}{
		func() *config.Config { return cfg },
		newGraphDriver,
		newGormDB,
		newRedisClient,
		newVectorStore,
		neo4jrepo.NewGraphStore,
		pgrepo.NewRelationalStore,
		newTurnStateStore,
		embedding.NewEmbedder,
		decision.NewDecisionGate,
		retrieval.NewSemanticSearchClient,
		retrieval.NewGraphTraversalEngine,
		retrieval.NewHydrationService,
		retrieval.NewOrchestrator,
		retrieval.NewAssembler,
		turn.NewService,
	}
	for _, provider := range providers {
		if err := c.Provide(provider); err != nil {
			return nil, fmt.Errorf("failed to provide dependency: %w", err)
		}
	}
	return c, nil
}

func newGraphDriver(cfg *config.Config) (neo4j.Driver, error) {
	driver, err := neo4j.NewDriver(cfg.Graph.URI,
		neo4j.BasicAuth(cfg.Graph.Username, cfg.Graph.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	return driver, nil
}

func newGormDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}

func newRedisClient(cfg *config.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func newTurnStateStore(client *goredis.Client, cfg *config.Config) interfaces.TurnStateStore {
	return redisrepo.NewTurnStateStore(client, cfg.Redis.EchoTTL)
}

// newVectorStore selects the configured vector engine. Config validation has
// already rejected unknown engines.
func newVectorStore(cfg *config.Config) (interfaces.VectorStore, error) {
	switch cfg.Vector.Engine {
	case "milvus":
		cli, err := milvusclient.New(context.Background(), &milvusclient.ClientConfig{
			Address: fmt.Sprintf("%s:%d", cfg.Vector.Host, cfg.Vector.Port),
			APIKey:  cfg.Vector.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create milvus client: %w", err)
		}
		return milvusrepo.NewVectorStore(cli, cfg), nil
	default:
		cli, err := qdrant.NewClient(&qdrant.Config{
			Host:   cfg.Vector.Host,
			Port:   cfg.Vector.Port,
			APIKey: cfg.Vector.APIKey,
			UseTLS: cfg.Vector.UseTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create qdrant client: %w", err)
		}
		return qdrantrepo.NewVectorStore(cli, cfg), nil
	}
}
