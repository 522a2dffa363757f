package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
	historyx "github.com/tawanchai/bankdesk/agent/history"
	llmx "github.com/tawanchai/bankdesk/agent/llm"
	orchestratorx "github.com/tawanchai/bankdesk/agent/orchestrator"
	registryx "github.com/tawanchai/bankdesk/agent/registry"
	responderx "github.com/tawanchai/bankdesk/agent/responder"
	statex "github.com/tawanchai/bankdesk/agent/state"
	configx "github.com/tawanchai/bankdesk/pkg/config"
	_ "github.com/tawanchai/bankdesk/pkg/logger/autoload"
	openrouterx "github.com/tawanchai/bankdesk/pkg/openrouter"
	qdrantx "github.com/tawanchai/bankdesk/pkg/qdrant"
)

type AppConfig struct {
	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	DemoUserID      string        `envconfig:"DEMO_USER_ID" default:"demo-customer"`
	PipelineTimeout time.Duration `envconfig:"PIPELINE_TIMEOUT" default:"60s"`

	SessionWindow   int           `envconfig:"SESSION_WINDOW" default:"12"`
	SessionCapacity int           `envconfig:"SESSION_CAPACITY" default:"1024"`
	SessionMaxIdle  time.Duration `envconfig:"SESSION_MAX_IDLE" default:"30m"`
	EvictInterval   time.Duration `envconfig:"EVICT_INTERVAL" default:"5m"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	qdrantCfg := configx.MustNew[qdrantx.Config]("QDRANT")

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(appCfg.DatabaseURL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	sink, err := historyx.NewPostgresSink(db)
	if err != nil {
		log.Fatal().Err(err).Msg("create history sink")
	}
	if err := sink.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("bootstrap history schema")
	}

	qdrantClient := qdrantx.MustNew(*qdrantCfg)

	embedderClient := openrouterx.NewClient(llmCfg.OpenRouterFor(llmx.RoleResponder))
	embedder, err := openrouterx.NewEmbedder(embedderClient, llmCfg.EmbeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("create embedder")
	}

	models, err := registryx.NewRegistry(ctx, *llmCfg, registryx.Deps{
		Ledger:   responderx.NewBunLedger(db),
		Embedder: embedder,
		Searcher: qdrantClient,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build capability registry")
	}

	store := statex.NewMemoryStore(
		statex.WithWindow(appCfg.SessionWindow),
		statex.WithCapacity(appCfg.SessionCapacity),
		statex.WithMaxIdle(appCfg.SessionMaxIdle),
	)
	go evictLoop(ctx, store, appCfg.EvictInterval)

	engine, err := orchestratorx.New(store, models, sink, orchestratorx.Config{
		PipelineTimeout: appCfg.PipelineTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	runConsole(ctx, engine, appCfg.DemoUserID)
}

func evictLoop(ctx context.Context, store *statex.MemoryStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if evicted := store.Evict(now); evicted > 0 {
				log.Debug().Int("evicted", evicted).Msg("idle sessions evicted")
			}
		}
	}
}

func runConsole(ctx context.Context, engine *orchestratorx.Orchestrator, userID string) {
	fmt.Printf("bankdesk console — user %s (ctrl-d to quit)\n", userID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		turn, err := engine.HandleQuery(ctx, userID, query, contractx.InteractionText)
		if err != nil {
			var oe *contractx.OrchestrationError
			if errors.As(err, &oe) {
				log.Warn().Err(oe).Str("kind", string(oe.Kind)).Msg("query failed")
			} else {
				log.Warn().Err(err).Msg("query failed")
			}
			fmt.Println("Sorry, the service is unavailable right now. Please try again.")
			continue
		}
		fmt.Println(turn.Response)
	}
}
