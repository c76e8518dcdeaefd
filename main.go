package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"github.com/tanpawarit/merchant-sales-agent/agent/agents/orchestrator"
	"github.com/tanpawarit/merchant-sales-agent/agent/api"
	"github.com/tanpawarit/merchant-sales-agent/agent/audit"
	"github.com/tanpawarit/merchant-sales-agent/agent/commerce"
	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
	"github.com/tanpawarit/merchant-sales-agent/agent/escalation"
	"github.com/tanpawarit/merchant-sales-agent/agent/incident"
	"github.com/tanpawarit/merchant-sales-agent/agent/llm"
	nodex "github.com/tanpawarit/merchant-sales-agent/agent/nodes/orchestrator"
	"github.com/tanpawarit/merchant-sales-agent/agent/profile"
	"github.com/tanpawarit/merchant-sales-agent/agent/prompt"
	"github.com/tanpawarit/merchant-sales-agent/agent/retrieval"
	"github.com/tanpawarit/merchant-sales-agent/agent/tool"
	"github.com/tanpawarit/merchant-sales-agent/agent/usage"
	configx "github.com/tanpawarit/merchant-sales-agent/pkg/config"
	_ "github.com/tanpawarit/merchant-sales-agent/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/merchant-sales-agent/pkg/openrouter"
	"github.com/tanpawarit/merchant-sales-agent/pkg/postgres"
	qstashx "github.com/tanpawarit/merchant-sales-agent/pkg/qstash"
)

type AppConfig struct {
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	RequiredContexts    []string      `envconfig:"AGENT_REQUIRED_CONTEXTS" default:"merchant"`
	ProfileCacheEnabled bool          `envconfig:"PROFILE_CACHE_ENABLED" default:"false"`
	QStashEnabled       bool          `envconfig:"QSTASH_ENABLED" default:"false"`
	RescueCallbackURL   string        `envconfig:"RESCUE_CALLBACK_URL"`
	AdminAPIKeys        []string      `envconfig:"ADMIN_API_KEYS"`
	ShutdownTimeout     time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llm.Config]("LLM")
	if err := llmCfg.VerifyRequired(appCfg.RequiredContexts); err != nil {
		log.Fatal().Err(err).Msg("missing provider credential for a required context")
	}

	pgCfg := configx.MustNew[postgres.Config]("POSTGRES")
	db := postgres.MustOpen(*pgCfg)
	defer db.Close()
	if err := postgres.Ping(ctx, db, 5*time.Second); err != nil {
		log.Fatal().Err(err).Msg("postgres unreachable")
	}

	prompts := prompt.LoadPromptSet()
	salesPrompt, err := prompt.NewSalesBuilder(prompts)
	if err != nil {
		log.Fatal().Err(err).Msg("load sales prompt")
	}

	limiter, err := usage.NewLimiter(usage.NewBunRepository(db))
	if err != nil {
		log.Fatal().Err(err).Msg("build usage limiter")
	}

	store := commerce.NewStore(db)
	escalations, err := escalation.NewService(escalation.NewBunRepository(db), store)
	if err != nil {
		log.Fatal().Err(err).Msg("build escalation service")
	}

	var profiles contractx.ProfileSource = profile.NewBunSource(db)
	if appCfg.ProfileCacheEnabled {
		cacheCfg := configx.MustNew[profile.UpstashRedisConfig]("UPSTASH_REDIS")
		cache, err := profile.NewUpstashRedisCache(*cacheCfg, profile.WithKeyPrefix(cacheCfg.KeyPrefix))
		if err != nil {
			log.Fatal().Err(err).Msg("build profile cache")
		}
		profiles = profile.NewCachedSource(profiles, cache)
	}

	infos, executor := tool.Build(tool.Collaborators{
		Catalog:    store,
		Delivery:   store,
		Promotions: store,
		Orders:     store,
	})

	agent, err := orchestrator.New(orchestrator.Deps{
		Limiter:   limiter,
		Escalator: escalations,
		Retriever: retrieval.New(db),
		Profiles:  profiles,
		Audit:     audit.NewLogger(audit.NewBunRepository(db), nil),
		Caller:    llm.NewCaller(llm.NewFactory(*llmCfg)),
		Prompts:   salesPrompt,
		Tools:     nodex.Tools{Infos: infos, Executor: executor},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	opts := []api.Option{api.WithAdminKeys(appCfg.AdminAPIKeys...)}
	rescue, verifier := buildRescue(*appCfg, *llmCfg, db, prompts.Rescue)
	if rescue != nil {
		opts = append(opts, api.WithIncidents(rescue))
	}
	if verifier != nil {
		opts = append(opts, api.WithCallbackVerifier(verifier, appCfg.RescueCallbackURL))
	}

	srv := &http.Server{
		Addr:              appCfg.HTTPAddr,
		Handler:           api.NewServer(agent, limiter, opts...).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", appCfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
}

// buildRescue wires the incident pipeline. Classification needs the rescue
// credential; without it incidents are still recorded and routed to
// engineering.
func buildRescue(appCfg AppConfig, llmCfg llm.Config, db *bun.DB, rescuePrompt string) (*incident.Service, *qstashx.Client) {
	var classifier incident.Classifier
	if orCfg, err := llmCfg.OpenRouterFor(contractx.ChannelRescue); err == nil {
		c, err := incident.NewOpenAIClassifier(openrouterx.NewClient(orCfg), orCfg.Model, rescuePrompt)
		if err != nil {
			log.Fatal().Err(err).Msg("build incident classifier")
		}
		classifier = c
	} else {
		log.Warn().Err(err).Msg("rescue context disabled, incidents will not be auto-classified")
	}

	var (
		opts     []incident.Option
		verifier *qstashx.Client
	)
	if appCfg.QStashEnabled {
		qCfg := configx.MustNew[qstashx.Config]("QSTASH")
		verifier = qstashx.MustNew(*qCfg)
		dispatcher, err := incident.NewQStashDispatcher(verifier, appCfg.RescueCallbackURL)
		if err != nil {
			log.Fatal().Err(err).Msg("build qstash dispatcher")
		}
		opts = append(opts, incident.WithDispatcher(dispatcher))
	}

	svc, err := incident.NewService(incident.NewBunRepository(db), classifier, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("build incident service")
	}
	return svc, verifier
}
