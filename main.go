package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	cachex "github.com/lenoxhq/lenox/agent/cache"
	feedbackx "github.com/lenoxhq/lenox/agent/feedback"
	intentx "github.com/lenoxhq/lenox/agent/intent"
	memoryx "github.com/lenoxhq/lenox/agent/memory"
	orchestratorx "github.com/lenoxhq/lenox/agent/orchestrator"
	paramsx "github.com/lenoxhq/lenox/agent/params"
	toolx "github.com/lenoxhq/lenox/agent/tool"
	completionx "github.com/lenoxhq/lenox/pkg/completion"
	configx "github.com/lenoxhq/lenox/pkg/config"
	_ "github.com/lenoxhq/lenox/pkg/logger/autoload"
	serverx "github.com/lenoxhq/lenox/server"
)

type AppConfig struct {
	TurnTimeout       time.Duration `envconfig:"TURN_TIMEOUT" split_words:"true" default:"25s"`
	SessionIdleTTL    time.Duration `envconfig:"SESSION_IDLE_TTL" split_words:"true" default:"2h"`
	ReapInterval      time.Duration `envconfig:"REAP_INTERVAL" split_words:"true" default:"10m"`
	FeedbackWindow    time.Duration `envconfig:"FEEDBACK_WINDOW" split_words:"true" default:"1h"`
	ReinforceInterval time.Duration `envconfig:"REINFORCE_INTERVAL" split_words:"true" default:"5m"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("LENOX")
	completionCfg := configx.MustNew[completionx.Config]("OPENAI")
	feedbackCfg := configx.MustNew[feedbackx.Config]("FEEDBACK")
	serverCfg := configx.MustNew[serverx.Config]("HTTP")

	cryptoCompareCfg := configx.MustNew[toolx.CryptoCompareConfig]("CRYPTOCOMPARE")
	coinGeckoCfg := configx.MustNew[toolx.CoinGeckoConfig]("COINGECKO")
	cryptoPanicCfg := configx.MustNew[toolx.CryptoPanicConfig]("CRYPTOPANIC")
	moralisCfg := configx.MustNew[toolx.MoralisConfig]("MORALIS")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	completer, err := completionx.NewClient(*completionCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create completion client")
	}

	registry := toolx.NewRegistry()
	if err := toolx.RegisterCatalog(registry, toolx.Clients{
		CryptoCompare: toolx.NewCryptoCompareClient(*cryptoCompareCfg),
		CoinGecko:     toolx.NewCoinGeckoClient(*coinGeckoCfg),
		CryptoPanic:   toolx.NewCryptoPanicClient(*cryptoPanicCfg),
		Moralis:       toolx.NewMoralisClient(*moralisCfg),
	}); err != nil {
		log.Fatal().Err(err).Msg("register tool catalog")
	}

	store, err := feedbackx.NewStore(*feedbackCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open feedback store")
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("init feedback store")
	}

	sessions := memoryx.NewManager(memoryx.WithIdleTTL(appCfg.SessionIdleTTL))
	sessions.StartReaper(ctx, appCfg.ReapInterval)

	reinforcer := feedbackx.NewReinforcer(store, appCfg.FeedbackWindow, appCfg.ReinforceInterval)
	reinforcer.Start(ctx)

	orch, err := orchestratorx.New(
		registry,
		intentx.NewClassifier(registry),
		paramsx.NewRegexExtractor(),
		toolx.NewRunner(cachex.New()),
		sessions,
		store,
		completer,
		orchestratorx.Config{TurnTimeout: appCfg.TurnTimeout},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	srv := serverx.New(*serverCfg, orch, registry)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
