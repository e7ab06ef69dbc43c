package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"purobot/internal/bot"
	"purobot/internal/common"
	"purobot/internal/config"
	"purobot/internal/robloxapi"
	"purobot/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {

	configFile := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	// A missing .env is fine, the environment may come from elsewhere
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load configuration: %s\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Log.Level)
	log.Info().Msg("Starting whitelist bot")

	roblox := robloxapi.NewRobloxApi([]common.Restriction{
		{Requests: cfg.Roblox.RequestsPerMinute, Duration: time.Minute},
	})

	st, err := store.NewStore(cfg.Store.ApplicationsFile)
	if err != nil {
		log.Fatal().Msg(fmt.Sprintf("Could not open application store: %s", err))
	}

	b, err := bot.NewBot(cfg, st, &roblox)
	if err != nil {
		log.Fatal().Msg(fmt.Sprintf("Could not create bot: %s", err))
	}

	if err := b.Run(); err != nil {
		log.Fatal().Msg(fmt.Sprintf("Bot stopped with error: %s", err))
	}
	log.Info().Msg("Bot stopped")
}

func setupLogging(level string) {

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
