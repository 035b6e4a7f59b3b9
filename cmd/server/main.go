package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"document-gpt/internal/api"
	"document-gpt/internal/config"
	"document-gpt/internal/conversation"
	"document-gpt/internal/embedding"
	"document-gpt/internal/gateway"
	"document-gpt/internal/indexer"
	"document-gpt/internal/llm"
	"document-gpt/internal/session"
	"document-gpt/internal/store"
	"document-gpt/internal/vectordb"
	"document-gpt/internal/watcher"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	configPath := flag.String("config", "./configs/config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("loading config failed")
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Upload.Dir).Msg("creating upload dir failed")
	}

	sqldb, err := store.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to database failed")
	}
	db := store.NewDB(sqldb, cfg.Database.Debug)
	defer db.Close()

	ctx := context.Background()
	if err := store.InitDB(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("initializing database failed")
	}
	users := store.NewUsers(db)

	embedder, err := embedding.NewEmbedder(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("creating embedder failed")
	}

	vstore, err := vectordb.NewStore(cfg.RAG.DBPath, cfg.RAG.Collection, false, embedding.ChromemFunc(embedder))
	if err != nil {
		log.Fatal().Err(err).Msg("opening vector store failed")
	}

	client, err := llm.NewClient(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("creating llm client failed")
	}

	ix := indexer.New(embedder, vstore, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	engine := conversation.NewEngine(client, vectordb.NewRetriever(vstore), cfg.RAG.TopK)

	handler := api.NewHandler(api.Deps{
		Indexer:   ix,
		Sessions:  session.NewManager(engine),
		Engine:    engine,
		Generator: client,
		Users:     users,
		Gateway:   gateway.FromTwilioConfig(&cfg.Twilio),
	})

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if cfg.Upload.Watch {
		w, err := watcher.New(cfg.Upload.Dir, ix)
		if err != nil {
			log.Fatal().Err(err).Msg("starting upload watcher failed")
		}
		defer w.Close()
		go func() {
			if err := w.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("upload watcher stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.NewRouter(handler),
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	stopWatch()
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
