package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maitred/internal/api"
	"maitred/internal/assistant"
	"maitred/internal/catalog"
	"maitred/internal/config"
	"maitred/internal/database"
	"maitred/internal/extractor"
	"maitred/internal/ledger"
	"maitred/internal/monitoring"
	"maitred/internal/semantic"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	if err := database.InitDB(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	db := database.GetDB()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.SeedMenu(db); err != nil {
		log.Fatalf("Failed to seed menu: %v", err)
	}

	cat, err := catalog.New(db)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	embedder, err := initEmbedder(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}
	index := semantic.NewIndex(embedder, cat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := index.Rebuild(ctx, cat.ListAvailable()); err != nil {
		log.Fatalf("Failed to build semantic index: %v", err)
	}
	log.Printf("Semantic index ready (backend: %s)", embedder.Name())

	collector := monitoring.NewCollector()
	collector.SetMenuItems(len(cat.ListAvailable()))

	ext := extractor.New(cat, index, cfg.Semantic.Threshold, collector)
	led := ledger.New(db)
	core := assistant.New(cat, index, ext, led, collector)

	model, err := initModel(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize conversational model: %v", err)
	}
	agent := assistant.NewAgent(core, assistant.NewSessionManager(), model)

	monitor := monitoring.NewMonitor()
	monitor.RecordMetric("semantic_backend", embedder.Name())
	monitor.RecordMetric("menu_items", len(cat.ListAvailable()))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewServer(core, agent, monitor).Router(),
	}
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}),
	}

	go func() {
		log.Printf("Metrics server listening on %s", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics server shutdown error: %v", err)
		}
		cancel()
	}()

	log.Printf("API server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

// initEmbedder selects the semantic backend. The hosted backend requires
// its API key; anything else falls back to the local tf-idf embedder.
func initEmbedder(cfg *config.Config) (semantic.Embedder, error) {
	switch cfg.Semantic.Backend {
	case "openai":
		apiKey := os.Getenv(cfg.Semantic.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable not set", cfg.Semantic.APIKeyEnv)
		}
		client, err := openai.New(
			openai.WithToken(apiKey),
			openai.WithEmbeddingModel(cfg.Semantic.EmbeddingModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedding client: %w", err)
		}
		return semantic.NewRemote(client, time.Duration(cfg.Semantic.TimeoutSecs)*time.Second)
	case "tfidf":
		return semantic.NewTFIDF(), nil
	default:
		return nil, fmt.Errorf("unsupported semantic backend: %s", cfg.Semantic.Backend)
	}
}

// initModel builds the conversational model, or returns nil when the agent
// should run with deterministic tool output only.
func initModel(cfg *config.Config) (llms.Model, error) {
	switch cfg.Agent.Provider {
	case "none":
		return nil, nil
	case "openai":
		apiKey := os.Getenv(cfg.Agent.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable not set", cfg.Agent.APIKeyEnv)
		}
		model, err := openai.New(
			openai.WithToken(apiKey),
			openai.WithModel(cfg.Agent.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI model: %w", err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported agent provider: %s", cfg.Agent.Provider)
	}
}
