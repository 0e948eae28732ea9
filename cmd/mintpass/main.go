package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/layer-3/mintpass/adapters/chain"
	"github.com/layer-3/mintpass/adapters/events"
	"github.com/layer-3/mintpass/adapters/store"
	"github.com/layer-3/mintpass/adapters/tokenizer"
	"github.com/layer-3/mintpass/config"
	"github.com/layer-3/mintpass/metrics"
	"github.com/layer-3/mintpass/service"
	transport "github.com/layer-3/mintpass/transport/http"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	envPath := flag.String("env", "", "directory containing .env files")
	flag.Parse()

	cfg, err := config.LoadServiceConfig(*configFile, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	redisClient, err := initRedis(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	signKey, err := loadSigningKey(cfg.Receipts.SigningKeyPath)
	if err != nil {
		logger.Fatal("failed to load receipt signing key", zap.Error(err))
	}
	if cfg.Receipts.SigningKeyPath == "" {
		logger.Warn("no receipt signing key configured, receipts will not survive a restart")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	provider := chain.NewProvider(chain.NewEthClientDialer(), cfg.ChainProviders, logger)
	defer provider.Close()

	opts := []service.Option{
		service.WithTokenizer(tokenizer.NewJWTTokenizer(signKey, cfg.Receipts.TTL)),
		service.WithMetrics(metrics.New(registry)),
	}

	if cfg.Events.Enabled {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			watermill.NewStdLogger(cfg.Debug, false),
		)
		if err != nil {
			logger.Fatal("failed to create redis stream publisher", zap.Error(err))
		}
		defer publisher.Close()
		opts = append(opts, service.WithPublisher(events.NewWatermillPublisher(publisher, cfg.Events.Topic)))
	}

	challengeService := service.NewChallengeService(
		provider,
		store.NewRedisStore(redisClient, cfg.Redis.KeyPrefix),
		logger,
		opts...,
	)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.SetupRouter(challengeService, registry, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("addr", cfg.Server.Addr()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func initLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// initRedis connects to redis, retrying the first ping while the server comes up
func initRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	}, b)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// loadSigningKey reads a PEM encoded P-256 key, or generates one when path is empty
func loadSigningKey(path string) (*ecdsa.PrivateKey, error) {
	if path == "" {
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return key, nil
}
