package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shipdesk/config"
	"shipdesk/internal/api/graphql_api"
	"shipdesk/internal/auth"
	"shipdesk/internal/broker/kafka"
	"shipdesk/internal/cache/rediscache"
	authsvc "shipdesk/internal/services/auth"
	"shipdesk/internal/services/shipments"
	"shipdesk/internal/storage/pgshipments"
)

type app struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   appOpts

	api       *graphql_api.GraphQLAPI
	shipments *shipments.Service
	consumer  *kafka.Consumer

	closers []func()
}

func bootstrap(cfgPath string) (*app, error) {
	if cfgPath == "" {
		return nil, fmt.Errorf("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	httpAddr := cfg.ShipDesk.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.ShipDesk.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "shipdesk-api"
	}
	statusTopic := cfg.Kafka.StatusChangedTopicName
	if statusTopic == "" {
		statusTopic = "shipment.status.changed"
	}
	carrierTopic := cfg.Kafka.CarrierEventsTopicName
	if carrierTopic == "" {
		carrierTopic = "carrier.events"
	}

	jwtSecret := cfg.ShipDesk.JWTSecret
	if jwtSecret == "" {
		jwtSecret = os.Getenv("JWT_SECRET")
	}
	if jwtSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required (config or JWT_SECRET env)")
	}

	accessTTL := time.Duration(cfg.ShipDesk.AccessTokenTTLSeconds) * time.Second
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := time.Duration(cfg.ShipDesk.RefreshTokenTTLSeconds) * time.Second
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	cacheTTL := time.Duration(cfg.ShipDesk.TrackingCacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	loginLimit := int64(cfg.ShipDesk.LoginRateLimitPerMinute)
	if loginLimit <= 0 {
		loginLimit = 10
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st, err := openPostgresWithRetry(connString, 60*time.Second)
	if err != nil {
		return nil, err
	}

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)
	limiter := rediscache.NewRateLimiter(redisAddr)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)
	consumer := kafka.NewConsumer(brokers, carrierTopic, consumerGroup)

	issuer := auth.NewTokenIssuer(jwtSecret, accessTTL)
	authService := authsvc.New(st, issuer, refreshTTL, limiter, loginLimit)
	shipmentService := shipments.New(st, rc, cacheTTL, producer, statusTopic)

	api, err := graphql_api.New(shipmentService, authService, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &app{
		ctx:    ctx,
		cancel: cancel,
		opts: appOpts{
			httpAddr:      httpAddr,
			carrierTopic:  carrierTopic,
			consumerGroup: consumerGroup,
		},
		api:       api,
		shipments: shipmentService,
		consumer:  consumer,
		closers: []func(){
			func() { _ = consumer.Close() },
			func() { _ = producer.Close() },
			st.Close,
		},
	}, nil
}

func openPostgresWithRetry(connString string, wait time.Duration) (*pgshipments.Storage, error) {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgshipments.New(connString)
		if err == nil {
			return st, nil
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	return nil, fmt.Errorf("postgres is not ready after %s: %w", wait, lastErr)
}

func (a *app) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for _, c := range a.closers {
		c()
	}
}

func (a *app) Run() error {
	return run(a.ctx, a.opts, a.api, a.shipments, a.consumer)
}
