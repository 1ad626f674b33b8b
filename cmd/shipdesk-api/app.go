package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"shipdesk/internal/api/graphql_api"
	"shipdesk/internal/broker/messages"
	"shipdesk/internal/services/shipments"
)

type appOpts struct {
	httpAddr      string
	carrierTopic  string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

func run(ctx context.Context, opts appOpts, api *graphql_api.GraphQLAPI, svc *shipments.Service, consumer kafkaConsumer) error {
	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}

	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, api)
	}()

	go func() {
		slog.Info("kafka consumer started", "topic", opts.carrierTopic, "group", opts.consumerGroup)
		err := consumer.Consume(ctx, func(_ []byte, value []byte) error {
			var m messages.CarrierEvent
			if err := json.Unmarshal(value, &m); err != nil {
				return err
			}
			return svc.ApplyCarrierEvent(ctx, m)
		})
		if err != nil && ctx.Err() == nil {
			slog.Error("kafka consumer stopped", "topic", opts.carrierTopic, "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		return err
	}
}

func runHTTPServer(ctx context.Context, lis net.Listener, api *graphql_api.GraphQLAPI) error {
	srv := &http.Server{Handler: api.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	return srv.Serve(lis)
}
