// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/ReleasePilot/services/chat"
	"github.com/AleutianAI/ReleasePilot/services/digest"
	"github.com/AleutianAI/ReleasePilot/services/history"
	"github.com/AleutianAI/ReleasePilot/services/llm"
	"github.com/AleutianAI/ReleasePilot/services/pilot/observability"
	"github.com/AleutianAI/ReleasePilot/services/pilot/routes"
	"github.com/AleutianAI/ReleasePilot/services/slack"
	"github.com/AleutianAI/ReleasePilot/services/sources"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// initTracer wires the OTLP exporter when an endpoint is configured. The
// pilot must run standalone, so an absent endpoint means no tracing rather
// than a startup failure.
func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled")
		return func(context.Context) {}, nil
	}

	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("pilot-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	port := os.Getenv("PILOT_PORT")
	if port == "" {
		port = "12310"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	dataDir := os.Getenv("PILOT_DATA_DIR")
	if dataDir == "" {
		dataDir = "/app/data/digests"
	}
	store, err := digest.OpenStore(dataDir, logger)
	if err != nil {
		log.Fatalf("FATAL: Could not open the digest store: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSeeded(context.Background()); err != nil {
		log.Fatalf("FATAL: Could not seed the digest store: %v", err)
	}

	metrics := observability.InitMetrics()

	fetcher := sources.NewClient(sources.ConfigFromEnv())

	recorder := history.NewFromEnv()

	agg := digest.NewAggregator(fetcher, store)
	agg.Metrics = metrics
	if recorder != nil {
		agg.History = recorder
	}

	var llmClient llm.LLMClient
	if llm.HasOpenAICredentials() {
		client, err := llm.NewOpenAIClient()
		if err != nil {
			log.Fatalf("Failed to initialize LLM client: %v", err)
		}
		llmClient = client
		slog.Info("Using OpenAI LLM backend for chat")
	} else {
		slog.Info("OPENAI_API_KEY not set, chat uses the deterministic responder")
	}

	responder := chat.NewResponder(store, llmClient)
	responder.Metrics = metrics

	slackSvc := slack.NewServiceFromEnv()

	router := gin.Default()
	router.Use(otelgin.Middleware("pilot-service"))

	routes.SetupRoutes(router, store, agg, responder, slackSvc, recorder, metrics)

	log.Println("Starting the pilot server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
