// Command triad-service is the process entry point: it loads
// configuration, wires every collaborator the TRIAD Orchestrator needs,
// and serves the HTTP/SSE ingress surface until signaled to stop.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ridewave/triad/internal/config"
	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/internal/telemetry"
	"github.com/ridewave/triad/pkg/enrichment"
	"github.com/ridewave/triad/pkg/eventbus"
	"github.com/ridewave/triad/pkg/job"
	"github.com/ridewave/triad/pkg/modeladapter"
	"github.com/ridewave/triad/pkg/modeladapter/anthropic"
	"github.com/ridewave/triad/pkg/modeladapter/bedrock"
	"github.com/ridewave/triad/pkg/modeladapter/openaicompat"
	"github.com/ridewave/triad/pkg/snapshot"
	"github.com/ridewave/triad/pkg/transport"
	"github.com/ridewave/triad/pkg/triad"
	"github.com/ridewave/triad/pkg/venue"
)

func main() {
	os.Exit(run())
}

func run() int {
	log := logger.NewFromEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration failed", map[string]interface{}{"error": err.Error()})
		return int(config.ExitConfigurationError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.PersistenceDSN)
	if err != nil {
		log.Error("postgres pool init failed", map[string]interface{}{"error": err.Error()})
		return int(config.ExitPersistenceStartup)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Error("postgres unreachable", map[string]interface{}{"error": err.Error()})
		return int(config.ExitPersistenceStartup)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("invalid redis url", map[string]interface{}{"error": err.Error()})
		return int(config.ExitConfigurationError)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("redis unreachable", map[string]interface{}{"error": err.Error()})
		return int(config.ExitNetworkEgressBlocked)
	}

	snapshotStore := snapshot.NewPostgresStore(pool, log)
	registry := job.NewPostgresRegistry(pool, cfg.RetryCooldown, log)

	cache := enrichment.NewCache(redisClient, "", log)
	geocoder := enrichment.NewGeocoder(cfg.GeocoderBaseURL, cfg.GeocoderAPIKey, cache, log)
	places := enrichment.NewPlacesClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey, cache, log)
	routes := enrichment.NewRoutesClient(cfg.RoutesBaseURL, cfg.RoutesAPIKey, cache, log)
	weather := enrichment.NewWeatherClient("", cfg.GeocoderAPIKey, cache, log)

	resolver := snapshot.NewResolver(
		snapshot.GeocodeFunc(func(ctx context.Context, lat, lng float64) (snapshot.GeocodeResolution, error) {
			res, err := geocoder.Resolve(ctx, lat, lng)
			if err != nil {
				return snapshot.GeocodeResolution{}, err
			}
			return snapshot.GeocodeResolution{Timezone: res.Timezone, City: res.City, Region: res.Region, Country: res.Country}, nil
		}),
		weather,
	)

	catalog := &venue.Catalog{}
	if cfg.CatalogSeedPath != "" {
		catalog, err = venue.LoadCatalog(cfg.CatalogSeedPath)
		if err != nil {
			log.Error("catalog seed load failed", map[string]interface{}{"error": err.Error()})
			return int(config.ExitConfigurationError)
		}
	}

	strategist := anthropic.New(anthropic.Config{
		APIKey: cfg.StrategistAPIKey, BaseURL: cfg.StrategistBaseURL, Logger: log,
	})
	planner := openaicompat.New(openaicompat.Config{
		APIKey: cfg.PlannerAPIKey, BaseURL: cfg.PlannerBaseURL, Logger: log,
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.ValidatorRegion))
	if err != nil {
		log.Error("aws config load failed", map[string]interface{}{"error": err.Error()})
		return int(config.ExitConfigurationError)
	}
	validator := bedrock.New(bedrock.Config{AWSConfig: awsCfg, ModelID: "anthropic.claude-3-5-sonnet-20241022-v2:0", Logger: log})

	bus := eventbus.New()
	tracker := triad.NewTracker()

	telemetryProvider, telemetryShutdown, err := telemetry.New(telemetry.Config{
		ServiceName: cfg.ServiceName, OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Error("telemetry init failed", map[string]interface{}{"error": err.Error()})
		return int(config.ExitConfigurationError)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	orchestrator := triad.New(triad.Config{
		Strategist: strategist,
		Planner:    planner,
		Validator:  validator,
		Geocoder:   geocoder,
		Places:     places,
		Routes:     routes,
		Catalog:    catalog,
		Registry:   registry,
		Bus:        bus,
		Tracker:    tracker,
		Telemetry:  telemetryProvider,
		Logger:     log,
		Templates:  modeladapter.DefaultTemplates(),
		Deadlines: triad.Deadlines{
			Phase1: cfg.Phase1Deadline, Phase2: cfg.Phase2Deadline, Phase3: cfg.Phase3Deadline, Total: cfg.TotalBudget,
		},
	})

	router := transport.NewRouter(transport.Deps{
		Snapshots: snapshotStore, Resolver: resolver, Registry: registry,
		Orchestrator: orchestrator, Bus: bus, Logger: log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port),
		Handler:      otelhttp.NewHandler(router, "triad-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.TotalBudget + 30*time.Second, // SSE responses outlive a single job's budget
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down", nil)
	case err := <-serveErr:
		log.Error("server failed", map[string]interface{}{"error": err.Error()})
		return int(config.ExitNetworkEgressBlocked)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	return int(config.ExitOK)
}
