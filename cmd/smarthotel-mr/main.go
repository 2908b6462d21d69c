package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"smarthotel-mr/internal/config"
	"smarthotel-mr/internal/database"
	"smarthotel-mr/internal/domain"
	"smarthotel-mr/internal/events"
	httpapi "smarthotel-mr/internal/http"
	"smarthotel-mr/internal/logger"
	"smarthotel-mr/internal/repository"
	"smarthotel-mr/internal/service"
	"smarthotel-mr/internal/store"
)

func main() {
	if err := newRootCmd(config.Load(), run).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd 运行期错误（如存储连接失败）只打印错误，不打印 usage
func newRootCmd(cfg *config.Config, runFn func(*config.Config) error) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "smarthotel-mr",
		Short:        "SmartHotel mixed reality backend (anchor sets, space topology, shared state)",
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			return runFn(cfg)
		},
	}
	rootCmd.Flags().StringVar(&cfg.HTTP.Addr, "addr", cfg.HTTP.Addr, "HTTP listen address")
	rootCmd.Flags().StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "document store: memory | mongo | postgres")
	rootCmd.Flags().StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug | info | warn | error")
	return rootCmd
}

// stores 各集合的文档存储
type stores struct {
	anchorSets   repository.DocumentStore[domain.AnchorSet]
	sharedStates repository.DocumentStore[domain.SharedState]
	sensorData   repository.DocumentStore[domain.SensorData]
	desiredData  repository.DocumentStore[domain.DesiredData]
	close        func()
}

func run(cfg *config.Config) error {
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "smarthotel-mr")
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	// Redis：拓扑缓存与 redis 事件驱动共用
	var redisClient *redis.Client
	if cfg.TopologyCacheTTL > 0 || cfg.Events.Driver == "redis" {
		redisClient = store.NewRedisClient(&cfg.Redis)
		defer redisClient.Close()
	}

	publisher, closePublisher, err := newPublisher(cfg, redisClient, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	twins := service.NewDigitalTwinsClient(cfg.DigitalTwins.ManagementAPIURL, service.AADCredentials{
		Instance:     cfg.DigitalTwins.AADInstance,
		TenantID:     cfg.DigitalTwins.TenantID,
		ClientID:     cfg.DigitalTwins.ClientID,
		ClientSecret: cfg.DigitalTwins.ClientSecret,
		Resource:     cfg.DigitalTwins.ResourceID,
	}, cfg.DigitalTwins.Timeout, log)

	var fetcher service.RemoteFetcher = twins
	var cache httpapi.CacheInvalidator
	if cfg.TopologyCacheTTL > 0 {
		cached := service.NewCachedFetcher(twins, store.NewRedisKV(redisClient), cfg.TopologyCacheTTL, log)
		fetcher = cached
		cache = cached
		log.Info("Topology cache enabled", zap.Duration("ttl", cfg.TopologyCacheTTL))
	}

	tokens := service.NewSpatialTokenClient(cfg.SpatialAnchors.STSURL, cfg.SpatialAnchors.AccountID, service.AADCredentials{
		Instance:     cfg.SpatialAnchors.AADInstance,
		TenantID:     cfg.SpatialAnchors.TenantID,
		ClientID:     cfg.SpatialAnchors.ApplicationID,
		ClientSecret: cfg.SpatialAnchors.ApplicationKey,
		Resource:     cfg.SpatialAnchors.Resource,
	}, cfg.DigitalTwins.Timeout, log)

	anchorSets := service.NewAnchorSetService(st.anchorSets, publisher, log)
	topology := service.NewTopologyService(fetcher, log)
	sharedState := service.NewSharedStateService(st.sharedStates, publisher, nil, log)

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterAnchorSetRoutes(httpapi.NewAnchorSetHandler(anchorSets, log))
	router.RegisterTopologyRoutes(httpapi.NewTopologyHandler(topology, cache, log))
	router.RegisterSharedStateRoutes(httpapi.NewSharedStateHandler(sharedState, log))
	router.RegisterSensorDataRoutes(httpapi.NewSensorDataHandler(
		service.NewSensorDataService(st.sensorData),
		service.NewDesiredDataService(st.desiredData),
		log,
	))
	router.RegisterAppTokenRoutes(httpapi.NewAppTokenHandler(tokens, log))

	var handler http.Handler = router
	if cfg.HTTP.AuthEnabled {
		handler = httpapi.APIKeyMiddleware(cfg.HTTP.APIKey, log, router)
	} else {
		log.Warn("API key authentication disabled")
	}
	srv := service.NewServer(cfg.HTTP.Addr, handler, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		runErr = err
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	return runErr
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("Using in-memory document store; data is lost on restart")
		return &stores{
			anchorSets:   repository.NewMemoryDocumentStore[domain.AnchorSet](),
			sharedStates: repository.NewMemoryDocumentStore[domain.SharedState](),
			sensorData:   repository.NewMemoryDocumentStore[domain.SensorData](),
			desiredData:  repository.NewMemoryDocumentStore[domain.DesiredData](),
			close:        func() {},
		}, nil

	case "mongo":
		client, db, err := database.NewMongoDatabase(ctx, &cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to connect mongo: %w", err)
		}
		log.Info("Mongo document store enabled", zap.String("database", cfg.Mongo.Database))
		return &stores{
			anchorSets:   repository.NewMongoDocumentStore[domain.AnchorSet](db),
			sharedStates: repository.NewMongoDocumentStore[domain.SharedState](db),
			sensorData:   repository.NewMongoDocumentStore[domain.SensorData](db),
			desiredData:  repository.NewMongoDocumentStore[domain.DesiredData](db),
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(closeCtx)
			},
		}, nil

	case "postgres":
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect postgres: %w", err)
		}
		if err := repository.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("Postgres document store enabled", zap.String("host", cfg.Database.Host))
		return &stores{
			anchorSets:   repository.NewPostgresDocumentStore[domain.AnchorSet](db),
			sharedStates: repository.NewPostgresDocumentStore[domain.SharedState](db),
			sensorData:   repository.NewPostgresDocumentStore[domain.SensorData](db),
			desiredData:  repository.NewPostgresDocumentStore[domain.DesiredData](db),
			close:        func() { _ = db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func newPublisher(cfg *config.Config, redisClient *redis.Client, log *zap.Logger) (events.Publisher, func(), error) {
	switch cfg.Events.Driver {
	case "", "none":
		return events.NopPublisher{}, func() {}, nil
	case "redis":
		log.Info("Publishing events to Redis Streams", zap.String("prefix", cfg.Events.StreamPrefix))
		return events.NewRedisStreamPublisher(redisClient, cfg.Events.StreamPrefix), func() {}, nil
	case "mqtt":
		client, err := events.NewMQTTClient(&cfg.MQTT)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect mqtt: %w", err)
		}
		log.Info("Publishing events to MQTT", zap.String("broker", cfg.MQTT.Broker))
		p := events.NewMQTTPublisher(client, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS)
		return p, p.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown EVENTS_DRIVER %q", cfg.Events.Driver)
	}
}
