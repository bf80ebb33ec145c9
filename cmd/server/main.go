package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/cache"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/cartstore"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/editwindow"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/feed"
	h "github.com/thefrankalbert/radisson-menu-app-sub001/internal/http"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/order"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/venue"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	VenueGroupsFile string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Postgres        *order.Credentials
}

func loadConfig() *Config {
	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		log.Fatalf("invalid POSTGRES_PORT: %v", err)
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "tableorder"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		VenueGroupsFile: getEnv("VENUE_GROUPS_FILE", "configs/venue-groups.yaml"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Postgres: &order.Credentials{
			Host:              getEnv("POSTGRES_HOST", "localhost"),
			Port:              pgPort,
			User:              getEnv("POSTGRES_USER", "postgres"),
			Password:          getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:            getEnv("POSTGRES_DB", "tableorder"),
			MigrationsDirPath: getEnv("MIGRATIONS_DIR", "migrations"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Venue group table: static business configuration
	groups, err := venue.LoadGroups(cfg.VenueGroupsFile)
	if err != nil {
		log.Fatalf("Failed to load venue groups: %v", err)
	}

	// Postgres: orders and venue catalog
	repo, err := order.NewPostgresRepository(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(cfg.Postgres); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to postgres at %s", cfg.Postgres.Host)

	// MongoDB: persisted cart sessions
	mongoDB, err := cartstore.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(ctx)
	store := cartstore.NewMongoStore(mongoDB)
	if err := store.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	// Redis: order snapshot cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	// Kafka: realtime order-status feed
	hub := feed.NewHub()
	consumer := feed.NewConsumer(hub, cfg.KafkaBrokers...)
	defer consumer.Close()
	go consumer.Run(ctx)
	publisher := feed.NewPublisher(cfg.KafkaBrokers...)
	defer publisher.Close()

	resolver := venue.NewResolver(repo, groups)
	orderService := order.NewService(repo, cache.NewRedisCache(redisClient), publisher)
	sessions := h.NewSessions(resolver, store)
	windows := editwindow.NewRegistry(orderService, hub, h.RequestConfirmer{})

	cartHandler := h.NewCartHandler(sessions, cfg.RequestTimeout)
	orderHandler := h.NewOrderHandler(orderService, sessions, windows, cfg.RequestTimeout)
	router := h.NewRouter(cartHandler, orderHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: otelhttp.NewHandler(router, "tableorder"),
	}

	go func() {
		log.Printf("Table-order service listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down table-order service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Table-order service stopped")
}
