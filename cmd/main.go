package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"home_climate/internal/handlers"
	"home_climate/internal/logger"
	"home_climate/internal/mqttbridge"
	"home_climate/internal/relay"
	"home_climate/internal/repository"
	"home_climate/internal/repository/db"
	"home_climate/internal/server"
	"home_climate/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// bootstrap logger until the configured level is known
	log := logger.Get(logger.InfoLevel)

	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnw("failed to read .env", "err", err)
	}

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}
	log = logger.Get(viper.GetString("log.level"))

	// open DB
	conn, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.Config{
		SigningKey:         viper.GetString("auth.signing_key"),
		TokenTTL:           viper.GetDuration("auth.token_ttl"),
		Admins:             viper.GetStringSlice("auth.admins"),
		CompactionInterval: viper.GetDuration("archive.compaction_interval"),
		CleanupInterval:    viper.GetDuration("archive.cleanup_interval"),
	}, log.Component("service"))
	hub := relay.NewHub(log)
	rel := relay.New(services, hub, log)
	apiHandler := handlers.NewHandler(services, hub, rel, handlers.Options{
		NodeKey:    viper.GetString("relay.node_key"),
		SendBuffer: viper.GetInt("relay.send_buffer"),
	}, log.Component("http"))

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	background := runBackground(ctx, services, rel, hub, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
	if err := background.Wait(); err != nil {
		log.Errorw("background task stopped with error", "err", err)
	}
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", server.DefaultPort)
	viper.SetDefault("db.path", "app.db")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("auth.token_ttl", 30*24*time.Hour)
	viper.SetDefault("relay.send_buffer", 32)
	viper.SetDefault("archive.compaction_interval", 15*time.Minute)
	viper.SetDefault("archive.cleanup_interval", 24*time.Hour)
	viper.SetDefault("mqtt.topic_prefix", "home-climate")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	log.Infow("opening sqlite", "path", dbPath)
	return db.InitDB(dbPath)
}

// runBackground starts the archive schedule and, when a broker is configured,
// the MQTT bridge. Both stop when ctx is cancelled.
func runBackground(ctx context.Context, services *service.Service, rel *relay.Relay, hub *relay.Hub, log *logger.Logger) *errgroup.Group {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		services.Archiver.Run(gctx)
		return nil
	})

	broker := viper.GetString("mqtt.broker")
	if broker == "" {
		log.Infow("mqtt.broker not set; field nodes connect over websocket only")
		return g
	}
	bridge := mqttbridge.New(mqttbridge.Config{
		Broker:      broker,
		ClientID:    viper.GetString("mqtt.client_id"),
		TopicPrefix: viper.GetString("mqtt.topic_prefix"),
	}, rel, hub, log)
	g.Go(func() error {
		if err := bridge.Run(gctx); err != nil {
			// The HTTP relay keeps working without the bridge.
			log.Errorw("mqtt bridge stopped", "broker", broker, "err", err)
		}
		return nil
	})
	return g
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
