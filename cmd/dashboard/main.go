package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/dashlite/go-admin-client/api"
	"github.com/dashlite/go-admin-client/internal/config"
	"github.com/dashlite/go-admin-client/server"
	"github.com/dashlite/go-admin-client/session"
	"github.com/dashlite/go-admin-client/storage"
	"github.com/dashlite/go-admin-client/transport"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	setupLogging(cfg.Env)
	displayAppname(cfg.AppName)

	store, err := buildStore(cfg)
	if err != nil {
		return errors.Wrap(err, "build token store")
	}

	sessions, err := session.New(store, cfg.API.BaseURL,
		session.WithExpiresInMins(cfg.Session.ExpiresInMins),
		session.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
	)
	if err != nil {
		return errors.Wrap(err, "create session service")
	}

	authedClient := &http.Client{
		Transport: transport.New(sessions),
		Timeout:   cfg.API.Timeout,
	}
	apiClient, err := api.NewClient(cfg.API.BaseURL, authedClient)
	if err != nil {
		return errors.Wrap(err, "create api client")
	}

	httpServer := &http.Server{Addr: cfg.HTTP.Addr(), Handler: server.New(sessions, apiClient).Routes()}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func buildStore(cfg *config.Config) (session.TokenStore, error) {
	if cfg.Session.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		return storage.NewRedisStore(client, ""), nil
	}

	var options []storage.FileStoreOption
	if cfg.Session.Passphrase != "" {
		options = append(options, storage.WithPassphrase(cfg.Session.Passphrase))
	}
	return storage.NewFileStore(cfg.Session.StorePath, options...)
}

func setupLogging(env string) {
	if env == "dev" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) error {
	log.Printf("Server listening on %s\n", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
