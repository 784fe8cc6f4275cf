// Command rolldown-trainer serves the rolldown practice engine: a REST API
// for session commands and scripted simulations, plus a websocket drag
// protocol for the browser UI.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/MJE43/rolldown-trainer-go/internal/api"
	"github.com/MJE43/rolldown-trainer-go/internal/gamedata"
	"github.com/MJE43/rolldown-trainer-go/internal/live"
	"github.com/MJE43/rolldown-trainer-go/internal/store"
)

func main() {
	var (
		addr     = flag.String("addr", "127.0.0.1:8077", "listen address")
		dbPath   = flag.String("db", "rolldown.db", "sqlite database path (empty disables persistence)")
		dataURL  = flag.String("data-url", "", "base URL of the set-data service (empty uses cache and embedded defaults)")
		set      = flag.String("set", gamedata.DefaultNamespace(), "default set namespace to load")
		offline  = flag.Bool("offline", false, "never fetch set data remotely")
		logLevel = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", *logLevel).Warn("unknown log level, using info")
	}

	if err := run(log, *addr, *dbPath, *dataURL, *set, *offline); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger, addr, dbPath, dataURL, setNS string, offline bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db store.DB
	if dbPath != "" {
		sqlite, err := store.NewSQLiteDB(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer sqlite.Close()
		if err := sqlite.Migrate(); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		db = sqlite
		log.WithField("path", dbPath).Info("database ready")
	} else {
		log.Warn("persistence disabled, runs will not be saved")
	}

	var client *gamedata.Client
	if dataURL != "" {
		client = gamedata.NewClient(gamedata.ClientConfig{BaseURL: dataURL})
	}
	loader := gamedata.NewLoader(client, db, log)
	loader.Offline = offline

	setData, err := loader.Load(ctx, setNS)
	if err != nil {
		return fmt.Errorf("loading set %q: %w", setNS, err)
	}
	sets := map[string]*gamedata.SetData{setData.Namespace: setData}

	apiServer := api.NewServer(db, sets, setData.Namespace, log)
	hub := live.NewHub(apiServer.SessionManager(), log)

	root := chi.NewRouter()
	root.Mount("/live", hub.Routes())
	root.Mount("/", apiServer.Routes())

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     root,
		ReadTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    addr,
			"set":     setData.Namespace,
			"version": api.EngineVersion,
		}).Info("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
