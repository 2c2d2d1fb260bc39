package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashvale/gatewarden/internal/chatbot"
	"github.com/ashvale/gatewarden/internal/config"
	"github.com/ashvale/gatewarden/internal/db"
	"github.com/ashvale/gatewarden/internal/gatewarden/service"
	"github.com/ashvale/gatewarden/internal/gatewarden/store"
	"github.com/ashvale/gatewarden/internal/gatewarden/store/memory"
	sqlitestore "github.com/ashvale/gatewarden/internal/gatewarden/store/sqlite"
	"github.com/ashvale/gatewarden/internal/gatewarden/types"
	"github.com/ashvale/gatewarden/internal/httpapi"
	"github.com/ashvale/gatewarden/internal/logging"
	"github.com/ashvale/gatewarden/internal/metrics"
	"github.com/ashvale/gatewarden/internal/roblox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := roblox.New(cfg.RobloxBaseURL, cfg.ResolveTimeout)
	policy := service.NewAdminPolicy(cfg.AdminRoleIDs)

	var wlStore store.WhitelistStore
	switch cfg.Store {
	case config.StoreSQLite:
		conn, err := db.Open(ctx, cfg.DBPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		writer := db.NewWriter(conn)
		defer func() {
			writer.Close()
			_ = conn.Close()
		}()

		st := sqlitestore.NewWhitelistStore(conn, writer)
		if err := seedWhitelist(ctx, st, cfg.SeedUserIDs); err != nil {
			log.Fatalf("seed whitelist: %v", err)
		}
		wlStore = st
	default:
		wlStore = memory.New(cfg.SeedUserIDs)
	}

	gateway := service.NewGateway(wlStore, resolver, policy, m)
	if all, err := gateway.List(ctx); err == nil {
		m.SetWhitelistSize(len(all))
	}

	// Chat front-end. The console binding stands in for a platform
	// runtime: it is the one approver and receives DM fan-out on stdout.
	operator := chatbot.Member{ID: "console", Name: "console-operator", IsAdmin: true}
	session := chatbot.NewConsoleSession(os.Stdout, operator)
	directory := chatbot.NewDirectory(session, policy)

	notifier := service.NewNotifier(directory, directory,
		cfg.CommandPrefix, cfg.NotifyWorkers, logger, m)
	workflow := service.NewWorkflow(resolver, wlStore, notifier, m)

	router := chatbot.NewRouter(chatbot.RouterDeps{
		Prefix:    cfg.CommandPrefix,
		Gateway:   gateway,
		Workflow:  workflow,
		PublicURL: cfg.PublicURL,
		Logger:    logger,
	})

	if cfg.Env == "dev" {
		go func() {
			if err := chatbot.RunConsole(ctx, router, session, os.Stdin); err != nil {
				logger.Warn("console session ended", "error", err)
			}
		}()
	}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    logger,
		Addr:      cfg.HTTPAddr,
		Gateway:   gateway,
		Resolver:  resolver,
		Metrics:   m,
		PublicURL: cfg.PublicURL,
	})

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "store", cfg.Store)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// seedWhitelist pre-admits the configured ids, skipping ones already
// present so restarts keep prior grants intact.
func seedWhitelist(ctx context.Context, st store.WhitelistStore, ids []int64) error {
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		exists, err := st.Exists(ctx, id)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := st.Put(ctx, types.WhitelistEntry{
			UserID:   id,
			Username: types.PlaceholderName(id),
			AddedBy:  types.ActorAPI,
			Source:   types.SourceAPI,
		}); err != nil {
			return err
		}
	}
	return nil
}
