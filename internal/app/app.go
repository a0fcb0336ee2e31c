// Package app wires the bot's components together and owns their
// lifecycle: build in New, run until canceled in Run, then unwind in
// reverse order.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/internal/refresher"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/api"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/config"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/gate"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/keystore"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/metrics"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/queue"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/sheets"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/store"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/telegram"
)

// App encapsulates the bot components and lifecycle.
type App struct {
	eff     config.EffectiveConfigResult
	version string

	ks     *keystore.Store
	gate   *gate.Gate
	q      *queue.Queue
	worker *queue.Worker
	bot    *telegram.Client
	srv    *http.Server

	storeOpened bool
}

// New builds every component and performs the initial key table load
// (live sheet first, local snapshot as fallback). It does not start the
// worker or the HTTP server; call Run for that.
func New(eff config.EffectiveConfigResult, version string) (*App, error) {
	cfg := eff.Config
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	a := &App{eff: eff, version: version}

	var snap keystore.Snapshot
	if eff.DBPath != "" {
		if err := store.Open(eff.DBPath); err != nil {
			return nil, fmt.Errorf("open snapshot db at %s: %w", eff.DBPath, err)
		}
		a.storeOpened = true
		snap = store.SheetSnapshot{}
	}

	src := sheets.NewClient(cfg.Sheet.ID, cfg.Sheet.Tabs, cfg.Sheet.BaseURL)
	a.ks = keystore.New(src, snap)
	a.loadInitialTable()

	bot, err := telegram.Connect(cfg.Bot.Token, cfg.Bot.ChannelID, cfg.Bot.AdminContact)
	if err != nil {
		a.closeStore()
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	a.bot = bot

	a.q = queue.New(cfg.Bot.QueueSize)
	a.gate = gate.New(a.ks, a.q)
	a.worker = queue.NewWorker(a.q, cfg.Bot.RateLimit.Duration(), a.processItem, a.gate.Release)
	metrics.RegisterQueueDepth(func() float64 { return float64(a.q.Len()) })

	rt := api.NewRouter(api.RouterConfig{
		Token:        cfg.Bot.Token,
		AdminIDs:     cfg.Bot.AdminIDs,
		AdminContact: cfg.Bot.AdminContact,
		Gate:         a.gate,
		Keys:         a.ks,
		Bot:          a.bot,
		RPS:          cfg.Security.RateLimit.RPS,
		Burst:        cfg.Security.RateLimit.Burst,
	})
	a.srv = &http.Server{Addr: eff.Addr, Handler: rt.Handler()}

	return a, nil
}

// loadInitialTable tries the live sheet, then the snapshot. Both
// failing leaves the store empty; requests answer "not ready" until a
// reload succeeds.
func (a *App) loadInitialTable() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := a.ks.Load(ctx); err == nil {
		return
	} else {
		logger.Warn("initial_sheet_load_failed", "error", err)
	}
	if err := a.ks.LoadFromSnapshot(); err != nil {
		logger.Warn("snapshot_load_failed", "error", err)
	}
}

// Keys reports the loaded key count and load time for the banner.
func (a *App) Keys() (int, time.Time) {
	return a.ks.Len(), a.ks.LoadedAt()
}

// Run starts the worker, the refresh scheduler and the HTTP server, and
// blocks until ctx is canceled or the server fails. Shutdown is
// graceful: stop accepting updates, stop the worker and join it, close
// the snapshot store.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		a.worker.Run(workerCtx)
		close(workerDone)
	}()

	refreshCancel, err := refresher.Start(ctx, a.eff.Config.Refresh.Enabled, a.eff.Config.Refresh.Cron, a.ks)
	if err != nil {
		stopWorker()
		<-workerDone
		a.closeStore()
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		logger.Error("http_server_failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http_shutdown_error", "error", err)
	}
	refreshCancel()
	stopWorker()
	<-workerDone
	a.closeStore()
	logger.Info("shutdown_complete")
	return runErr
}

func (a *App) closeStore() {
	if !a.storeOpened {
		return
	}
	if err := store.Close(); err != nil {
		logger.Warn("snapshot_db_close_error", "error", err)
	}
	a.storeOpened = false
}

// processItem is the worker handler: re-validate the key against the
// current table (a reload may have removed it since admission), then
// deliver.
func (a *App) processItem(ctx context.Context, it queue.Item) {
	metrics.ItemsProcessed.Inc()
	files := a.ks.Lookup(it.Key)
	if !a.ks.Ready() || files == nil {
		logger.Warn("item_revalidation_failed", "user", it.UserID, "key", keystore.Normalize(it.Key))
		a.bot.Reply(it.ChatID, it.ReplyTo, telegram.ProcessingErrorText)
		return
	}
	a.bot.Deliver(ctx, it.ChatID, it.ReplyTo, it.Key, files)
}
