// Package api serves the bot's inbound HTTP surface: the Telegram
// webhook plus health and metrics endpoints.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/gate"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/keystore"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/metrics"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/queue"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/telegram"
)

const maxUpdateBody = 1 << 20

// Replier sends a text reply into a chat; *telegram.Client implements it.
type Replier interface {
	Reply(chatID int64, replyTo int, text string)
}

// RouterConfig wires the webhook router's collaborators.
type RouterConfig struct {
	Token        string
	AdminIDs     []int64
	AdminContact string
	Gate         *gate.Gate
	Keys         *keystore.Store
	Bot          Replier
	RPS          float64
	Burst        int
}

// Router routes Telegram updates to the admission gate and admin
// commands.
type Router struct {
	token   string
	admins  map[int64]struct{}
	contact string
	gate    *gate.Gate
	keys    *keystore.Store
	bot     Replier
	lim     *limiterPool
}

// NewRouter builds the webhook router.
func NewRouter(cfg RouterConfig) *Router {
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	return &Router{
		token:   cfg.Token,
		admins:  admins,
		contact: cfg.AdminContact,
		gate:    cfg.Gate,
		keys:    cfg.Keys,
		bot:     cfg.Bot,
		lim:     newLimiterPool(cfg.RPS, cfg.Burst),
	}
}

// Handler returns the full HTTP handler: webhook, health, readiness and
// metrics.
func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/webhook/{token}", rt.webhookHandler).Methods(http.MethodPost)
	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	r.HandleFunc("/readyz", rt.readyzHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (rt *Router) readyzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !rt.keys.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	out := struct {
		Status string `json:"status"`
		Keys   int    `json:"keys"`
		Loaded string `json:"loaded"`
	}{Status: "ok", Keys: rt.keys.Len(), Loaded: humanize.Time(rt.keys.LoadedAt())}
	_ = json.NewEncoder(w).Encode(out)
}

// ack always reports success to Telegram; anything else provokes
// upstream redelivery storms.
func ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func (rt *Router) webhookHandler(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("webhook_panic", "panic", rec)
			ack(w)
		}
	}()

	if !rt.lim.Allow(clientIP(r)) {
		// over-limit updates are dropped, still acknowledged; Telegram
		// never redelivers an acked update, so count the loss
		metrics.UpdatesDropped.Inc()
		logger.Warn("webhook_rate_limited", "remote", r.RemoteAddr)
		ack(w)
		return
	}

	if mux.Vars(r)["token"] != rt.token {
		logger.Warn("webhook_bad_token", "remote", r.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
		return
	}

	metrics.UpdatesReceived.Inc()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBody))
	if err != nil {
		logger.Warn("webhook_body_read_failed", "error", err)
		ack(w)
		return
	}

	// empty body or a body without update_id is a keep-alive ping
	if len(body) == 0 || !hasUpdateID(body) {
		ack(w)
		return
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		logger.Warn("webhook_bad_update", "error", err)
		ack(w)
		return
	}

	rt.handleUpdate(r, &update)
	ack(w)
}

func hasUpdateID(body []byte) bool {
	var probe struct {
		UpdateID *int64 `json:"update_id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return probe.UpdateID != nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rt *Router) handleUpdate(r *http.Request, update *tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			rt.bot.Reply(chatID, 0, telegram.GreetingText(rt.contact))
		case "reload":
			rt.handleReload(r, msg)
		default:
			rt.bot.Reply(chatID, 0, telegram.GreetingText(rt.contact))
		}
		return
	}

	key := strings.TrimSpace(msg.Text)
	if key == "" {
		return
	}
	rt.handleKeyRequest(msg.From.ID, key, chatID, msg.MessageID)
}

func (rt *Router) handleKeyRequest(userID int64, key string, chatID int64, replyTo int) {
	err := rt.gate.Admit(userID, key, chatID, replyTo)
	switch {
	case err == nil:
		metrics.Admissions.WithLabelValues("accepted").Inc()
		logger.Info("request_admitted", "user", userID, "key", keystore.Normalize(key))
		rt.bot.Reply(chatID, replyTo, telegram.QueuedText)
	case errors.Is(err, gate.ErrDuplicateInFlight):
		metrics.Admissions.WithLabelValues("duplicate").Inc()
		rt.bot.Reply(chatID, replyTo, telegram.DuplicateText)
	case errors.Is(err, gate.ErrStoreNotReady):
		metrics.Admissions.WithLabelValues("not_ready").Inc()
		rt.bot.Reply(chatID, replyTo, telegram.StoreNotReadyText)
	case errors.Is(err, gate.ErrUnknownKey):
		metrics.Admissions.WithLabelValues("unknown_key").Inc()
		rt.bot.Reply(chatID, replyTo, telegram.UnknownKeyText)
	case errors.Is(err, queue.ErrQueueFull):
		metrics.Admissions.WithLabelValues("queue_full").Inc()
		logger.Warn("queue_full", "user", userID)
		rt.bot.Reply(chatID, replyTo, telegram.BusyText)
	default:
		metrics.Admissions.WithLabelValues("error").Inc()
		logger.Error("admit_failed", "user", userID, "error", err)
		rt.bot.Reply(chatID, replyTo, telegram.ProcessingErrorText)
	}
}

func (rt *Router) handleReload(r *http.Request, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if _, ok := rt.admins[msg.From.ID]; !ok {
		logger.Warn("reload_unauthorized", "user", msg.From.ID)
		rt.bot.Reply(chatID, 0, telegram.NotAuthorizedText)
		return
	}
	if err := rt.keys.Reload(r.Context(), true); err != nil {
		metrics.Reloads.WithLabelValues("failed").Inc()
		logger.Error("reload_failed", "user", msg.From.ID, "error", err)
		rt.bot.Reply(chatID, 0, telegram.ReloadFailedText)
		return
	}
	metrics.Reloads.WithLabelValues("ok").Inc()
	rt.bot.Reply(chatID, 0, telegram.ReloadOKText(rt.keys.Len()))
}
