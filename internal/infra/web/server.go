package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-dialog-bot/internal/bot"
	"telegram-dialog-bot/internal/domain/model"
	"telegram-dialog-bot/internal/domain/ports/repository"
	"telegram-dialog-bot/internal/infra/logging"
	"telegram-dialog-bot/internal/infra/metrics"
)

// secretHeader is the shared-secret header the platform echoes back on every
// webhook delivery.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler processes one raw webhook payload.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, raw []byte) error
}

// Server is the inbound webhook boundary. Auth failures are rejected with 403;
// everything past a successful auth is acknowledged with 200 so the platform
// never retries, processing errors are swallowed here and preserved in the
// update log.
type Server struct {
	handler UpdateHandler
	path    string
	secret  string
	updates repository.UpdateLogRepository // nil disables the durable log
	log     *zerolog.Logger
}

func NewServer(handler UpdateHandler, path, secret string, updates repository.UpdateLogRepository, logger *zerolog.Logger) *Server {
	webLog := logger.With().Str("component", "Webhook").Logger()
	return &Server{
		handler: handler,
		path:    path,
		secret:  secret,
		updates: updates,
		log:     &webLog,
	}
}

// Router builds the HTTP routing table: the webhook endpoint plus health and
// metrics mounts.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Post(s.path, s.handleWebhook)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.validSecret(r.Header.Get(secretHeader)) {
		writeStatus(w, http.StatusForbidden, "error", "Invalid token.")
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeStatus(w, http.StatusOK, "error", "Message received.")
		return
	}

	ctx := logging.WithTraceID(r.Context(), uuid.NewString())
	if err := s.process(ctx, raw); err != nil {
		metrics.IncDispatchError()
		logging.With(ctx, s.log).Error().Err(err).RawJSON("update", jsonOrNull(raw)).Msg("update processing failed")
		s.recordUpdate(ctx, raw, err)
		writeStatus(w, http.StatusOK, "error", "Message received.")
		return
	}

	s.recordUpdate(ctx, raw, nil)
	writeStatus(w, http.StatusOK, "ok", "Message received.")
}

// process runs the dispatcher, converting panics from user step logic into
// errors so one failing command never corrupts the webhook contract.
func (s *Server) process(ctx context.Context, raw []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in command logic: %v", rec)
		}
	}()
	return s.handler.HandleUpdate(ctx, raw)
}

func (s *Server) validSecret(got string) bool {
	if s.secret == "" {
		return true
	}
	return got == s.secret
}

func (s *Server) recordUpdate(ctx context.Context, raw []byte, procErr error) {
	if s.updates == nil {
		return
	}
	rec := &model.UpdateRecord{Payload: raw}
	if upd, err := bot.ParseUpdate(raw); err == nil {
		rec.ChatID = upd.ChatID
	}
	if procErr != nil {
		rec.Error = procErr.Error()
	}
	if err := s.updates.Record(ctx, rec); err != nil {
		s.log.Error().Err(err).Msg("update log write failed")
	}
}

func writeStatus(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status, "message": message})
}

// jsonOrNull keeps structured logging happy when the raw body is not JSON.
func jsonOrNull(raw []byte) []byte {
	if json.Valid(raw) {
		return raw
	}
	return []byte("null")
}
