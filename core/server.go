package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gobwas/ws"
	"github.com/google/uuid"
	"github.com/goradd/maps"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/adapters"
	"github.com/negbuzz/negbuzz/domain"
	"go.uber.org/multierr"
)

// Server accepts websocket connections and answers analysis events with the
// adapter.
type Server struct {
	adapter  adapters.Adapter
	poolSize int
	sessions maps.SafeMap[string, *Session]
}

func NewServer(adapter adapters.Adapter, poolSize int) *Server {
	return &Server{
		adapter:  adapter,
		poolSize: poolSize,
	}
}

func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		logger.L().Error("unable to upgrade connection", helpers.Error(err))
		return
	}
	id := domain.SessionIdentifier{
		SessionId:      uuid.NewString(),
		RemoteAddr:     r.RemoteAddr,
		ClientName:     r.Header.Get(ClientNameHeader),
		ClientVersion:  r.Header.Get(ClientVersionHeader),
		ConnectionTime: time.Now(),
	}
	// the request context ends with the handler
	go srv.Serve(context.WithoutCancel(r.Context()), conn, id)
}

// Serve runs a session on an accepted connection until it closes.
func (srv *Server) Serve(ctx context.Context, conn net.Conn, id domain.SessionIdentifier) {
	session, err := NewServerSession(conn, id, srv.poolSize)
	if err != nil {
		logger.L().Ctx(ctx).Error("error during creating session", helpers.Error(err),
			helpers.String("session", id.String()))
		_ = conn.Close()
		return
	}
	srv.registerHandlers(session)
	srv.sessions.Set(id.SessionId, session)
	connectedSessionsGauge.Inc()
	logger.L().Ctx(ctx).Info("client connected", helpers.String("session", id.String()),
		helpers.String("version", id.ClientVersion))
	defer func() {
		srv.sessions.Delete(id.SessionId)
		connectedSessionsGauge.Dec()
		if err := session.Stop(ctx); err != nil {
			logger.L().Ctx(ctx).Debug("error during session stop", helpers.Error(err))
		}
		logger.L().Ctx(ctx).Info("client disconnected", helpers.String("session", id.String()),
			helpers.String("duration", time.Since(id.ConnectionTime).String()))
	}()

	if err := session.Emit(ctx, domain.EventConnectionStatus, domain.ConnectionStatus{
		Status: domain.StatusConnected,
		Sid:    id.SessionId,
	}); err != nil {
		logger.L().Ctx(ctx).Error("cannot send connection status", helpers.Error(err))
		return
	}
	if err := session.Start(ctx); err != nil {
		logger.L().Ctx(ctx).Error("error during session, closing", helpers.Error(err),
			helpers.String("session", id.String()))
	}
}

// Sessions returns the number of connected sessions.
func (srv *Server) Sessions() int {
	return srv.sessions.Len()
}

// Shutdown closes every connected session.
func (srv *Server) Shutdown(ctx context.Context) error {
	var err error
	srv.sessions.Range(func(_ string, session *Session) bool {
		err = multierr.Append(err, session.Stop(ctx))
		return true
	})
	return err
}

func (srv *Server) registerHandlers(s *Session) {
	s.On(domain.EventAnalyzeNegative, srv.handleAnalyzeNegative(s))
	s.On(domain.EventBatchAnalyzeNegative, srv.handleBatchAnalyzeNegative(s))
	s.On(domain.EventGetCacheStats, srv.handleGetCacheStats(s))
	s.On(domain.EventClearCache, srv.handleClearCache(s))
	s.On(domain.EventPredict, srv.handlePredict(s))
}

// emitError reports a failed event to the client.
func emitError(ctx context.Context, s *Session, event domain.Event, cause error) error {
	if err := s.Emit(ctx, domain.EventError, domain.ErrorMessage{
		Event:   event.String(),
		Message: cause.Error(),
	}); err != nil {
		return fmt.Errorf("send error: %w", err)
	}
	return cause
}

// decodeData unmarshals the payload of generic into v.
func decodeData(generic domain.Generic, v any) error {
	if !generic.HasData() {
		return errors.New("missing payload")
	}
	return json.Unmarshal(generic.Data, v)
}

func (srv *Server) handleAnalyzeNegative(s *Session) HandlerFunc {
	return func(ctx context.Context, generic domain.Generic) error {
		var item domain.ContentItem
		if err := decodeData(generic, &item); err != nil {
			return emitError(ctx, s, domain.EventAnalyzeNegative, fmt.Errorf("invalid item: %w", err))
		}
		result, err := srv.adapter.AnalyzeNegative(ctx, item)
		if err != nil {
			return emitError(ctx, s, domain.EventAnalyzeNegative, err)
		}
		logger.L().Ctx(ctx).Debug("analyzed item", helpers.String("id", result.Id),
			helpers.Int("logLevel", int(result.LogLevel)),
			helpers.Interface("cached", result.Cached))
		return s.Emit(ctx, domain.EventAnalyzeResult, result)
	}
}

func (srv *Server) handleBatchAnalyzeNegative(s *Session) HandlerFunc {
	return func(ctx context.Context, generic domain.Generic) error {
		var items []domain.ContentItem
		if err := decodeData(generic, &items); err != nil {
			return emitError(ctx, s, domain.EventBatchAnalyzeNegative, fmt.Errorf("invalid items: %w", err))
		}
		result, err := srv.adapter.BatchAnalyzeNegative(ctx, items)
		if err != nil {
			return emitError(ctx, s, domain.EventBatchAnalyzeNegative, err)
		}
		return s.Emit(ctx, domain.EventBatchAnalyzeResult, result)
	}
}

func (srv *Server) handleGetCacheStats(s *Session) HandlerFunc {
	return func(ctx context.Context, _ domain.Generic) error {
		return s.Emit(ctx, domain.EventCacheStats, srv.adapter.CacheStats(ctx))
	}
}

func (srv *Server) handleClearCache(s *Session) HandlerFunc {
	return func(ctx context.Context, _ domain.Generic) error {
		if err := srv.adapter.ClearCache(ctx); err != nil {
			return emitError(ctx, s, domain.EventClearCache, err)
		}
		return s.Emit(ctx, domain.EventCacheCleared, domain.CacheCleared{Message: domain.CacheClearedMessage})
	}
}

func (srv *Server) handlePredict(s *Session) HandlerFunc {
	return func(ctx context.Context, generic domain.Generic) error {
		var req domain.PredictRequest
		if err := decodeData(generic, &req); err != nil {
			return emitError(ctx, s, domain.EventPredict, fmt.Errorf("invalid request: %w", err))
		}
		result, err := srv.adapter.Predict(ctx, req.Data)
		if err != nil {
			return emitError(ctx, s, domain.EventPredict, err)
		}
		return s.Emit(ctx, domain.EventResult, result)
	}
}
