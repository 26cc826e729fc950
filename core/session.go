package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"github.com/goradd/maps"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/negbuzz/negbuzz/utils"
	"github.com/panjf2000/ants/v2"
)

const defaultPoolSize = 10

// HandlerFunc handles one inbound event. ctx carries the session identifier
// and the message id, replies sent with Emit(ctx, ...) reuse that id.
type HandlerFunc func(ctx context.Context, generic domain.Generic) error

// Session is one side of a websocket connection exchanging Generic envelopes.
type Session struct {
	id            domain.SessionIdentifier
	isClient      bool // which side of the connection is this?
	conn          net.Conn
	handlers      maps.SafeMap[domain.Event, HandlerFunc]
	inPool        *ants.Pool
	outPool       *ants.PoolWithFunc
	writeMu       sync.Mutex
	readDataFunc  func(rw io.ReadWriter) ([]byte, ws.OpCode, error)
	writeDataFunc func(w io.Writer, op ws.OpCode, p []byte) error
	stopOnce      sync.Once
	done          chan struct{}
}

func NewClientSession(conn net.Conn, id domain.SessionIdentifier, poolSize int) (*Session, error) {
	return newSession(conn, id, true, poolSize, wsutil.ReadServerData, wsutil.WriteClientMessage)
}

func NewServerSession(conn net.Conn, id domain.SessionIdentifier, poolSize int) (*Session, error) {
	return newSession(conn, id, false, poolSize, wsutil.ReadClientData, wsutil.WriteServerMessage)
}

func newSession(conn net.Conn, id domain.SessionIdentifier, isClient bool, poolSize int,
	readDataFunc func(rw io.ReadWriter) ([]byte, ws.OpCode, error),
	writeDataFunc func(w io.Writer, op ws.OpCode, p []byte) error) (*Session, error) {
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	s := &Session{
		id:            id,
		isClient:      isClient,
		conn:          conn,
		readDataFunc:  readDataFunc,
		writeDataFunc: writeDataFunc,
		done:          make(chan struct{}),
	}
	// outgoing message pool
	outPool, err := ants.NewPoolWithFunc(poolSize, func(i interface{}) {
		data := i.([]byte)
		if err := s.write(ws.OpText, data); err != nil {
			logger.L().Error("cannot send message", helpers.Error(err), helpers.String("session", s.id.String()))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create outgoing message pool: %w", err)
	}
	// incoming message pool, handlers may block on remote calls
	inPool, err := ants.NewPool(poolSize)
	if err != nil {
		outPool.Release()
		return nil, fmt.Errorf("create incoming message pool: %w", err)
	}
	s.outPool = outPool
	s.inPool = inPool
	return s, nil
}

// write sends one frame; frames from concurrent callers never interleave.
func (s *Session) write(op ws.OpCode, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writeDataFunc(s.conn, op, data)
}

func (s *Session) Id() domain.SessionIdentifier {
	return s.id
}

// Done is closed once the session is stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// On registers the handler of an inbound event, replacing any previous one.
func (s *Session) On(event domain.Event, handler HandlerFunc) {
	s.handlers.Set(event, handler)
}

// Emit sends an event. payload is marshaled into the data field, a nil
// payload sends no data.
func (s *Session) Emit(ctx context.Context, event domain.Event, payload any) error {
	msg := domain.Generic{
		Event: &event,
		MsgId: utils.MsgIdFromContext(ctx),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", event, err)
		}
		msg.Data = data
	}
	if msg.MsgId == "" {
		msg.MsgId = uuid.NewString()
	}
	frame, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", event, err)
	}
	if err := s.outPool.Invoke(frame); err != nil {
		return fmt.Errorf("invoke outPool on %s message: %w", event, err)
	}
	eventsSentCounter.WithLabelValues(event.String()).Inc()
	logger.L().Debug("sent message", helpers.String("event", event.String()),
		helpers.String("msgid", msg.MsgId), helpers.Int("size", len(frame)))
	return nil
}

// Start processes incoming messages until the connection fails or the
// session is stopped. A clean close by the peer returns nil.
func (s *Session) Start(ctx context.Context) error {
	ctx = utils.ContextFromSession(ctx, s.id)
	for {
		data, op, err := s.readDataFunc(s.conn)
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			var closed wsutil.ClosedError
			if errors.As(err, &closed) || errors.Is(err, io.EOF) ||
				errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
				logger.L().Ctx(ctx).Info("connection closed by peer", helpers.String("session", s.id.String()))
				return nil
			}
			return fmt.Errorf("cannot read data: %w", err)
		}
		if op != ws.OpText && op != ws.OpBinary {
			continue
		}
		s.dispatch(ctx, data)
	}
}

func (s *Session) dispatch(ctx context.Context, data []byte) {
	var generic domain.Generic
	if err := json.Unmarshal(data, &generic); err != nil {
		logger.L().Ctx(ctx).Error("cannot unmarshal message", helpers.Error(err), helpers.String("session", s.id.String()))
		return
	}
	if generic.Event == nil {
		logger.L().Ctx(ctx).Error("message without event", helpers.String("session", s.id.String()))
		return
	}
	logger.L().Ctx(ctx).Debug("received message", helpers.String("event", generic.Event.String()),
		helpers.String("msgid", generic.MsgId))
	eventsReceivedCounter.WithLabelValues(generic.Event.String()).Inc()

	handler, ok := s.handlers.Load(*generic.Event)
	if !ok {
		logger.L().Ctx(ctx).Debug("no handler for event", helpers.String("event", generic.Event.String()))
		return
	}
	// store in context
	msgCtx := utils.ContextFromGeneric(ctx, generic)
	if err := s.inPool.Submit(func() {
		if err := handler(msgCtx, generic); err != nil {
			logger.L().Ctx(msgCtx).Error("error handling message", helpers.Error(err),
				helpers.String("event", generic.Event.String()))
		}
	}); err != nil {
		logger.L().Ctx(ctx).Error("cannot schedule handler", helpers.Error(err),
			helpers.String("event", generic.Event.String()))
	}
}

// Stop closes the connection. Clients send a close frame first.
func (s *Session) Stop(_ context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.isClient {
			_ = s.write(ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
		}
		err = s.conn.Close()
		s.inPool.Release()
		s.outPool.Release()
	})
	return err
}
