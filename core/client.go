package core

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gobwas/ws"
	"github.com/google/uuid"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/negbuzz/negbuzz/utils"
)

// Dialer opens client sessions to a negbuzz server.
type Dialer struct {
	dialer     ws.Dialer
	clientName string
	poolSize   int
	// OnConnectError is called with every failed connection attempt.
	OnConnectError func(err error, retryIn time.Duration)
}

func NewDialer(clientName, version string, poolSize int) *Dialer {
	return &Dialer{
		dialer: ws.Dialer{
			Header: ws.HandshakeHeaderHTTP(map[string][]string{
				ClientNameHeader:    {clientName},
				ClientVersionHeader: {version},
			}),
			NetDial: utils.GetDialer(),
		},
		clientName: clientName,
		poolSize:   poolSize,
	}
}

// Dial connects to serverUrl, retrying according to b.
func (d *Dialer) Dial(ctx context.Context, serverUrl string, b backoff.BackOff) (*Session, error) {
	var conn net.Conn
	var br *bufio.Reader
	if err := backoff.RetryNotify(func() error {
		var err error
		conn, br, _, err = d.dialer.Dial(ctx, serverUrl)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, retryIn time.Duration) {
		logger.L().Ctx(ctx).Warning("connection error", helpers.Error(err),
			helpers.String("retry in", retryIn.String()))
		if d.OnConnectError != nil {
			d.OnConnectError(err, retryIn)
		}
	}); err != nil {
		if d.OnConnectError != nil {
			d.OnConnectError(err, 0)
		}
		return nil, fmt.Errorf("unable to create websocket connection: %w", err)
	}
	// the server speaks first, its frames may arrive with the handshake response
	conn, err := withHandshakeBuffer(conn, br)
	if err != nil {
		return nil, fmt.Errorf("read handshake buffer: %w", err)
	}
	id := domain.SessionIdentifier{
		SessionId:      uuid.NewString(),
		RemoteAddr:     conn.RemoteAddr().String(),
		ClientName:     d.clientName,
		ConnectionTime: time.Now(),
	}
	return NewClientSession(conn, id, d.poolSize)
}

// bufferedConn serves reads from r, which ends with the connection itself.
type bufferedConn struct {
	net.Conn
	r io.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

// withHandshakeBuffer returns conn with the bytes already buffered in br
// placed before anything read from the connection. br is released.
func withHandshakeBuffer(conn net.Conn, br *bufio.Reader) (net.Conn, error) {
	if br == nil {
		return conn, nil
	}
	defer ws.PutReader(br)
	pending := make([]byte, br.Buffered())
	if _, err := io.ReadFull(br, pending); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &bufferedConn{Conn: conn, r: io.MultiReader(bytes.NewReader(pending), conn)}, nil
}
