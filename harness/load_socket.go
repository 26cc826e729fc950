package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/core"
	"github.com/negbuzz/negbuzz/domain"
	"golang.org/x/sync/errgroup"
)

const defaultResultTimeout = 30 * time.Second

type SocketLoadOptions struct {
	Url         string
	Requests    int
	Concurrency int
	// Timeout bounds the wait for one result.
	Timeout time.Duration
	Request domain.PredictRequest
}

type SocketLoadReport struct {
	Duration  time.Duration
	Sent      int
	Received  int
	PerSecond map[int64]int
}

func (r SocketLoadReport) RequestsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Received) / r.Duration.Seconds()
}

func (r SocketLoadReport) RequestsPerMinute() float64 {
	return r.RequestsPerSecond() * 60
}

type socketLoad struct {
	dialer   *core.Dialer
	opts     SocketLoadOptions
	sent     mapset.Set[string]
	received mapset.Set[string]
	mu       sync.Mutex
	perSec   map[int64]int
}

// LoadSocket opens opts.Requests client connections in waves of
// opts.Concurrency. Each client emits predict, waits for its result and
// disconnects. Connection failures are logged and counted as unanswered.
func LoadSocket(ctx context.Context, dialer *core.Dialer, opts SocketLoadOptions) SocketLoadReport {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultResultTimeout
	}
	l := &socketLoad{
		dialer:   dialer,
		opts:     opts,
		sent:     mapset.NewSet[string](),
		received: mapset.NewSet[string](),
		perSec:   map[int64]int{},
	}

	start := time.Now()
	for sent := 0; sent < opts.Requests && ctx.Err() == nil; sent += opts.Concurrency {
		wave := min(opts.Concurrency, opts.Requests-sent)
		var g errgroup.Group
		for i := 0; i < wave; i++ {
			index := sent + i
			g.Go(func() error {
				if err := l.runClient(ctx); err != nil {
					logger.L().Ctx(ctx).Warning("client failed", helpers.Int("client", index), helpers.Error(err))
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	return SocketLoadReport{
		Duration:  time.Since(start),
		Sent:      l.sent.Cardinality(),
		Received:  l.received.Cardinality(),
		PerSecond: l.perSec,
	}
}

func (l *socketLoad) runClient(ctx context.Context) error {
	session, err := l.dialer.Dial(ctx, l.opts.Url, &backoff.StopBackOff{})
	if err != nil {
		return err
	}
	defer func() {
		_ = session.Stop(context.WithoutCancel(ctx))
	}()

	msgId := uuid.NewString()
	done := make(chan struct{})
	session.On(domain.EventResult, func(_ context.Context, generic domain.Generic) error {
		if generic.MsgId == msgId && l.received.Add(msgId) {
			close(done)
		}
		return nil
	})
	go func() {
		_ = session.Start(ctx)
	}()

	l.sent.Add(msgId)
	l.mu.Lock()
	l.perSec[time.Now().Unix()]++
	l.mu.Unlock()
	if err := session.Emit(context.WithValue(ctx, domain.ContextKeyMsgId, msgId), domain.EventPredict, l.opts.Request); err != nil {
		return fmt.Errorf("emit predict: %w", err)
	}

	timer := time.NewTimer(l.opts.Timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-session.Done():
		return errors.New("disconnected before result")
	case <-timer.C:
		return fmt.Errorf("no result after %s", l.opts.Timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Render writes the summary and the per-second breakdown as tables.
func (r SocketLoadReport) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("PERFORMANCE REPORT")
	t.AppendRows([]table.Row{
		{"Duration", fmt.Sprintf("%.2f seconds", r.Duration.Seconds())},
		{"Total requests sent", r.Sent},
		{"Total responses received", r.Received},
		{"Requests/sec", fmt.Sprintf("%.2f", r.RequestsPerSecond())},
		{"Requests/min", fmt.Sprintf("%.2f", r.RequestsPerMinute())},
	})
	t.Render()

	seconds := make([]int64, 0, len(r.PerSecond))
	for sec := range r.PerSecond {
		seconds = append(seconds, sec)
	}
	sort.Slice(seconds, func(i, j int) bool { return seconds[i] < seconds[j] })
	breakdown := table.NewWriter()
	breakdown.SetOutputMirror(w)
	breakdown.SetStyle(table.StyleLight)
	breakdown.SetTitle("Per-second breakdown")
	// keep the title on one line
	breakdown.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 10},
		{Number: 2, WidthMin: 10},
	})
	breakdown.AppendHeader(table.Row{"Second", "Requests"})
	for _, sec := range seconds {
		breakdown.AppendRow(table.Row{time.Unix(sec, 0).Format(time.TimeOnly), r.PerSecond[sec]})
	}
	breakdown.Render()
}
