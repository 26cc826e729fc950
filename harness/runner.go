package harness

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/core"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/negbuzz/negbuzz/utils"
)

// Runner plays scenarios over one websocket connection and prints what the
// server answers.
type Runner struct {
	dialer  *core.Dialer
	out     io.Writer
	outMu   sync.Mutex
	fixture domain.ContentItem
	// Linger is how long to wait for answers after the last step, zero
	// waits until the context ends or the server disconnects.
	Linger time.Duration
	// BackOff controls reconnection attempts, nil retries forever.
	BackOff func() backoff.BackOff
}

func NewRunner(dialer *core.Dialer, fixture domain.ContentItem, out io.Writer) *Runner {
	r := &Runner{
		dialer:  dialer,
		out:     out,
		fixture: fixture,
	}
	dialer.OnConnectError = func(err error, _ time.Duration) {
		r.printf("Connection error: %s\n", err.Error())
	}
	return r
}

func (r *Runner) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *Runner) print(event domain.Event, data []byte) {
	printer, ok := printers[event]
	if !ok {
		return
	}
	r.outMu.Lock()
	defer r.outMu.Unlock()
	printer(r.out, data)
}

// Run connects to serverUrl and plays scenario. Cancelling ctx closes the
// connection and returns nil.
func (r *Runner) Run(ctx context.Context, serverUrl string, scenario Scenario) error {
	b := utils.NewBackOff()
	if r.BackOff != nil {
		b = r.BackOff()
	}
	session, err := r.dialer.Dial(ctx, serverUrl, b)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	r.printf("Connected to server: %s\n", serverUrl)

	for event := range printers {
		event := event
		session.On(event, func(_ context.Context, generic domain.Generic) error {
			r.print(event, generic.Data)
			return nil
		})
	}

	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		if err := session.Start(ctx); err != nil {
			logger.L().Ctx(ctx).Warning("session ended", helpers.Error(err))
		}
		r.printf("Disconnected from server\n")
	}()

	r.printf("\nStarting %s scenario...\n", scenario.Name)
	if r.play(ctx, session, scenario, disconnected) {
		var linger <-chan time.Time
		if r.Linger > 0 {
			timer := time.NewTimer(r.Linger)
			defer timer.Stop()
			linger = timer.C
		}
		select {
		case <-ctx.Done():
		case <-disconnected:
		case <-linger:
		}
	}

	r.printf("\nClosing socket connection...\n")
	if err := session.Stop(context.WithoutCancel(ctx)); err != nil {
		logger.L().Ctx(ctx).Debug("error during close", helpers.Error(err))
	}
	<-disconnected
	return nil
}

// play emits each step at its offset from now. It returns false when the
// run was interrupted.
func (r *Runner) play(ctx context.Context, session *core.Session, scenario Scenario, disconnected <-chan struct{}) bool {
	start := time.Now()
	for i, step := range scenario.Steps {
		timer := time.NewTimer(time.Until(start.Add(step.At)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-disconnected:
			timer.Stop()
			return false
		case <-timer.C:
		}
		r.printf("\n%d. %s...\n", i+1, step.Label)
		event := domain.ValuesToEvent[step.Event]
		payload, err := step.payload(r.fixture)
		if err != nil {
			logger.L().Ctx(ctx).Error("cannot build payload", helpers.Error(err),
				helpers.String("event", step.Event))
			continue
		}
		if err := session.Emit(ctx, event, payload); err != nil {
			logger.L().Ctx(ctx).Error("cannot emit event", helpers.Error(err),
				helpers.String("event", step.Event))
		}
	}
	return true
}
