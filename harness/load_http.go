package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLoadText   = "cũng tạm tạm"
	httpLoadInterval  = 100 * time.Millisecond
	defaultReqTimeout = 5 * time.Second
)

type HTTPLoadOptions struct {
	Url         string
	Text        string
	Duration    time.Duration
	Concurrency int
	Timeout     time.Duration
}

type HTTPLoadReport struct {
	Duration  time.Duration
	Successes int64
	Failures  int64
}

func (r HTTPLoadReport) Total() int64 {
	return r.Successes + r.Failures
}

// Throughput is successful requests per second of test duration.
func (r HTTPLoadReport) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Successes) / r.Duration.Seconds()
}

// LoadHTTP posts {"text": ...} to opts.Url, launching opts.Concurrency
// requests every 100ms until opts.Duration elapsed, then waits for every
// request in flight.
func LoadHTTP(ctx context.Context, opts HTTPLoadOptions) (HTTPLoadReport, error) {
	if opts.Text == "" {
		opts.Text = DefaultLoadText
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultReqTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	body, err := json.Marshal(map[string]string{"text": opts.Text})
	if err != nil {
		return HTTPLoadReport{}, err
	}
	client := &http.Client{Timeout: opts.Timeout}

	var successes, failures atomic.Int64
	send := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.Url, bytes.NewReader(body))
		if err != nil {
			failures.Add(1)
			return nil
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			logger.L().Debug("request failed", helpers.Error(err))
			failures.Add(1)
			return nil
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			successes.Add(1)
		} else {
			failures.Add(1)
		}
		return nil
	}

	var g errgroup.Group
	start := time.Now()
	ticker := time.NewTicker(httpLoadInterval)
	defer ticker.Stop()
loop:
	for time.Since(start) < opts.Duration {
		for i := 0; i < opts.Concurrency; i++ {
			g.Go(send)
		}
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
	}
	duration := opts.Duration
	if ctx.Err() != nil {
		// interrupted, report the time actually spent
		duration = time.Since(start)
	}
	if err := g.Wait(); err != nil {
		return HTTPLoadReport{}, err
	}
	return HTTPLoadReport{
		Duration:  duration,
		Successes: successes.Load(),
		Failures:  failures.Load(),
	}, nil
}

// Render writes the report as a table.
func (r HTTPLoadReport) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("HTTP load test")
	t.AppendRows([]table.Row{
		{"Test duration", fmt.Sprintf("%.0f seconds", r.Duration.Seconds())},
		{"Successful requests", r.Successes},
		{"Failed requests", r.Failures},
		{"Total requests", r.Total()},
		{"Throughput", fmt.Sprintf("%.2f req/s", r.Throughput())},
	})
	t.Render()
}
