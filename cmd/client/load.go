package main

import (
	"os"
	"time"

	"github.com/negbuzz/negbuzz/core"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/negbuzz/negbuzz/harness"
	"github.com/spf13/cobra"
)

func newLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load tests",
	}
	cmd.AddCommand(newLoadHTTPCommand(), newLoadSocketCommand())
	return cmd
}

func newLoadHTTPCommand() *cobra.Command {
	var opts harness.HTTPLoadOptions
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Hammer the sentiment /predict endpoint for a fixed duration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Url == "" {
				opts.Url = cfg.Sentiment.Url
			}
			report, err := harness.LoadHTTP(cmd.Context(), opts)
			if err != nil {
				return err
			}
			report.Render(os.Stdout)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Url, "url", "", "predict URL (defaults to sentiment.url)")
	cmd.Flags().StringVar(&opts.Text, "text", harness.DefaultLoadText, "text to classify")
	cmd.Flags().DurationVar(&opts.Duration, "duration", time.Minute, "test duration")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 5, "requests launched every 100ms")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

func newLoadSocketCommand() *cobra.Command {
	var opts harness.SocketLoadOptions
	var fixturePath string
	cmd := &cobra.Command{
		Use:   "socket",
		Short: "Connect many websocket clients that each emit one predict",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Url == "" {
				opts.Url = cfg.Client.PredictUrl
			}
			if fixturePath == "" {
				fixturePath = cfg.Client.FixturePath
			}
			fixture, err := harness.LoadFixture(fixturePath)
			if err != nil {
				return err
			}
			opts.Request = domain.PredictRequest{Data: []domain.ContentItem{harness.PredictItem(fixture)}}
			dialer := core.NewDialer(cfg.Client.ClientName, version, clientPoolSize)
			harness.LoadSocket(cmd.Context(), dialer, opts).Render(os.Stdout)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Url, "url", "", "predict server websocket URL (defaults to client.predictUrl)")
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "JSON file with the content item to send")
	cmd.Flags().IntVar(&opts.Requests, "requests", 100, "total number of clients")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 10, "clients connected at the same time")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "wait for one result")
	return cmd
}
