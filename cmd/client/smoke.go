package main

import (
	"os"
	"time"

	"github.com/negbuzz/negbuzz/core"
	"github.com/negbuzz/negbuzz/harness"
	"github.com/spf13/cobra"
)

const clientPoolSize = 5

var version = "dev"

type scenarioFlags struct {
	url          string
	fixturePath  string
	scenarioPath string
	linger       time.Duration
}

func (f *scenarioFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "url", "", "server websocket URL (defaults to the configured one)")
	cmd.Flags().StringVar(&f.fixturePath, "fixture", "", "JSON file with the content item to send")
	cmd.Flags().StringVar(&f.scenarioPath, "scenario", "", "YAML scenario file")
	cmd.Flags().DurationVar(&f.linger, "linger", -1, "wait after the last step, 0 waits for an interrupt")
}

// run plays the scenario, flags win over configuration.
func (f *scenarioFlags) run(cmd *cobra.Command, defaultUrl string, fallback harness.Scenario) error {
	url := f.url
	if url == "" {
		url = defaultUrl
	}
	fixturePath := f.fixturePath
	if fixturePath == "" {
		fixturePath = cfg.Client.FixturePath
	}
	scenarioPath := f.scenarioPath
	if scenarioPath == "" {
		scenarioPath = cfg.Client.ScenarioPath
	}
	fixture, err := harness.LoadFixture(fixturePath)
	if err != nil {
		return err
	}
	scenario, err := harness.LoadScenario(scenarioPath, fallback)
	if err != nil {
		return err
	}

	runner := harness.NewRunner(core.NewDialer(cfg.Client.ClientName, version, clientPoolSize), fixture, os.Stdout)
	runner.Linger = cfg.Client.Linger
	if f.linger >= 0 {
		runner.Linger = f.linger
	}
	return runner.Run(cmd.Context(), url, scenario)
}

func newSmokeCommand() *cobra.Command {
	var flags scenarioFlags
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run the analysis smoke test over one websocket connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.run(cmd, cfg.Client.ServerUrl, harness.SmokeScenario())
		},
	}
	flags.register(cmd)
	return cmd
}

func newPredictCommand() *cobra.Command {
	var flags scenarioFlags
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Send the fixture to the sentiment pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.run(cmd, cfg.Client.PredictUrl, harness.PredictScenario())
		},
	}
	flags.register(cmd)
	return cmd
}
