package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	PredictModeLocal = "local"
	PredictModeQueue = "queue"

	ProviderFireworks = "fireworks"
	ProviderGemini    = "gemini"
)

type Config struct {
	LogLevel  string    `mapstructure:"logLevel"`
	Server    Server    `mapstructure:"server"`
	Cache     Cache     `mapstructure:"cache"`
	LLM       LLM       `mapstructure:"llm"`
	Sentiment Sentiment `mapstructure:"sentiment"`
	Redis     Redis     `mapstructure:"redis"`
	Predict   Predict   `mapstructure:"predict"`
	Client    Client    `mapstructure:"client"`
}

type Server struct {
	Port           int               `mapstructure:"port"`
	PredictPort    int               `mapstructure:"predictPort"`
	RestPort       int               `mapstructure:"restPort"`
	OutPoolSize    int               `mapstructure:"outPoolSize"`
	WorkerPoolSize int               `mapstructure:"workerPoolSize"`
	StatsSchedule  string            `mapstructure:"statsSchedule"`
	Prometheus     *PrometheusConfig `mapstructure:"prometheus"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type Cache struct {
	MaxSize          int           `mapstructure:"maxSize"`
	TTL              time.Duration `mapstructure:"ttl"`
	EvictionInterval time.Duration `mapstructure:"evictionInterval"`
}

type LLM struct {
	Provider          string        `mapstructure:"provider"`
	ApiKey            string        `mapstructure:"apiKey"`
	ApiUrl            string        `mapstructure:"apiUrl"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	Burst             int           `mapstructure:"burst"`
}

type Sentiment struct {
	Url      string        `mapstructure:"url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Attempts int           `mapstructure:"attempts"`
	Wait     time.Duration `mapstructure:"wait"`
}

type Redis struct {
	Address       string        `mapstructure:"address"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	RequestQueue  string        `mapstructure:"requestQueue"`
	ResultQueue   string        `mapstructure:"resultQueue"`
	ResultTimeout time.Duration `mapstructure:"resultTimeout"`
	ResultTTL     time.Duration `mapstructure:"resultTTL"`
}

type Predict struct {
	Mode        string `mapstructure:"mode"`
	Concurrency int    `mapstructure:"concurrency"`
}

type Client struct {
	ServerUrl    string        `mapstructure:"serverUrl"`
	PredictUrl   string        `mapstructure:"predictUrl"`
	ClientName   string        `mapstructure:"clientName"`
	FixturePath  string        `mapstructure:"fixturePath"`
	ScenarioPath string        `mapstructure:"scenarioPath"`
	Linger       time.Duration `mapstructure:"linger"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")

	v.SetDefault("server.port", 9000)
	v.SetDefault("server.predictPort", 5001)
	v.SetDefault("server.restPort", 8000)
	v.SetDefault("server.outPoolSize", 10)
	v.SetDefault("server.workerPoolSize", 50)
	v.SetDefault("server.statsSchedule", "@every 1m")

	v.SetDefault("cache.maxSize", 1000)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.evictionInterval", time.Minute)

	v.SetDefault("llm.provider", ProviderFireworks)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.requestsPerSecond", 10)
	v.SetDefault("llm.burst", 10)

	v.SetDefault("sentiment.url", "http://0.0.0.0:8989/predict")
	v.SetDefault("sentiment.timeout", 5*time.Second)
	v.SetDefault("sentiment.attempts", 3)
	v.SetDefault("sentiment.wait", 2*time.Second)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.requestQueue", "sentiment_request_queue")
	v.SetDefault("redis.resultQueue", "sentiment_result_queue")
	v.SetDefault("redis.resultTimeout", 5*time.Second)
	v.SetDefault("redis.resultTTL", time.Minute)

	v.SetDefault("predict.mode", PredictModeLocal)
	v.SetDefault("predict.concurrency", 16)

	v.SetDefault("client.serverUrl", "ws://0.0.0.0:9000/")
	v.SetDefault("client.predictUrl", "ws://127.0.0.1:5001/")
	v.SetDefault("client.clientName", "negbuzz-client")
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error, defaults cover every setting.
func LoadConfig(path string) (Config, error) {
	// optional .env in the working directory
	_ = godotenv.Load()

	v := viper.New()
	if configPathFromEnv := os.Getenv("CONFIG_PATH"); configPathFromEnv != "" {
		v.AddConfigPath(configPathFromEnv)
	}
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("json")

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, err
	}
	if config.LLM.ApiKey == "" {
		config.LLM.ApiKey = apiKeyFromEnv(config.LLM.Provider)
	}
	return config, nil
}

func apiKeyFromEnv(provider string) string {
	switch provider {
	case ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	default:
		return os.Getenv("FIREWORKS_API_KEY")
	}
}

// ValidateConfig checks the server side settings.
func (c Config) ValidateConfig() error {
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache.maxSize must be positive, got %d", c.Cache.MaxSize)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	switch c.LLM.Provider {
	case ProviderFireworks, ProviderGemini:
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	switch c.Predict.Mode {
	case PredictModeLocal, PredictModeQueue:
	default:
		return fmt.Errorf("unknown predict.mode %q", c.Predict.Mode)
	}
	if c.Predict.Mode == PredictModeQueue && c.Redis.Address == "" {
		return errors.New("redis.address is required in queue mode")
	}
	return nil
}
