package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"console"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"storemonitor-logs"`
			FlushInterval  time.Duration `yaml:"flush_interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Storage struct {
		Type string `yaml:"type" default:"clickhouse"` // clickhouse | memory
	} `yaml:"storage"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"store_monitoring"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		MaxOpenConns     int           `yaml:"max_open_conns" default:"10"`
		MaxIdleConns     int           `yaml:"max_idle_conns" default:"5"`
	} `yaml:"clickhouse"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
		Prefix   string `yaml:"prefix" default:"storemonitor"`
	} `yaml:"redis"`
	Cache struct {
		Type       string        `yaml:"type" default:"memory"` // none | memory | redis | layered
		ProfileTTL time.Duration `yaml:"profile_ttl" default:"10m"`
		MaxEntries int           `yaml:"max_entries" default:"20000"`
	} `yaml:"cache"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Events struct {
			Enabled bool   `yaml:"enabled"`
			Topic   string `yaml:"topic" default:"report-events"`
		} `yaml:"events"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			Topic      string        `yaml:"topic" default:"store-status"`
			GroupID    string        `yaml:"group_id" default:"storemonitor"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"100"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"10000"`
			MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
			// live polls are grouped before they hit storage
			FlushSize     int           `yaml:"flush_size" default:"500"`
			FlushInterval time.Duration `yaml:"flush_interval" default:"1s"`
			PendingMax    int           `yaml:"pending_max" default:"10000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Report struct {
		BatchSize       int           `yaml:"batch_size" default:"50"`
		Workers         int           `yaml:"workers" default:"8"`
		OutputDir       string        `yaml:"output_dir" default:"reports"`
		DefaultTimezone string        `yaml:"default_timezone" default:"America/Chicago"`
		NowSource       string        `yaml:"now_source" default:"latest_observation"` // latest_observation | wall_clock
		Registry        string        `yaml:"registry" default:"memory"`               // memory | redis
		RegistryTTL     time.Duration `yaml:"registry_ttl" default:"168h"`
		Dispatch        string        `yaml:"dispatch" default:"local"` // local | redis
		QueueWorkers    int           `yaml:"queue_workers" default:"2"`
	} `yaml:"report"`
	Ingest struct {
		DataDir   string `yaml:"data_dir" default:"data"`
		BatchSize int    `yaml:"batch_size" default:"1000"`
	} `yaml:"ingest"`
	RateLimit struct {
		TriggerCapacity  float64 `yaml:"trigger_capacity"`
		TriggerPerSecond float64 `yaml:"trigger_per_second" default:"1"`
	} `yaml:"ratelimit"`
}

// Default returns a configuration populated only from struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the struct defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error: defaults plus environment are enough to boot.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		c, err = Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		c = Default()
	}

	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			if p, perr := strconv.Atoi(port); perr == nil {
				c.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Ingest.DataDir = v
	}
	if v := os.Getenv("REPORTS_DIR"); v != "" {
		c.Report.OutputDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Storage.Type {
	case "clickhouse", "memory":
	default:
		return fmt.Errorf("storage.type must be 'clickhouse' or 'memory', got '%s'", c.Storage.Type)
	}
	switch c.Cache.Type {
	case "none", "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.type must be one of none, memory, redis, layered, got '%s'", c.Cache.Type)
	}
	switch c.Report.Registry {
	case "memory", "redis":
	default:
		return fmt.Errorf("report.registry must be 'memory' or 'redis', got '%s'", c.Report.Registry)
	}
	switch c.Report.Dispatch {
	case "local":
	case "redis":
		if c.Report.Registry != "redis" {
			return fmt.Errorf("report.dispatch 'redis' requires report.registry 'redis'")
		}
	default:
		return fmt.Errorf("report.dispatch must be 'local' or 'redis', got '%s'", c.Report.Dispatch)
	}
	switch c.Report.NowSource {
	case "latest_observation", "wall_clock":
	default:
		return fmt.Errorf("report.now_source must be 'latest_observation' or 'wall_clock', got '%s'", c.Report.NowSource)
	}
	if c.Report.BatchSize <= 0 {
		return fmt.Errorf("report.batch_size must be positive")
	}
	if c.Report.Workers <= 0 {
		return fmt.Errorf("report.workers must be positive")
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be positive")
	}
	if _, err := time.LoadLocation(c.Report.DefaultTimezone); err != nil {
		return fmt.Errorf("report.default_timezone: %w", err)
	}
	needsKafka := c.Kafka.Events.Enabled || c.Kafka.Consumer.Enabled || c.Log.Collector.Enabled
	if needsKafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka features are enabled")
	}
	return nil
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// NeedsRedis reports whether any enabled component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.Report.Registry == "redis" || c.Report.Dispatch == "redis" ||
		c.Cache.Type == "redis" || c.Cache.Type == "layered"
}
