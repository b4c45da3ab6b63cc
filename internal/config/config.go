package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/mnemo-ai/mnemo/internal/errors"
)

// Config is the full configuration of the retrieval core. Tunables the source
// material left open (thresholds, decay, ranking weights, share visibility)
// are configuration here rather than hard-coded assumptions.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type VectorConfig struct {
	// Engine selects the vector backend: "qdrant" or "milvus".
	Engine     string `mapstructure:"engine"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
	UseTLS     bool   `mapstructure:"use_tls"`
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	EchoTTL  time.Duration `mapstructure:"echo_ttl"`
}

type EmbeddingConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RetrievalConfig bounds the three-stage pipeline.
type RetrievalConfig struct {
	Stage1Timeout   time.Duration `mapstructure:"stage1_timeout"`
	Stage2Timeout   time.Duration `mapstructure:"stage2_timeout"`
	Stage3Timeout   time.Duration `mapstructure:"stage3_timeout"`
	OverallDeadline time.Duration `mapstructure:"overall_deadline"`

	TopKPerPhrase       int     `mapstructure:"top_k_per_phrase"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	CandidateCap        int     `mapstructure:"candidate_cap"`
	TraversalCap        int     `mapstructure:"traversal_cap"`
	MaxHops             int     `mapstructure:"max_hops"`
	DecayFactor         float64 `mapstructure:"decay_factor"`

	Stage1Concurrency int `mapstructure:"stage1_concurrency"`
	Stage2Concurrency int `mapstructure:"stage2_concurrency"`

	TraversalWeight  float64       `mapstructure:"traversal_weight"`
	ImportanceWeight float64       `mapstructure:"importance_weight"`
	RecencyWeight    float64       `mapstructure:"recency_weight"`
	RecencyHalfLife  time.Duration `mapstructure:"recency_half_life"`

	PayloadTokenBudget int  `mapstructure:"payload_token_budget"`
	ExcerptMaxRunes    int  `mapstructure:"excerpt_max_runes"`
	ShareVisibility    bool `mapstructure:"share_visibility"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 14)

	v.SetDefault("vector.engine", "qdrant")
	v.SetDefault("vector.host", "localhost")
	v.SetDefault("vector.port", 6334)
	v.SetDefault("vector.collection", "mnemo_entities")

	v.SetDefault("graph.uri", "bolt://localhost:7687")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.echo_ttl", 10*time.Minute)

	v.SetDefault("embedding.model", "text-embedding-3-small")

	v.SetDefault("retrieval.stage1_timeout", 800*time.Millisecond)
	v.SetDefault("retrieval.stage2_timeout", 900*time.Millisecond)
	v.SetDefault("retrieval.stage3_timeout", 600*time.Millisecond)
	v.SetDefault("retrieval.overall_deadline", 2500*time.Millisecond)
	v.SetDefault("retrieval.top_k_per_phrase", 8)
	v.SetDefault("retrieval.similarity_threshold", 0.0)
	v.SetDefault("retrieval.candidate_cap", 30)
	v.SetDefault("retrieval.traversal_cap", 50)
	v.SetDefault("retrieval.max_hops", 2)
	v.SetDefault("retrieval.decay_factor", 0.7)
	v.SetDefault("retrieval.stage1_concurrency", 5)
	v.SetDefault("retrieval.stage2_concurrency", 8)
	v.SetDefault("retrieval.traversal_weight", 0.5)
	v.SetDefault("retrieval.importance_weight", 0.3)
	v.SetDefault("retrieval.recency_weight", 0.2)
	v.SetDefault("retrieval.recency_half_life", 30*24*time.Hour)
	v.SetDefault("retrieval.payload_token_budget", 2000)
	v.SetDefault("retrieval.excerpt_max_runes", 480)
	v.SetDefault("retrieval.share_visibility", true)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "mnemo")
	v.SetDefault("tracing.sample_rate", 1.0)
}

// Load reads configuration from the given yaml file (optional) and MNEMO_*
// environment variables, applies defaults, and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MNEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &apperrors.ConfigError{Problems: []string{"read config file: " + err.Error()}}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &apperrors.ConfigError{Problems: []string{"unmarshal config: " + err.Error()}}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate collects every violation rather than stopping at the first, so a
// bad deployment fails with the full list.
func (c *Config) Validate() error {
	var problems []string

	switch c.Vector.Engine {
	case "qdrant", "milvus":
	default:
		problems = append(problems, "vector.engine must be \"qdrant\" or \"milvus\"")
	}

	r := c.Retrieval
	if r.MaxHops < 1 || r.MaxHops > 3 {
		problems = append(problems, "retrieval.max_hops must be in [1,3]")
	}
	if r.DecayFactor <= 0 || r.DecayFactor >= 1 {
		problems = append(problems, "retrieval.decay_factor must be in (0,1)")
	}
	if r.TopKPerPhrase < 1 {
		problems = append(problems, "retrieval.top_k_per_phrase must be positive")
	}
	if r.CandidateCap < 1 {
		problems = append(problems, "retrieval.candidate_cap must be positive")
	}
	if r.TraversalCap < r.CandidateCap {
		problems = append(problems, "retrieval.traversal_cap must be >= retrieval.candidate_cap")
	}
	if r.Stage1Concurrency < 1 || r.Stage2Concurrency < 1 {
		problems = append(problems, "retrieval concurrency limits must be positive")
	}
	if r.OverallDeadline <= 0 {
		problems = append(problems, "retrieval.overall_deadline must be positive")
	}
	if r.Stage1Timeout <= 0 || r.Stage2Timeout <= 0 || r.Stage3Timeout <= 0 {
		problems = append(problems, "retrieval stage timeouts must be positive")
	}
	if r.PayloadTokenBudget < 1 {
		problems = append(problems, "retrieval.payload_token_budget must be positive")
	}
	sum := r.TraversalWeight + r.ImportanceWeight + r.RecencyWeight
	if sum < 0.999 || sum > 1.001 {
		problems = append(problems, "retrieval ranking weights must sum to 1.0")
	}
	if r.SimilarityThreshold < 0 || r.SimilarityThreshold > 1 {
		problems = append(problems, "retrieval.similarity_threshold must be in [0,1]")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		problems = append(problems, "tracing.sample_rate must be in [0,1]")
	}

	if len(problems) > 0 {
		return &apperrors.ConfigError{Problems: problems}
	}
	return nil
}
