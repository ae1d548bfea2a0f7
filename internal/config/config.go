package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"` // takes precedence over the discrete fields
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the connection string for the postgres driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// AuthConfig holds the two independent credential namespaces.
type AuthConfig struct {
	UserJWTSecret      string        `mapstructure:"user_jwt_secret"`
	WorkerJWTSecret    string        `mapstructure:"worker_jwt_secret"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	AllowLegacySignIn  bool          `mapstructure:"allow_legacy_signin"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
}

type StorageConfig struct {
	Bucket          string        `mapstructure:"bucket"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	DeliveryDomain  string        `mapstructure:"delivery_domain"`
	PresignTTL      time.Duration `mapstructure:"presign_ttl"`
}

// ChainConfig describes the settlement chain.
type ChainConfig struct {
	Type            string        `mapstructure:"type"`              // solana, ethereum
	RPCURL          string        `mapstructure:"rpc_url"`           // RPC endpoint
	PayerPrivateKey string        `mapstructure:"payer_private_key"` // optional; empty disables transfers
	ChainID         int64         `mapstructure:"chain_id"`          // EVM only
	Decimals        int32         `mapstructure:"decimals"`          // display precision of the smallest unit
	ConfirmTimeout  time.Duration `mapstructure:"confirm_timeout"`
}

// SettlementConfig controls reward accrual and payout behaviour.
type SettlementConfig struct {
	RewardPercent     int64         `mapstructure:"reward_percent"`
	FailurePolicy     string        `mapstructure:"failure_policy"` // strict, legacy
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
	StaleAfter        time.Duration `mapstructure:"stale_after"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // stdout, stderr, file
	File   string `mapstructure:"file"`
}

// GetLevel implements logger.LogConfig.
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput implements logger.LogConfig.
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile implements logger.LogConfig.
func (l LogConfig) GetFile() string {
	return l.File
}

const (
	ChainSolana   = "solana"
	ChainEthereum = "ethereum"

	FailurePolicyStrict = "strict"
	FailurePolicyLegacy = "legacy"
)

// legacyEnv maps config keys to the variable names used by existing deployments.
var legacyEnv = map[string]string{
	"server.port":               "PORT",
	"database.url":              "DATABASE_URL",
	"auth.user_jwt_secret":      "JWT_SECRET",
	"auth.worker_jwt_secret":    "WORKER_JWT_SECRET",
	"storage.bucket":            "AWS_S3_BUCKET_NAME",
	"storage.region":            "AWS_REGION",
	"storage.access_key_id":     "AWS_ACCESS_KEY_ID",
	"storage.secret_access_key": "AWS_SECRET_ACCESS_KEY",
	"storage.delivery_domain":   "CLOUDFRONT_DOMAIN",
	"chain.rpc_url":             "SOLANA_RPC_URL",
	"chain.payer_private_key":   "PARENT_WALLET_PRIVATE_KEY",
	"redis.addr":                "REDIS_ADDR",
	"redis.password":            "REDIS_PASSWORD",
}

// Load reads .env, config.yaml and the environment, in increasing precedence.
func Load() (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/dataverse")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Chain.Decimals == 0 {
		cfg.Chain.Decimals = defaultDecimals(cfg.Chain.Type)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors_origins", []string{
		"http://localhost:3001", "http://127.0.0.1:3001",
		"http://localhost:3002", "http://127.0.0.1:3002",
	})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "dataverse")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.allow_legacy_signin", false)
	v.SetDefault("auth.rate_limit_per_minute", 30)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.presign_ttl", time.Hour)
	v.SetDefault("chain.type", ChainSolana)
	v.SetDefault("chain.rpc_url", "https://api.devnet.solana.com")
	v.SetDefault("chain.chain_id", 1)
	v.SetDefault("chain.confirm_timeout", 60*time.Second)
	v.SetDefault("settlement.reward_percent", 10)
	v.SetDefault("settlement.failure_policy", FailurePolicyStrict)
	v.SetDefault("settlement.reconcile_interval", time.Minute)
	v.SetDefault("settlement.stale_after", 5*time.Minute)
	v.SetDefault("settlement.lock_ttl", 2*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/dataverse.log")
}

func defaultDecimals(chainType string) int32 {
	if chainType == ChainEthereum {
		return 18
	}
	return 9
}

// Validate reports configuration that must stop the process at startup.
func (c *Config) Validate() error {
	if c.Auth.UserJWTSecret == "" {
		return errors.New("JWT_SECRET is missing")
	}
	if c.Auth.WorkerJWTSecret == "" {
		return errors.New("WORKER_JWT_SECRET is missing")
	}
	if c.Auth.UserJWTSecret == c.Auth.WorkerJWTSecret {
		return errors.New("user and worker JWT secrets must differ")
	}
	switch c.Chain.Type {
	case ChainSolana, ChainEthereum:
	default:
		return fmt.Errorf("unknown chain type %q", c.Chain.Type)
	}
	switch c.Settlement.FailurePolicy {
	case FailurePolicyStrict, FailurePolicyLegacy:
	default:
		return fmt.Errorf("unknown settlement failure policy %q", c.Settlement.FailurePolicy)
	}
	if c.Settlement.RewardPercent < 1 || c.Settlement.RewardPercent > 100 {
		return fmt.Errorf("reward percent %d out of range 1-100", c.Settlement.RewardPercent)
	}
	return nil
}
