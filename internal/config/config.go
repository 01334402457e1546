package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	CardGame  CardGameConfig  `mapstructure:"cardgame"`
	Spectator SpectatorConfig `mapstructure:"spectator"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

type CardGameConfig struct {
	StartingHealth int   `mapstructure:"startingHealth"`
	HandSize       int   `mapstructure:"handSize"`
	DealSeed       int64 `mapstructure:"dealSeed"` // 0 = seed from clock
	MinStake       int64 `mapstructure:"minStake"`
	FeeBps         int64 `mapstructure:"feeBps"`
	AutoBegin      bool  `mapstructure:"autoBegin"`
}

type SpectatorConfig struct {
	Buffer int `mapstructure:"buffer"`
}

var GlobalConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5005")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire", 168)
	v.SetDefault("cardgame.startingHealth", 100)
	v.SetDefault("cardgame.handSize", 15)
	v.SetDefault("cardgame.dealSeed", 0)
	v.SetDefault("cardgame.minStake", 0)
	v.SetDefault("cardgame.feeBps", 300)
	v.SetDefault("cardgame.autoBegin", false)
	v.SetDefault("spectator.buffer", 16)
}

// Load reads the yaml file at path, layering env overrides such as
// CARDGAME_HANDSIZE on top. A missing file is tolerated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig(path string) {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatalf("jwt.secret must be set")
	}
	GlobalConfig = cfg
}
