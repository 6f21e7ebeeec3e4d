package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Camera      CameraConfig      `mapstructure:"camera"`
	Recognition RecognitionConfig `mapstructure:"recognition"`
	Parking     ParkingConfig     `mapstructure:"parking"`
	Auth        AuthConfig        `mapstructure:"auth"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type CameraConfig struct {
	EntryID    string `mapstructure:"entry_id"`
	EntryURL   string `mapstructure:"entry_url"`
	ExitID     string `mapstructure:"exit_id"`
	ExitURL    string `mapstructure:"exit_url"`
	CaptureDir string `mapstructure:"capture_dir"`
}

type RecognitionConfig struct {
	DetectURL     string        `mapstructure:"detect_url"`
	RecognizeURL  string        `mapstructure:"recognize_url"`
	InferTimeout  time.Duration `mapstructure:"infer_timeout"`
	Confidence    float64       `mapstructure:"confidence"`
	BufferSize    int           `mapstructure:"buffer_size"`
	MinVotes      int           `mapstructure:"min_votes"`
	MaxDist       float64       `mapstructure:"max_dist"`
	EvictAfter    time.Duration `mapstructure:"evict_after"`
	SuppressEntry time.Duration `mapstructure:"suppress_entry"`
}

type ParkingConfig struct {
	DefaultCapacity     int `mapstructure:"default_capacity"`
	DefaultPricePerHour int `mapstructure:"default_price_per_hour"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime"`
}

func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.dsn", "host=localhost user=parking password=parking dbname=parking port=5432 sslmode=disable")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
	v.SetDefault("camera.entry_id", "entry-cam")
	v.SetDefault("camera.exit_id", "exit-cam")
	v.SetDefault("camera.capture_dir", "captures")
	v.SetDefault("recognition.infer_timeout", 10*time.Second)
	v.SetDefault("recognition.confidence", 0.5)
	v.SetDefault("recognition.buffer_size", 20)
	v.SetDefault("recognition.min_votes", 15)
	v.SetDefault("recognition.max_dist", 80.0)
	v.SetDefault("recognition.evict_after", time.Second)
	v.SetDefault("recognition.suppress_entry", 5*time.Minute)
	v.SetDefault("parking.default_capacity", 200)
	v.SetDefault("parking.default_price_per_hour", 20000)
	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_lifetime", 720*time.Hour)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/parking-gate-service")
	}

	v.SetEnvPrefix("PARKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
