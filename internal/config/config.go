package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type LiveKitConfig struct {
	URL       string `mapstructure:"url"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

type RecordingConfig struct {
	Layout string `mapstructure:"layout"`
	Dir    string `mapstructure:"dir"`
}

type Config struct {
	Mode          string          `mapstructure:"mode"`
	Port          int             `mapstructure:"port"`
	LiveKit       LiveKitConfig   `mapstructure:"livekit"`
	Recording     RecordingConfig `mapstructure:"recording"`
	FeedSendBuf   int             `mapstructure:"feed_send_buffer"`
	ForwardBuffer int             `mapstructure:"forward_buffer"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("recording.layout", "speaker-light")
	v.SetDefault("recording.dir", "recordings")
	v.SetDefault("feed_send_buffer", 32)
	v.SetDefault("forward_buffer", 256)

	// Credentials come from the environment, never the yaml file.
	_ = v.BindEnv("livekit.url", "LIVEKIT_URL")
	_ = v.BindEnv("livekit.api_key", "LIVEKIT_API_KEY")
	_ = v.BindEnv("livekit.api_secret", "LIVEKIT_API_SECRET")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.LiveKit.URL == "" || cfg.LiveKit.APIKey == "" || cfg.LiveKit.APISecret == "" {
		return nil, fmt.Errorf("LIVEKIT_URL, LIVEKIT_API_KEY and LIVEKIT_API_SECRET must be set")
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | LiveKit: %s\n", cfg.Mode, cfg.Port, cfg.LiveKit.URL)
	return &cfg, nil
}
