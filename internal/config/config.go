package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath       = "config.toml"
	DefaultHTTPAddr         = ":8080"
	DefaultLanguage         = "zh-TW"
	DefaultFetchTimeoutSecs = 15
	DefaultSaveWorkers      = 10
	DefaultSettingsPath     = "auto_save_settings.json"
	DefaultCredentialsFile  = "credentials.json"
	DefaultTokenFile        = "token.json"

	// DefaultUserAgent identifies fetches as a regular browser; some origins
	// reject unidentified clients outright.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	I18n     I18nConfig     `toml:"i18n"`
	LINE     LINEConfig     `toml:"line"`
	Telegram TelegramConfig `toml:"telegram"`
	Google   GoogleConfig   `toml:"google"`
	Fetch    FetchConfig    `toml:"fetch"`
	Save     SaveConfig     `toml:"save"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type I18nConfig struct {
	DefaultLanguage string `toml:"default_language"`
}

type LINEConfig struct {
	Enabled            bool   `toml:"enabled"`
	ChannelSecret      string `toml:"channel_secret" validate:"required_if=Enabled true"`
	ChannelAccessToken string `toml:"channel_access_token" validate:"required_if=Enabled true"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token" validate:"required_if=Enabled true"`
}

type GoogleConfig struct {
	CredentialsFile string `toml:"credentials_file" validate:"required"`
	TokenFile       string `toml:"token_file"`
	FolderID        string `toml:"folder_id"`
}

type FetchConfig struct {
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gte=0"`
	UserAgent      string `toml:"user_agent"`
}

type SaveConfig struct {
	Workers      int    `toml:"workers" validate:"gte=0"`
	SettingsPath string `toml:"settings_path"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		I18n: I18nConfig{
			DefaultLanguage: DefaultLanguage,
		},
		LINE: LINEConfig{
			Enabled: true,
		},
		Google: GoogleConfig{
			CredentialsFile: DefaultCredentialsFile,
			TokenFile:       DefaultTokenFile,
		},
		Fetch: FetchConfig{
			TimeoutSeconds: DefaultFetchTimeoutSecs,
			UserAgent:      DefaultUserAgent,
		},
		Save: SaveConfig{
			Workers:      DefaultSaveWorkers,
			SettingsPath: DefaultSettingsPath,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
