package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultAPIURL = "http://localhost:8080"
	DefaultTopic  = "/topic/notifications"
)

type Config struct {
	APIURL         string        `env:"API_URL" envDefault:"http://localhost:8080"`
	WSURL          string        `env:"WS_URL"`
	NativeWSURL    string        `env:"NATIVE_WS_URL"`
	Topic          string        `env:"TOPIC" envDefault:"/topic/notifications"`
	Token          string        `env:"TOKEN"`
	UserID         string        `env:"USER_ID"`
	SessionFile    string        `env:"SESSION_FILE"`
	Alerts         bool          `env:"ALERTS" envDefault:"true"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	ReconnectDelay time.Duration `env:"RECONNECT_DELAY" envDefault:"5s"`
	HeartBeat      time.Duration `env:"HEARTBEAT" envDefault:"4s"`
}

// Read parses BELLHOP_* environment variables and fills the websocket URLs
// from APIURL when they are not set explicitly.
func Read() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "BELLHOP_"})
	if err != nil {
		return Config{}, err
	}
	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	if c.WSURL == "" {
		u, err := WebsocketURL(c.APIURL, "/ws")
		if err != nil {
			return err
		}
		c.WSURL = u
	}
	if c.NativeWSURL == "" {
		u, err := WebsocketURL(c.APIURL, "/ws/native")
		if err != nil {
			return err
		}
		c.NativeWSURL = u
	}
	return nil
}

// WebsocketURL maps an http(s) base URL onto the ws(s) scheme and appends path.
func WebsocketURL(base string, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}
