package server

import (
	"time"

	"github.com/caarlos0/env/v11"

	appenv "github.com/garrettladley/bellhop/internal/env"
	xredis "github.com/garrettladley/bellhop/internal/redis"
)

type Config struct {
	Port       string             `env:"PORT" envDefault:"8080"`
	Env        appenv.Environment `env:"ENV" envDefault:"development"`
	Topic      string             `env:"TOPIC" envDefault:"/topic/notifications"`
	HeartBeat  time.Duration      `env:"HEARTBEAT" envDefault:"4s"`
	DemoUserID string             `env:"DEMO_USER_ID" envDefault:"1"`

	// Redis backs the store when Redis.URL is set; otherwise the store is
	// in memory.
	Redis xredis.Config `envPrefix:"REDIS_"`
}

func ReadConfig() (Config, error) {
	return env.ParseAs[Config]()
}
