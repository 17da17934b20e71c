package internal

import (
	"fmt"
	"lan-chat/runtime"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type Config struct {
	Username            string        `env:"LANCHAT_USERNAME" validate:"omitempty,max=20"`
	DiscoveryPort       int           `env:"DISCOVERY_PORT,default=37020" validate:"min=1,max=65535,nefield=ChatPort"`
	ChatPort            int           `env:"CHAT_PORT,default=37021" validate:"min=1,max=65535"`
	BroadcastAddress    string        `env:"BROADCAST_ADDRESS,default=255.255.255.255" validate:"required,ipv4"`
	AdvertiseIP         string        `env:"ADVERTISE_IP" validate:"omitempty,ip"`
	BroadcastInterval   time.Duration `env:"BROADCAST_INTERVAL,default=2s" validate:"gt=0"`
	StaleAfter          time.Duration `env:"STALE_AFTER,default=10s" validate:"gtfield=BroadcastInterval"`
	PruneInterval       time.Duration `env:"PRUNE_INTERVAL,default=1s" validate:"gt=0"`
	DialTimeout         time.Duration `env:"DIAL_TIMEOUT,default=5s" validate:"gt=0"`
	WriteTimeout        time.Duration `env:"WRITE_TIMEOUT,default=5s" validate:"gt=0"`
	TickInterval        time.Duration `env:"TICK_INTERVAL,default=500ms" validate:"gt=0"`
	MaxFrameSize        int           `env:"MAX_FRAME_SIZE,default=65536" validate:"min=512"`
	RestartInterval     time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	QueueWarnThreshold  int           `env:"QUEUE_WARN_THRESHOLD,default=1000" validate:"min=0"`
	QueueMetricInterval time.Duration `env:"QUEUE_METRIC_INTERVAL,default=5s" validate:"gt=0"`
	LogLevel            string        `env:"LOG_LEVEL,default=WARN" validate:"oneof=DEBUG INFO WARN ERROR"`
	HistoryFile         string        `env:"HISTORY_FILE"`
}

// LoadConfig reads the environment, after merging an optional .env file, and validates it.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Session maps the settings used by the session controller.
func (c Config) Session() runtime.SessionConfig {
	return runtime.SessionConfig{
		Username:            c.Username,
		DiscoveryPort:       c.DiscoveryPort,
		ChatPort:            c.ChatPort,
		BroadcastAddress:    c.BroadcastAddress,
		AdvertiseIP:         c.AdvertiseIP,
		BroadcastInterval:   c.BroadcastInterval,
		StaleAfter:          c.StaleAfter,
		PruneInterval:       c.PruneInterval,
		DialTimeout:         c.DialTimeout,
		WriteTimeout:        c.WriteTimeout,
		RestartInterval:     c.RestartInterval,
		MaxFrameSize:        c.MaxFrameSize,
		QueueWarnThreshold:  c.QueueWarnThreshold,
		QueueMetricInterval: c.QueueMetricInterval,
	}
}
