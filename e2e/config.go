package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_LAN enables scenarios that need real broadcast on the local network
	LAN              bool   `envconfig:"E2E_LAN" default:"false"`
	BroadcastAddress string `envconfig:"E2E_BROADCAST_ADDR" default:"255.255.255.255"`
	DiscoveryPort    int    `envconfig:"E2E_DISCOVERY_PORT" default:"37020"`
	ChatPort         int    `envconfig:"E2E_CHAT_PORT" default:"37021"`
	// E2E_COLOURS enables colorized step headers for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
