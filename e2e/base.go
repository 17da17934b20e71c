package e2e

import (
	"fmt"
	"lan-chat/protocol"
	"lan-chat/runtime"
	"log/slog"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseLanSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration and skips when no LAN is available.
func (s *BaseLanSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if !s.Config.LAN {
		s.T().Skip("set E2E_LAN=true to run scenarios on the local network")
	}
}

// Step prints a colorized header for a scenario step in the test log.
func (s *BaseLanSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// NewPeer builds a session controller using the real discovery and chat ports.
func (s *BaseLanSuite) NewPeer(username string) *runtime.SessionController {
	c, err := runtime.NewSessionController(logs.GetLoggerFromLevel(slog.LevelDebug), runtime.SessionConfig{
		Username:            username,
		DiscoveryPort:       s.Config.DiscoveryPort,
		ChatPort:            s.Config.ChatPort,
		BroadcastAddress:    s.Config.BroadcastAddress,
		BroadcastInterval:   2 * time.Second,
		StaleAfter:          10 * time.Second,
		PruneInterval:       time.Second,
		DialTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
		RestartInterval:     200 * time.Millisecond,
		MaxFrameSize:        protocol.DefaultMaxFrameSize,
		QueueWarnThreshold:  1000,
		QueueMetricInterval: 5 * time.Second,
	})
	s.Require().NoError(err)
	s.T().Cleanup(c.Stop)
	return c
}
