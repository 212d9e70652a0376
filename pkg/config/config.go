package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/myeof/gomllp/pkg/logger"
	"github.com/pkg/errors"
)

// DefaultEnvFiles are loaded, when present, before the environment is parsed.
var DefaultEnvFiles = []string{".env", ".env.local"}

type LogOptions struct {
	Mode  string `env:"LOG_MODE" envDefault:"console"`
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	Path  string `env:"LOG_PATH" envDefault:"./logs"`
	Name  string `env:"LOG_NAME"`
}

// Options returns the logger options for these settings.
func (l LogOptions) Options() *logger.Options {
	return &logger.Options{Mode: l.Mode, Level: l.Level, Path: l.Path, Name: l.Name}
}

type SenderOptions struct {
	Host              string `env:"HL7_HOST" envDefault:"localhost"`
	Port              uint16 `env:"HL7_PORT"`
	TimeoutSeconds    int    `env:"HL7_TIMEOUT" envDefault:"30"`
	SendingApp        string `env:"HL7_SENDING_APP" envDefault:"SendingApp"`
	SendingFacility   string `env:"HL7_SENDING_FACILITY" envDefault:"SendingFac"`
	ReceivingApp      string `env:"HL7_RECEIVING_APP" envDefault:"ReceivingApp"`
	ReceivingFacility string `env:"HL7_RECEIVING_FACILITY" envDefault:"ReceivingFac"`
	ProcessingID      string `env:"HL7_PROCESSING_ID" envDefault:"P"`
	RateLimit         int    `env:"HL7_SEND_RATE" envDefault:"0"`
}

// Timeout converts TimeoutSeconds; it must be positive.
func (s SenderOptions) Timeout() (time.Duration, error) {
	if s.TimeoutSeconds <= 0 {
		return 0, errors.Errorf("timeout must be a positive number of seconds, got %d", s.TimeoutSeconds)
	}
	return time.Duration(s.TimeoutSeconds) * time.Second, nil
}

type ListenerOptions struct {
	Addr        string        `env:"HL7_LISTEN_ADDR" envDefault:":2575"`
	CPS         int           `env:"HL7_LISTEN_CPS" envDefault:"0"`
	IdleTimeout time.Duration `env:"HL7_LISTEN_IDLE_TIMEOUT" envDefault:"5m"`
}

type Configuration struct {
	Log      LogOptions
	Sender   SenderOptions
	Listener ListenerOptions
}

// LoadEnv loads the env files that exist and reports how many were found.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads env files, then the process environment. Variables already set
// in the environment win over the files.
func Load(envFiles ...string) (*Configuration, error) {
	if envFiles == nil {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, errors.Wrap(err, "load env files")
	}
	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	return c, nil
}
