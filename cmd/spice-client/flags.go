package main

import (
	"flag"
	"fmt"
	"os"
)

// version is injected at build time with -ldflags "-X main.version=...".
// Defaults to dev.
var version = "dev"

// cliConfig holds user-supplied flag values prior to translation into a
// spice.Connect call, so main.go can validate and map.
type cliConfig struct {
	host        string
	port        int
	password    string
	playback    bool
	logLevel    string
	showVersion bool
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("spice-client", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &cliConfig{}
	fs.StringVar(&cfg.host, "host", "127.0.0.1", "server host, or local stream socket path when -port=0")
	fs.IntVar(&cfg.port, "port", 5900, "server port (0 selects the local stream socket at -host)")
	fs.StringVar(&cfg.password, "password", "", "session password")
	fs.BoolVar(&cfg.playback, "playback", false, "connect the playback (audio) channel if offered")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	fs.BoolVar(&cfg.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch cfg.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q", cfg.logLevel)
	}
	if cfg.port < 0 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 0 and 65535, got %d", cfg.port)
	}

	return cfg, nil
}
