package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/akamensky/argparse"
	"github.com/arguscam/argus/server"
	"github.com/arguscam/argus/server/config"
	"github.com/coreos/go-systemd/daemon"
	"github.com/cyclopcam/logs"
)

func main() {
	parser := argparse.NewParser("argus", "Object detection for security cameras, using AWS Rekognition")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Configuration file (JSON)", Required: true})
	port := parser.Int("p", "port", &argparse.Options{Help: "Override the HTTP listen port", Default: 0})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if cfg.StoragePath == "" {
		home, _ := os.UserHomeDir()
		if home == "" {
			// Maybe some kind of system account. The config option exists
			// precisely so this default doesn't matter much.
			home = "/var/lib"
		}
		cfg.StoragePath = filepath.Join(home, "argus")
	}

	srv, err := server.NewServer(logger, cfg)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	srv.ListenForKillSignals()

	// Tell systemd that we're alive
	daemon.SdNotify(false, daemon.SdNotifyReady)

	if err := srv.ListenHTTP(server.PortString(cfg.Port)); err != nil {
		logger.Errorf("ListenHTTP returned: %v", err)
		os.Exit(1)
	}
}
