// Package start is the playback server daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"madj/pkg/library"
	"madj/pkg/log"
	"madj/pkg/playback"
)

func main() {
	if err := run(); err != nil {
		stdlog.Fatal(err)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to playback.yaml")
	flag.Parse()

	if *configFlag == "" {
		flag.Usage()
		return nil
	}

	configPath, err := filepath.Abs(*configFlag)
	if err != nil {
		return fmt.Errorf("could not get absolute path of config: %w", err)
	}

	config, err := playback.ParseConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("could not read config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := log.NewLogger()
	logger.Start(ctx)
	go logger.PrintToStdout(ctx)

	manager, err := library.NewManager(config.LibraryDir, config.DBPath, logger)
	if err != nil {
		return fmt.Errorf("could not open library: %w", err)
	}
	defer manager.Close()

	if err := manager.Scan(ctx); err != nil {
		return fmt.Errorf("could not scan library: %w", err)
	}

	var auth *playback.Authenticator
	if config.AccountsPath != "" {
		auth, err = playback.NewAuthenticator(config.AccountsPath)
		if err != nil {
			return fmt.Errorf("could not read accounts: %w", err)
		}
	}

	server := playback.NewServer(manager, auth, logger)
	if err := server.Start(ctx, config.Address); err != nil {
		return fmt.Errorf("could not start server: %w", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	received := <-stop
	logger.Info().Src("app").Msgf("received %v, stopping", received)
	return nil
}
