package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andys/ifsc_enricher/config"
	"github.com/andys/ifsc_enricher/lookup"
	"github.com/andys/ifsc_enricher/web"
	"github.com/urfave/cli/v2"
)

func serveCommand(cfg *config.Config) *cli.Command {
	flags := append(commonFlags(cfg),
		&cli.StringFlag{
			Name:        "listen",
			Aliases:     []string{"l"},
			Usage:       "Address the web tool listens on",
			Value:       config.DefaultListen,
			EnvVars:     []string{"IFSC_LISTEN"},
			Destination: &cfg.ListenAddr,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the upload, fetch and download tool in the browser",
		Flags: flags,
		Before: func(c *cli.Context) error {
			return loadConfigFile(c, cfg)
		},
		Action: func(c *cli.Context) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			server, err := web.NewServer(ctx, cfg, lookup.NewClient(cfg.BaseURL, cfg.Timeout, nil))
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(cfg.ListenAddr)
			}()
			fmt.Printf("Listening on %s\n", cfg.ListenAddr)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			fmt.Println("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}
