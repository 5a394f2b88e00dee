package main

import (
	"fmt"
	"log"
	"os"

	"github.com/andys/ifsc_enricher/config"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	cfg := config.Default()

	app := &cli.App{
		Name:  "ifsc_enricher",
		Usage: "Enrich spreadsheet rows with bank branch details looked up by IFSC code",
		Commands: []*cli.Command{
			enrichCommand(&cfg),
			serveCommand(&cfg),
			sampleCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// commonFlags are shared by the commands that look codes up.
func commonFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Config file path with \"flag: value\" lines",
			EnvVars:     []string{"IFSC_CONFIG"},
			Destination: &cfg.ConfigFile,
		},
		&cli.StringFlag{
			Name:        "column",
			Usage:       "Name of the column holding the IFSC code",
			Value:       config.DefaultColumn,
			EnvVars:     []string{"IFSC_COLUMN"},
			Destination: &cfg.Column,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Lookup service base URL; codes are appended as a path segment",
			Value:       config.DefaultBaseURL,
			EnvVars:     []string{"IFSC_BASE_URL"},
			Destination: &cfg.BaseURL,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Timeout of a single lookup request",
			Value:       config.DefaultTimeout,
			EnvVars:     []string{"IFSC_TIMEOUT"},
			Destination: &cfg.Timeout,
		},
		&cli.IntFlag{
			Name:        "workers",
			Aliases:     []string{"w"},
			Usage:       "Maximum concurrent lookups (0 looks up every row at once)",
			EnvVars:     []string{"IFSC_WORKERS"},
			Destination: &cfg.WorkerCount,
		},
		&cli.StringFlag{
			Name:        "header",
			Usage:       "Export header: \"first\" uses the first row's columns, \"union\" adds columns of later rows",
			Value:       config.DefaultHeader,
			EnvVars:     []string{"IFSC_HEADER"},
			Destination: &cfg.HeaderMode,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "Enable debug mode with verbose error output",
			Destination: &cfg.Debug,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "Enable verbose SQL output",
			Destination: &cfg.Verbose,
		},
	}
}

// loadConfigFile fills flags that were not given on the command line or in
// the environment from the config file.
func loadConfigFile(c *cli.Context, cfg *config.Config) error {
	if cfg.ConfigFile == "" {
		return nil
	}

	settings, err := config.LoadConfig(cfg.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for name, value := range settings {
		if c.IsSet(name) {
			continue
		}
		if err := c.Set(name, value); err != nil {
			return fmt.Errorf("config file %s: invalid setting %q: %w", cfg.ConfigFile, name, err)
		}
	}
	return nil
}
