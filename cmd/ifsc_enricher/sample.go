package main

import (
	"bytes"
	"fmt"

	"github.com/andys/ifsc_enricher/sample"
	"github.com/andys/ifsc_enricher/store"
	"github.com/urfave/cli/v2"
)

func sampleCommand() *cli.Command {
	return &cli.Command{
		Name:  "sample",
		Usage: "Write a demo workbook with fake remitters and IFSC codes",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "rows",
				Aliases: []string{"n"},
				Usage:   "Number of rows",
				Value:   25,
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed (0 picks one)",
			},
			&cli.Float64Flag{
				Name:  "bad-ratio",
				Usage: "Share of rows with a malformed code",
				Value: 0.1,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Where to write the workbook (path, s3://bucket/key, or mem://name kept in memory until exit)",
				Value:   "sample_ifsc.xlsx",
			},
		},
		Action: func(c *cli.Context) error {
			data, err := sample.Workbook(c.Int("rows"), c.Uint64("seed"), c.Float64("bad-ratio"))
			if err != nil {
				return err
			}

			fs, path, err := store.FromURL(c.String("output"))
			if err != nil {
				return err
			}
			if err := fs.Write(c.Context, path, bytes.NewReader(data), int64(len(data))); err != nil {
				return fmt.Errorf("failed to write %s: %w", c.String("output"), err)
			}

			fmt.Printf("Wrote %d rows to %s\n", c.Int("rows"), c.String("output"))
			return nil
		},
	}
}
