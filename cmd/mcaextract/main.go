package main

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/rhythmatician/lodiffusion/extract"
	"github.com/rhythmatician/lodiffusion/region"
)

func main() {
	app := &cli.App{
		Name:  "mcaextract",
		Usage: "reads heightmaps and surface biomes out of Anvil region files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "TOML config `FILE`"},
			&cli.BoolFlag{Name: "debug", Usage: "development logging"},
		},
		Before: setup,
		After: func(c *cli.Context) error {
			if logger, ok := c.App.Metadata["logger"].(*zap.Logger); ok {
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "coords",
				Usage:     "print the region coordinates encoded in a file name",
				ArgsUsage: "<file>",
				Action:    coords,
			},
			{
				Name:      "chunk",
				Usage:     "extract one chunk as JSON",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "x", Usage: "local chunk X (0-31)", Required: true},
					&cli.IntFlag{Name: "z", Usage: "local chunk Z (0-31)", Required: true},
				},
				Action: chunk,
			},
			{
				Name:      "export",
				Usage:     "write a grid file for every region",
				ArgsUsage: "<file or directory>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output `DIR`", Value: "."},
				},
				Action: exportRegions,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) (err error) {
	config := extract.DefaultConfig()
	if path := c.String("config"); path != "" {
		if config, err = extract.ReadConfig(path); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
	}

	var logger *zap.Logger
	if c.Bool("debug") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	runID := uuid.New()
	logger = logger.With(zap.Stringer("run", runID))

	c.App.Metadata = map[string]interface{}{"logger": logger, "config": config, "run": runID}
	return nil
}

func env(c *cli.Context) (*zap.Logger, extract.Config) {
	return c.App.Metadata["logger"].(*zap.Logger), c.App.Metadata["config"].(extract.Config)
}

func coords(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("need exactly one region file", 2)
	}
	coord, err := region.ParseFileName(c.Args().First())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, coord.X, coord.Z)
	return err
}

func chunk(c *cli.Context) (err error) {
	if c.NArg() != 1 {
		return cli.Exit("need exactly one region file", 2)
	}
	logger, config := env(c)

	cache := region.NewCache(logger)
	defer func() {
		if err2 := cache.Clear(); err == nil && err2 != nil {
			err = err2
		}
	}()
	e := extract.New(cache, extract.WithLogger(logger), extract.WithConfig(config))

	path := c.Args().First()
	result, err := e.Chunk(path, c.Int("x"), c.Int("z"))
	if err != nil {
		return err
	}
	if result == nil {
		return cli.Exit(fmt.Sprintf("chunk %d,%d is not in %s", c.Int("x"), c.Int("z"), path), 1)
	}

	out, err := json.MarshalIndent(newChunkView(result), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	if in := e.Instrumentation(); in != nil {
		s := in.Snapshot()
		logger.Info("Extraction stats", zap.Int64("calls", s.Calls), zap.Int64("fallbacks", s.Fallbacks), zap.Duration("mean", s.Mean()))
	}
	return err
}
