// Package main provides the CLI entry point for gifski.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/Peterliu358/Gifski/pkg/adapters/gifxencoder"
	"github.com/Peterliu358/Gifski/pkg/adapters/logger"
	"github.com/Peterliu358/Gifski/pkg/adapters/mp4source"
	"github.com/Peterliu358/Gifski/pkg/adapters/osfilesystem"
	"github.com/Peterliu358/Gifski/pkg/adapters/synthsource"
	"github.com/Peterliu358/Gifski/pkg/config"
	"github.com/Peterliu358/Gifski/pkg/converter"
	"github.com/Peterliu358/Gifski/pkg/ports"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "gifski",
		Usage:   l10n.T("Convert video files to high quality GIF animations"),
		Version: version,
		Commands: []*cli.Command{
			convertCommand(),
			estimateCommand(),
			selftestCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     l10n.T("Convert a video file to a GIF animation"),
		ArgsUsage: "VIDEO",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: l10n.T("Output GIF file path")},
		}, conversionFlags()...),
		Action: func(c *cli.Context) error {
			source := c.Args().First()
			if source == "" {
				return errors.New(l10n.T("a video file argument is required"))
			}

			cfg, err := buildConfig(c)
			if err != nil {
				return err
			}

			log := newLogger(c, cfg)
			src, err := mp4source.New(log)
			if err != nil {
				return err
			}

			result, err := runConversion(log, src, cfg.ToRequest(source), false, !c.Bool("quiet"))
			if err != nil {
				return err
			}

			fs := osfilesystem.New()
			output := c.String("output")
			if err := fs.WriteFile(output, result.Data); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			log.Info(l10n.F("Output saved to %s", output))
			return nil
		},
	}
}

func estimateCommand() *cli.Command {
	return &cli.Command{
		Name:      "estimate",
		Usage:     l10n.T("Estimate the output size without a full conversion"),
		ArgsUsage: "VIDEO",
		Flags:     conversionFlags(),
		Action: func(c *cli.Context) error {
			source := c.Args().First()
			if source == "" {
				return errors.New(l10n.T("a video file argument is required"))
			}

			cfg, err := buildConfig(c)
			if err != nil {
				return err
			}

			log := newLogger(c, cfg)
			src, err := mp4source.New(log)
			if err != nil {
				return err
			}

			result, err := runConversion(log, src, cfg.ToRequest(source), true, !c.Bool("quiet"))
			if err != nil {
				return err
			}

			estimated := int64(float64(len(result.Data)) * result.Multiplier)
			fmt.Println(l10n.F("Estimated output size: %s", humanBytes(estimated)))
			return nil
		},
	}
}

func selftestCommand() *cli.Command {
	return &cli.Command{
		Name:  "selftest",
		Usage: l10n.T("Convert a synthetic test clip to verify the pipeline"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "selftest.gif", Usage: l10n.T("Output GIF file path")},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: l10n.T("Log level (debug, info, warn, error)")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output")},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Defaults()
			cfg.FPS = 10
			cfg.To = 3

			log := newLogger(c, cfg)
			result, err := runConversion(log, synthsource.New(), cfg.ToRequest("synthetic"), false, !c.Bool("quiet"))
			if err != nil {
				return err
			}

			fs := osfilesystem.New()
			output := c.String("output")
			if err := fs.WriteFile(output, result.Data); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			log.Info(l10n.F("Output saved to %s", output))
			return nil
		},
	}
}

// conversionFlags returns the flags shared by convert and estimate.
func conversionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Usage: l10n.T("Quality preset (low, medium, high)")},
		&cli.Float64Flag{Name: "quality", Aliases: []string{"q"}, Usage: l10n.T("Quality between 0 and 1 (overrides preset)")},
		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Output width in pixels (0 = source size)")},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Output height in pixels (0 = source size)")},
		&cli.Float64Flag{Name: "fps", Usage: l10n.T("Output frame rate (0 = source rate, capped at 30)")},
		&cli.Float64Flag{Name: "from", Usage: l10n.T("Start of the converted range in seconds")},
		&cli.Float64Flag{Name: "to", Usage: l10n.T("End of the converted range in seconds (0 = end of video)")},
		&cli.IntFlag{Name: "loop", Usage: l10n.T("Number of repetitions (0 = loop forever)")},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output")},
	}
}

// buildConfig resolves the configuration: defaults, then the config file,
// then explicit flags.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if preset := c.String("preset"); preset != "" {
		switch p := config.QualityPreset(preset); p {
		case config.QualityLow, config.QualityMedium, config.QualityHigh:
			cfg.Quality = config.PresetQuality(p)
		default:
			return cfg, errors.New(l10n.F("unknown preset %q", preset))
		}
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Float64("quality")
	}
	if cfg.Quality <= 0 || cfg.Quality > 1 {
		return cfg, errors.New(l10n.F("quality %.2f out of range 0-1", cfg.Quality))
	}

	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("from") {
		cfg.From = c.Float64("from")
	}
	if c.IsSet("to") {
		cfg.To = c.Float64("to")
	}
	if c.IsSet("loop") {
		cfg.Loop = int16(c.Int("loop"))
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, nil
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
}

// runConversion wires the converter, runs it with signal-driven
// cancellation and optional terminal progress output.
func runConversion(log ports.Logger, src ports.FrameSource, req converter.Request, estimation bool, progress bool) (*converter.Result, error) {
	conv := converter.New(src, func(settings ports.EncoderSettings) (ports.GifEncoder, error) {
		return gifxencoder.New(settings)
	}, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			log.Warn(l10n.T("Interrupted, cancelling..."))
			conv.Cancel()
		}
	}()

	showProgress := progress && isatty.IsTerminal(os.Stderr.Fd())
	if showProgress {
		conv.OnProgress = func(completed, total int) {
			fmt.Fprintf(os.Stderr, "\r%d/%d", completed, total)
		}
	}

	result, err := conv.Run(context.Background(), req, estimation)
	if showProgress {
		fmt.Fprintln(os.Stderr)
	}
	return result, err
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
