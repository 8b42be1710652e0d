package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	ccvmlink "github.com/wippyai/ccvm-link"
	linkerrors "github.com/wippyai/ccvm-link/errors"
)

func main() {
	var (
		configFile    = flag.String("config", "", "Path to YAML config file")
		strict        = flag.Bool("strict", false, "Treat warnings as errors")
		verbose       = flag.Bool("v", false, "Verbose logging")
		showRemoved   = flag.Bool("removed", false, "List removed symbols")
		color         = flag.String("color", "", "Colorize output: auto, always or never")
		invalidExport = flag.String("invalid-export", "", "Symbol that empty export slots point at")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: ccvmlink [-config file.yaml] [-strict] [-v] [-removed] [-color auto|always|never] <object>")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strict":
			cfg.Strict = *strict
		case "removed":
			cfg.ShowRemoved = *showRemoved
		case "color":
			cfg.Color = *color
		case "invalid-export":
			cfg.InvalidExport = invalidExport
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		}
	})

	if err := run(flag.Arg(0), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(file string, cfg config) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ccvmlink.SetLogger(logger)

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	res, err := ccvmlink.Link(data, cfg.options())
	if err != nil {
		var e *linkerrors.Error
		if errors.As(err, &e) && !e.Fatal() {
			return fmt.Errorf("link %s: warnings rejected in strict mode: %w", file, err)
		}
		return fmt.Errorf("link %s: %w", file, err)
	}

	p := printer{w: os.Stdout, color: useColor(cfg.Color)}
	p.summary(file, res, cfg.ShowRemoved)
	return nil
}

// newLogger builds a development logger for debug output and a production
// logger otherwise.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if lvl == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

func useColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
