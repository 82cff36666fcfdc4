package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"flowtagger/internal/analysis"
	"flowtagger/internal/config"
	"flowtagger/internal/logger"
	"flowtagger/internal/models"
	"flowtagger/internal/pipeline"
	"flowtagger/internal/tui"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Exit codes.
const (
	exitOK         = 0
	exitUnexpected = 1
	exitConfig     = 2
	exitEmptyInput = 3
	exitMalformed  = 4
	exitWrite      = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to a TOML or YAML config file")
	protocolsPath := flag.String("protocols", "", "Protocol numbers CSV (empty selects the built-in registry)")
	lookupPath := flag.String("lookup", "", "Lookup table CSV (dstport,protocol,tag)")
	flowLogPath := flag.String("flowlog", "", "Version 2 flow log file")
	outDir := flag.String("out", "", "Directory for the report files")
	order := flag.String("order", "", "Report row order: first-seen, key or count")
	zeroTags := flag.Bool("include-zero-tags", false, "List lookup table tags that matched nothing with a count of 0")
	noWait := flag.Bool("no-wait", false, "Exit without waiting for a keypress")
	logLevel := flag.String("log-level", "", "Log level: trace, debug, info, warn, error, off")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "flowtagger: %v\n", err)
			return exitConfig
		}
		cfg = loaded
	}

	// flags only override what was given on the command line
	var orderErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "protocols":
			cfg.Paths.Protocols = *protocolsPath
		case "lookup":
			cfg.Paths.Lookup = *lookupPath
		case "flowlog":
			cfg.Paths.FlowLog = *flowLogPath
		case "out":
			cfg.Paths.OutputDir = *outDir
		case "order":
			cfg.Report.Order, orderErr = analysis.ParseOrder(*order)
		case "include-zero-tags":
			cfg.Report.IncludeZeroTags = *zeroTags
		case "no-wait":
			cfg.UI.Wait = !*noWait
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	if orderErr != nil {
		fmt.Fprintf(os.Stderr, "flowtagger: %v\n", orderErr)
		return exitConfig
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "flowtagger: invalid configuration: %v\n", err)
		return exitConfig
	}

	log := logger.Init(logger.Options{App: "flowtagger", Level: cfg.Log.Level, NoColor: cfg.Log.NoColor})

	res, err := pipeline.Run(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}

	report(cfg, res, err, log)
	return exitCode(err)
}

// report is the single place where the outcome reaches the user.
func report(cfg config.Config, res *pipeline.Result, runErr error, log zerolog.Logger) {
	interactive := cfg.UI.Wait &&
		isatty.IsTerminal(os.Stdin.Fd()) &&
		isatty.IsTerminal(os.Stdout.Fd())

	if interactive {
		err := tui.Run(tui.NewSummaryModel(res, runErr))
		if err == nil {
			return
		}
		log.Warn().Err(err).Msg("summary screen failed, printing instead")
	}
	fmt.Print(tui.Plain(res, runErr))
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var se *models.SourceError
	if errors.As(err, &se) {
		switch se.Kind {
		case models.EmptyOrMissingFile:
			return exitEmptyInput
		case models.MalformedEntry:
			return exitMalformed
		case models.IOWriteError:
			return exitWrite
		}
	}
	return exitUnexpected
}
