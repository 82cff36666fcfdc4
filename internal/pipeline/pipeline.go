// Package pipeline runs one tagging pass: load the protocol registry and the
// lookup table, classify every flow log record, and write the two reports.
package pipeline

import (
	"time"

	"flowtagger/internal/analysis"
	"flowtagger/internal/config"
	"flowtagger/internal/flowlog"
	"flowtagger/internal/lookup"
	"flowtagger/internal/models"
	"flowtagger/internal/protocols"
	"flowtagger/internal/reporting"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Result describes a completed run.
type Result struct {
	RunID string

	Protocols        int
	BuiltinProtocols bool
	LookupEntries    int
	LookupDuplicates int
	Flow             flowlog.Stats

	Tally         *analysis.Tally
	Tags          []analysis.TagCount
	PortProtocols []analysis.PortProtocolCount
	Reports       reporting.Paths

	Elapsed time.Duration
}

// Run executes the pipeline described by cfg. Each input is opened, read
// and closed before the next stage starts, and reports are only written once
// the whole flow log has been classified.
func Run(cfg config.Config, log zerolog.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	res := &Result{RunID: uuid.NewString()}
	log = log.With().Str("run_id", res.RunID).Logger()

	registry, err := loadRegistry(cfg.Paths.Protocols, res)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("protocols", registry.Len()).
		Bool("builtin", res.BuiltinProtocols).
		Int("skipped_rows", registry.Skipped()).
		Msg("protocol registry loaded")

	table, err := lookup.Load(cfg.Paths.Lookup)
	if err != nil {
		return nil, err
	}
	res.LookupEntries = table.Len()
	res.LookupDuplicates = table.Duplicates()
	if table.Duplicates() > 0 {
		log.Warn().
			Int("duplicates", table.Duplicates()).
			Str("path", cfg.Paths.Lookup).
			Msg("lookup table repeats keys, keeping the last tag for each")
	}
	log.Debug().Int("entries", table.Len()).Msg("lookup table loaded")

	tally := analysis.NewTally()
	stats, err := flowlog.ScanFile(cfg.Paths.FlowLog, func(rec models.FlowRecord) error {
		tally.Accumulate(rec, table, registry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Flow = stats
	res.Tally = tally
	log.Info().
		Int("records", stats.Records).
		Int("skipped", stats.Skipped).
		Str("size", humanize.Bytes(uint64(stats.Bytes))).
		Msg("flow log classified")

	var zeroTags []string
	if cfg.Report.IncludeZeroTags {
		zeroTags = table.Tags()
	}
	res.Tags = tally.TagCounts(cfg.Report.Order, zeroTags...)
	res.PortProtocols = tally.PortProtocolCounts(cfg.Report.Order)

	paths, err := reporting.WriteReports(cfg.Paths.OutputDir, cfg.ReportFiles(), res.Tags, res.PortProtocols)
	if err != nil {
		return nil, err
	}
	res.Reports = paths
	res.Elapsed = time.Since(started)

	log.Info().
		Str("tag_report", paths.Tag).
		Str("port_protocol_report", paths.PortProtocol).
		Dur("elapsed", res.Elapsed).
		Msg("reports written")
	return res, nil
}

func loadRegistry(path string, res *Result) (*protocols.Registry, error) {
	if path == "" {
		reg := protocols.Builtin()
		res.BuiltinProtocols = true
		res.Protocols = reg.Len()
		return reg, nil
	}
	reg, err := protocols.Load(path)
	if err != nil {
		return nil, err
	}
	res.Protocols = reg.Len()
	return reg, nil
}
