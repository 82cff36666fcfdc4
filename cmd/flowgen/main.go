package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"flowtagger/internal/generator"
	"flowtagger/internal/logger"

	"github.com/dustin/go-humanize"
)

func main() {
	records := flag.Int("records", 100000, "Number of flow log records to generate")
	size := flag.String("size", "", "Generate flow log records until this size is reached (e.g. 10MB); overrides -records")
	entries := flag.Int("lookup-entries", 10000, "Number of lookup table rows to generate")
	outDir := flag.String("out", "data", "Output directory")
	seed := flag.Int64("seed", 0, "Random seed (0 uses the current time)")
	flag.Parse()

	log := logger.Init(logger.Options{App: "flowgen"})

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("create output directory")
	}

	logPath := filepath.Join(*outDir, "flow_log.txt")
	lf, err := os.Create(logPath)
	if err != nil {
		log.Fatal().Err(err).Msg("create flow log")
	}
	if *size != "" {
		target, err := humanize.ParseBytes(*size)
		if err != nil {
			lf.Close()
			log.Fatal().Err(err).Str("size", *size).Msg("parse size")
		}
		n, err := generator.WriteFlowLogSize(lf, r, int64(target))
		if err != nil {
			lf.Close()
			log.Fatal().Err(err).Msg("write flow log")
		}
		*records = n
	} else if _, err := generator.WriteFlowLog(lf, r, *records); err != nil {
		lf.Close()
		log.Fatal().Err(err).Msg("write flow log")
	}
	if err := lf.Close(); err != nil {
		log.Fatal().Err(err).Msg("close flow log")
	}

	tablePath := filepath.Join(*outDir, "lookup_table.csv")
	tf, err := os.Create(tablePath)
	if err != nil {
		log.Fatal().Err(err).Msg("create lookup table")
	}
	if err := generator.WriteLookupTable(tf, r, *entries); err != nil {
		tf.Close()
		log.Fatal().Err(err).Msg("write lookup table")
	}
	if err := tf.Close(); err != nil {
		log.Fatal().Err(err).Msg("close lookup table")
	}

	fmt.Printf("Generated %d flow log records in %s\n", *records, logPath)
	fmt.Printf("Generated %d mappings in %s\n", *entries, tablePath)
}
