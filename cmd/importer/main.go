package main

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"storefront/internal/importer"

	"github.com/rs/zerolog"
)

func main() {
	var (
		filePath string
		dump     bool
	)
	flag.StringVar(&filePath, "file", "", "Path to product catalog CSV export")
	flag.BoolVar(&dump, "dump", false, "Print the parsed catalog as JSON")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("cmd", "importer").Logger()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	start := time.Now()
	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open file")
	}
	defer f.Close()

	products, err := importer.NewCSVReader(f).Read()
	if err != nil {
		logger.Fatal().Err(err).Str("file", filePath).Msg("catalog invalid")
	}

	variants := 0
	for _, p := range products {
		variants += len(p.Variants)
	}
	logger.Info().
		Int("products", len(products)).
		Int("variants", variants).
		Dur("took", time.Since(start).Truncate(time.Millisecond)).
		Msg("catalog ok")

	if dump {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(products); err != nil {
			logger.Fatal().Err(err).Msg("encode catalog")
		}
	}
}
