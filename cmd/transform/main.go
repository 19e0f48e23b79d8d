package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/aluiziolira/go-books-insights/config"
	"github.com/aluiziolira/go-books-insights/dataset"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	defaultPath := config.DefaultServerConfig().DataPath
	outDefault := defaultPath
	if value, ok := config.EnvString("BOOKS_CSV_PATH"); ok {
		outDefault = value
	}
	inDefault := outDefault
	if value, ok := config.EnvString("BOOKS_RAW_PATH"); ok {
		inDefault = value
	}

	in := flag.String("in", inDefault, "Raw scrape CSV to normalize")
	out := flag.String("out", outDefault, "Canonical CSV to write (replaced atomically)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	start := time.Now()
	table, err := dataset.NewSource(*in).Table()
	if err != nil {
		logger.Error("load failed", slog.String("path", *in), slog.Any("error", err))
		os.Exit(1)
	}
	if err := dataset.WriteFile(*out, table); err != nil {
		logger.Error("write failed", slog.String("path", *out), slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("transform complete",
		slog.String("in", *in),
		slog.String("out", *out),
		slog.Int("rows", table.Len()),
		slog.Duration("duration", time.Since(start)),
	)
}
