package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/suparena/docstore"
	"github.com/suparena/docstore/datastore/ddb"
)

var (
	versionFlag    = flag.Bool("version", false, "Show version information")
	vFlag          = flag.Bool("v", false, "Show version information (short)")
	configFlag     = flag.String("config", "docstore.yaml", "Path to the store configuration file")
	collectionFlag = flag.String("collection", "", "Collection to provision")
)

func main() {
	// Parse flags early to catch version flag
	flag.Parse()

	// Handle version flag
	if *versionFlag || *vFlag {
		info := docstore.GetVersionInfo()
		fmt.Printf("Docstore provision version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	// Local development credentials, if present
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *collectionFlag == "" {
		logger.Fatal("missing required -collection flag")
	}

	cfg, err := ddb.LoadConfig(*configFlag)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	client, err := ddb.NewClient(ctx,
		os.Getenv("AWS_ACCESS_KEY_ID"),
		os.Getenv("AWS_SECRET_ACCESS_KEY"),
		os.Getenv("AWS_REGION"),
	)
	if err != nil {
		logger.Fatal("failed to create client", zap.Error(err))
	}

	if err := ddb.EnsureCollection(ctx, client, cfg, *collectionFlag, logger); err != nil {
		logger.Fatal("failed to provision collection",
			zap.String("collection", *collectionFlag),
			zap.Error(err),
		)
	}

	logger.Info("collection provisioned",
		zap.String("database", cfg.DatabaseName),
		zap.String("collection", *collectionFlag),
	)
}
