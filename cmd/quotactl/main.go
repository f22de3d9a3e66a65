package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"photo-ingest/internal/catalog"

	"golang.org/x/term"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("quotactl", flag.ContinueOnError)
	dbDir := fs.String("db", "", "database directory (default: DATABASE_DIR env or /database)")
	owner := fs.String("owner", "", "quota account owner (required)")
	limit := fs.Int64("limit", -1, "set the account limit in bytes")
	show := fs.Bool("show", false, "show current usage and limit")
	resetUsed := fs.Bool("reset-used", false, "zero the account's usage counter")
	fs.Usage = printUsage(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *owner == "" {
		fmt.Fprintln(os.Stderr, "Error: -owner is required")
		fs.Usage()
		return 2
	}
	if !*show && *limit < 0 && !*resetUsed {
		fmt.Fprintln(os.Stderr, "Error: nothing to do; pass -show, -limit, or -reset-used")
		fs.Usage()
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	databaseDir := *dbDir
	if databaseDir == "" {
		databaseDir = os.Getenv("DATABASE_DIR")
	}
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	dbPath := filepath.Join(databaseDir, "ingest.db")

	cat, err := catalog.Open(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open catalog: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure the database directory is correct (current: %s)\n", databaseDir)
		return 1
	}
	defer func() {
		if err := cat.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close catalog: %v\n", err)
		}
	}()

	ctx, opCancel := context.WithTimeout(ctx, defaultTimeout)
	defer opCancel()

	if *limit >= 0 {
		if !setLimit(ctx, cat, *owner, *limit) {
			return 1
		}
	}

	if *resetUsed {
		if !resetUsage(ctx, cat, *owner) {
			return 1
		}
	}

	if *show || (*limit < 0 && !*resetUsed) {
		if !showAccount(ctx, cat, *owner) {
			return 1
		}
	}
	return 0
}

func printUsage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintln(os.Stderr, "Photo Ingest Quota Management")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: quotactl -owner <owner> [-db <dir>] [-show] [-limit <bytes>] [-reset-used]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Environment:")
		fmt.Fprintf(os.Stderr, "  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
	}
}

func showAccount(ctx context.Context, cat *catalog.Catalog, owner string) bool {
	account, err := cat.QuotaUsage(ctx, owner)
	if errors.Is(err, catalog.ErrNoQuotaAccount) {
		fmt.Fprintf(os.Stderr, "Error: No quota account for %s\n", owner)
		return false
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read quota account: %v\n", err)
		return false
	}

	fmt.Printf("Owner:  %s\n", account.Owner)
	fmt.Printf("Used:   %d bytes\n", account.UsedBytes)
	fmt.Printf("Limit:  %d bytes\n", account.LimitBytes)
	if account.LimitBytes > 0 {
		fmt.Printf("Usage:  %.1f%%\n", float64(account.UsedBytes)/float64(account.LimitBytes)*100)
	}
	return true
}

func setLimit(ctx context.Context, cat *catalog.Catalog, owner string, limit int64) bool {
	// Create the account at this limit if it does not exist yet.
	if err := cat.EnsureAccount(ctx, owner, limit); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to ensure quota account: %v\n", err)
		return false
	}
	if err := cat.SetQuotaLimit(ctx, owner, limit); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to set limit: %v\n", err)
		return false
	}
	fmt.Printf("Limit for %s set to %d bytes.\n", owner, limit)
	return true
}

func resetUsage(ctx context.Context, cat *catalog.Catalog, owner string) bool {
	// Resetting usage makes the accounting disagree with stored blobs
	// until a rebuild, so ask first when a human is driving.
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Printf("Reset usage counter for %s? This does not delete any blobs. [y/N]: ", owner)
		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading confirmation: %v\n", err)
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return false
		}
	}

	if err := cat.ResetUsed(ctx, owner); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to reset usage: %v\n", err)
		return false
	}
	fmt.Printf("Usage counter for %s reset to 0.\n", owner)
	return true
}
