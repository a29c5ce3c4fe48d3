package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"internscan/internal/config"
	"internscan/internal/pipeline"
	"internscan/internal/publish"
	"internscan/internal/secrets"
	"internscan/internal/store"
)

func main() {
	history := flag.Int("history", 0, "print the last N runs from the ledger and exit")
	setIMAPPassword := flag.Bool("set-imap-password", false, "store the IMAP password in the OS keychain and exit")
	flag.Parse()

	_ = godotenv.Load() // optional .env, same vars as the environment

	// Data dir: env if provided (cron units pass one), else local folder.
	dataDir := os.Getenv("INTERNSCAN_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	if err := config.OverlayRepos(&cfg, filepath.Join(dataDir, "repos.yml")); err != nil {
		log.Fatalf("repos overlay failed: %v", err)
	}

	cfg, validation := config.NormalizeAndValidate(cfg)
	for _, w := range validation.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !validation.OK() {
		for _, e := range validation.Errors {
			log.Printf("[config] error: %s", e)
		}
		os.Exit(1)
	}

	if *setIMAPPassword {
		if err := storeIMAPPassword(cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	db, err := store.Open(filepath.Join(dataDir, "internscan.db"))
	if err != nil {
		// The ledger is diagnostic; a scan still runs without one.
		log.Printf("[store] unavailable, continuing without run ledger: %v", err)
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	if *history > 0 {
		if db == nil {
			log.Fatal("run ledger unavailable")
		}
		printHistory(db, *history)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := pipeline.Run(ctx, cfg, db, publish.New(cfg))
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	if stats.Committed {
		log.Printf("done: +%d new, %d updated, %d total (push attempt %d)",
			stats.Merge.Added, stats.Merge.Updated, stats.Merge.Total, stats.Attempts)
	} else {
		log.Printf("done: dataset already up to date (%d total)", stats.Merge.Total)
	}
}

func storeIMAPPassword(cfg config.Config) error {
	fmt.Fprintf(os.Stderr, "IMAP password for %s: ", secrets.IMAPKeyringAccount(cfg))
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return err
	}
	if err := secrets.SetIMAPPassword(cfg, strings.TrimSpace(line)); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "stored")
	return nil
}

func printHistory(db *store.DB, n int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runs, err := db.RecentRuns(ctx, n)
	if err != nil {
		log.Fatalf("run ledger: %v", err)
	}
	for _, r := range runs {
		state := "no-op"
		if r.Committed {
			state = "pushed"
		} else if r.Err != "" {
			state = "failed"
		}
		fmt.Printf("#%d %s %s +%d/%d (%d total, %d attempts)\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04"), state,
			r.Added, r.Updated, r.Total, r.Attempts)
		for _, s := range r.Sources {
			if s.Err != "" {
				fmt.Printf("   %s: ERROR %s\n", s.Source, s.Err)
			} else {
				fmt.Printf("   %s: %d fetched\n", s.Source, s.Fetched)
			}
		}
		if r.Err != "" {
			fmt.Printf("   error: %s\n", r.Err)
		}
	}
}
