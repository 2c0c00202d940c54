package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/clubpulse/lead-conversion-backend/internal/config"
	"github.com/clubpulse/lead-conversion-backend/internal/database"
)

type options struct {
	databaseURL string
	yes         bool
	help        bool
}

func parseFlags(args []string) (*options, *pflag.FlagSet, error) {
	opts := &options{}
	flagSet := pflag.NewFlagSet("clear-data", pflag.ContinueOnError)
	flagSet.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flagSet.BoolVarP(&opts.yes, "yes", "y", false, "skip the confirmation prompt")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			opts.help = true
			return opts, flagSet, nil
		}
		return nil, flagSet, err
	}
	return opts, flagSet, nil
}

func main() {
	opts, flagSet, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if opts.help {
		fmt.Fprintln(os.Stderr, "clear-data truncates every table in the configured PostgreSQL database.")
		fmt.Fprintln(os.Stderr, "\nUsage:\n  clear-data [--database-url URL] [--yes]\n\nFlags:")
		flagSet.PrintDefaults()
		return
	}

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := opts.databaseURL
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and --database-url was not provided")
	}

	if !opts.yes && !confirm() {
		fmt.Println("Aborted.")
		return
	}

	// Build minimal database config without loading full app config
	dbCfg := config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Println("Connected to database. Truncating tables...")
	if err := database.ClearAll(ctx, db.DB); err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println("All data cleared successfully.")

	fmt.Println("Post-clear row counts:")
	for _, t := range database.Tables {
		var count int
		if err := db.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", t)); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}

func confirm() bool {
	fmt.Print("This deletes every club, staff member, plan, lead and subscription. Type 'yes' to continue: ")
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(answer) == "yes"
}
