package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"job-bot-go/internal/config"
	"job-bot-go/internal/jsearch"
	"job-bot-go/internal/models"
	"job-bot-go/internal/query"
	"job-bot-go/internal/storage"
)

func main() {
	var (
		configFile = flag.String("config", "config.json", "Configuration file path")
		command    = flag.String("cmd", "search", "Command to run: search, history, saved, clear, config")
		user       = flag.String("user", "cli", "User ID for stored data")
		q          = flag.String("q", "", "Search query, e.g. \"go developer --location berlin --limit 3\"")
		target     = flag.String("target", "", "What to clear: saved, history, all")
		output     = flag.String("output", "console", "Output format: console, json")
		verbose    = flag.Bool("verbose", false, "Verbose output")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	// Show help if requested
	if *help {
		printUsage()
		os.Exit(0)
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
	log.Logger = logger

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("could not load .env file")
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Execute command
	switch *command {
	case "search":
		runSearchCommand(ctx, cfg, *q, *output, logger)
	case "history":
		runHistoryCommand(ctx, cfg, *user, *output, logger)
	case "saved":
		runSavedCommand(ctx, cfg, *user, *output, logger)
	case "clear":
		runClearCommand(ctx, cfg, *user, *target, *output, logger)
	case "config":
		runConfigCommand(cfg, *output)
	default:
		fmt.Printf("Unknown command: %s\n", *command)
		printUsage()
		os.Exit(1)
	}
}

func runSearchCommand(ctx context.Context, cfg *config.Config, raw, output string, logger zerolog.Logger) {
	if err := cfg.ValidateSearch(); err != nil {
		log.Fatal().Err(err).Msg("configuration validation failed")
	}

	parsed := query.Parse(raw)
	if !parsed.Valid() {
		log.Fatal().Str("query", raw).Msg("please provide a job title or keywords with -q")
	}

	client := jsearch.NewClient(cfg.JSearch, logger)
	jobs, err := client.Search(ctx, parsed)
	if err != nil {
		log.Fatal().Err(err).Msg(jsearch.Describe(err))
	}

	if output == "json" {
		outputJSON(jobs)
		return
	}

	fmt.Printf("Found %d jobs for %q\n", len(jobs), parsed.Keywords)
	outputJobs(jobs)
}

func runHistoryCommand(ctx context.Context, cfg *config.Config, user, output string, logger zerolog.Logger) {
	store := openStore(cfg, logger)
	defer store.Close()

	entries, err := store.GetSearchHistory(ctx, user)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load search history")
	}

	if output == "json" {
		outputJSON(entries)
		return
	}

	fmt.Printf("=== Search History (%s) ===\n", user)
	for i, entry := range entries {
		fmt.Printf("%d. [%s] %s\n", i+1, entry.Timestamp.UTC().Format("2006-01-02 15:04"), entry.Query)
	}
}

func runSavedCommand(ctx context.Context, cfg *config.Config, user, output string, logger zerolog.Logger) {
	store := openStore(cfg, logger)
	defer store.Close()

	jobs, err := store.GetBookmarks(ctx, user)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load saved jobs")
	}

	if output == "json" {
		outputJSON(jobs)
		return
	}

	fmt.Printf("=== Saved Jobs (%s) ===\n", user)
	outputJobs(jobs)
}

func runClearCommand(ctx context.Context, cfg *config.Config, user, target, output string, logger zerolog.Logger) {
	store := openStore(cfg, logger)
	defer store.Close()

	result := map[string]int64{}
	switch target {
	case "saved":
		n, err := store.ClearBookmarks(ctx, user)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to clear saved jobs")
		}
		result["saved"] = n
	case "history":
		n, err := store.ClearSearchHistory(ctx, user)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to clear search history")
		}
		result["history"] = n
	case "all":
		saved, history, err := store.ClearAllUserData(ctx, user)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to clear user data")
		}
		result["saved"], result["history"] = saved, history
	default:
		fmt.Println("Use -target saved, history or all")
		os.Exit(1)
	}

	if output == "json" {
		outputJSON(result)
		return
	}
	for name, n := range result {
		fmt.Printf("Cleared %d %s entries\n", n, name)
	}
}

func runConfigCommand(cfg *config.Config, output string) {
	if output == "json" {
		masked := *cfg
		masked.Discord.Token = maskString(cfg.Discord.Token)
		masked.JSearch.APIKey = maskString(cfg.JSearch.APIKey)
		masked.Storage.SupabaseKey = maskString(cfg.Storage.SupabaseKey)
		outputJSON(masked)
		return
	}

	fmt.Println("Current Configuration:")
	fmt.Printf("Discord Token: %s\n", maskString(cfg.Discord.Token))
	fmt.Printf("Command Prefix: %s\n", cfg.Discord.Prefix)
	fmt.Printf("JSearch Key: %s\n", maskString(cfg.JSearch.APIKey))
	fmt.Printf("JSearch Timeout: %v\n", cfg.JSearch.RequestTimeout)
	fmt.Printf("Storage Driver: %s\n", cfg.Storage.Driver)
	fmt.Printf("Session Idle Timeout: %v\n", cfg.Session.IdleTimeout)
	fmt.Printf("Health Server Enabled: %t\n", cfg.Server.Enabled)
}

func openStore(cfg *config.Config, logger zerolog.Logger) storage.Store {
	store, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	return store
}

func outputJobs(jobs []models.Job) {
	for i, job := range jobs {
		fmt.Printf("%d. %s - %s\n", i+1, job.Title, job.EmployerName)
		if location := strings.Trim(strings.Join([]string{job.City, job.State, job.Country}, ", "), ", "); location != "" {
			fmt.Printf("   Location: %s\n", location)
		}
		if job.ApplyLink != "" {
			fmt.Printf("   Apply: %s\n", job.ApplyLink)
		}
	}
}

func outputJSON(data interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON")
	}
}

func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

func printUsage() {
	fmt.Println("Job Bot CLI Tool")
	fmt.Println("Usage:")
	fmt.Println("  jobbot-cli [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  -cmd search    - Search jobs without Discord")
	fmt.Println("  -cmd history   - Show a user's search history")
	fmt.Println("  -cmd saved     - Show a user's saved jobs")
	fmt.Println("  -cmd clear     - Clear a user's stored data")
	fmt.Println("  -cmd config    - Show configuration")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config string   - Configuration file (default: config.json)")
	fmt.Println("  -q string        - Search query with optional --location, --limit, --salary, --remote")
	fmt.Println("  -user string     - User ID for stored data (default: cli)")
	fmt.Println("  -target string   - What to clear: saved, history, all")
	fmt.Println("  -output string   - Output format: console, json (default: console)")
	fmt.Println("  -verbose         - Verbose output")
	fmt.Println("  -help            - Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  jobbot-cli -q \"python developer --location london --limit 3\"")
	fmt.Println("  jobbot-cli -cmd saved -user 123456789 -output json")
	fmt.Println("  jobbot-cli -cmd clear -user 123456789 -target history")
}
