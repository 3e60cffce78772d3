// cmd/tools/recommend-cli/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"libstatus-board/internal/common/config"
	"libstatus-board/internal/common/database"
	"libstatus-board/internal/common/logger"
	"libstatus-board/internal/models"

	sr "libstatus-board/internal/workers/ai-conversation/study-recommendation"
	ls "libstatus-board/internal/workers/data-access/location-status"
)

func main() {
	recommendCmd := flag.NewFlagSet("recommend", flag.ExitOnError)
	boardCmd := flag.NewFlagSet("board", flag.ExitOnError)
	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)

	// Recommend command flags
	noise := recommendCmd.String("noise", "", "Noise preference (e.g., silent, some-background, lively)")
	studyType := recommendCmd.String("study-type", "", "Study type (e.g., solo, group)")
	atmosphere := recommendCmd.String("atmosphere", "", "Atmosphere (e.g., cozy, modern, historic)")
	duration := recommendCmd.String("duration", "", "Session length (e.g., 1-2 hours)")
	needs := recommendCmd.String("needs", "", "Comma-separated needs (e.g., outlets,whiteboard)")
	snapshotPath := recommendCmd.String("snapshot", "", "Read live status from a JSON file instead of Redis")
	jsonOut := recommendCmd.Bool("json", false, "Print the raw result JSON")

	// Report command flags
	reportID := reportCmd.String("id", "", "Location ID (e.g., novack)")
	busyness := reportCmd.String("busyness", "", "empty, filling-up or packed")
	noiseLevel := reportCmd.String("noise", "", "silent, whispers or chatty")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Logging.Level, "console")
	ctx := context.Background()
	catalog := models.DefaultCatalog()

	switch os.Args[1] {
	case "recommend":
		recommendCmd.Parse(os.Args[2:])
		if cfg.APIs.GenAI.APIKey == "" {
			fmt.Println("Error: no model credential configured (set CLAUDE_API_KEY or apis.genai.api_key).")
			os.Exit(1)
		}

		var snapshot models.StatusSnapshot
		if *snapshotPath != "" {
			snapshot, err = readSnapshot(*snapshotPath)
		} else {
			snapshot, err = withStore(ctx, cfg, catalog, log, func(store *ls.Store) (models.StatusSnapshot, error) {
				return store.Snapshot(ctx)
			})
		}
		if err != nil {
			fmt.Printf("Error reading live status: %v\n", err)
			os.Exit(1)
		}

		profile := models.NewPreferenceProfile(*noise, *studyType, *atmosphere, *duration, splitList(*needs))
		handler := sr.NewHandler(sr.LoadConfig(cfg), catalog, &studyRecommendationLoggerAdapter{log})

		printSnapshot(os.Stdout, catalog, snapshot, ls.LoadConfig(cfg).StaleAfter, time.Now())
		fmt.Println("Asking for a recommendation...")

		result := handler.Recommend(ctx, profile, snapshot)
		if *jsonOut {
			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(out))
		} else {
			printResult(os.Stdout, catalog, result)
		}
		if !result.OK() {
			os.Exit(2)
		}

	case "board":
		boardCmd.Parse(os.Args[2:])
		views, err := withStore(ctx, cfg, catalog, log, func(store *ls.Store) ([]models.LocationView, error) {
			return store.Board(ctx, time.Now())
		})
		if err != nil {
			fmt.Printf("Error reading board: %v\n", err)
			os.Exit(1)
		}
		printBoard(os.Stdout, views)

	case "report":
		reportCmd.Parse(os.Args[2:])
		if *reportID == "" || (*busyness == "" && *noiseLevel == "") {
			fmt.Println("Error: id and at least one of busyness or noise are required for report.")
			reportCmd.Usage()
			os.Exit(1)
		}
		entry, err := withStore(ctx, cfg, catalog, log, func(store *ls.Store) (models.StatusEntry, error) {
			return store.Update(ctx, *reportID, models.StatusUpdate{Busyness: *busyness, Noise: *noiseLevel})
		})
		if err != nil {
			fmt.Printf("Error reporting status: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Reported %s: %s, %s\n", entry.Name, deref(entry.Busyness), deref(entry.Noise))

	case "help":
		fallthrough
	default:
		help()
	}
}

// withStore opens Redis for the duration of fn.
func withStore[T any](ctx context.Context, cfg *config.Config, catalog *models.Catalog, log logger.Logger, fn func(*ls.Store) (T, error)) (T, error) {
	var zero T
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return zero, err
	}
	defer rdb.Close()

	if err := rdb.Ping(ctx); err != nil {
		return zero, err
	}
	return fn(ls.NewStore(ls.LoadConfig(cfg), rdb.Client, catalog, log))
}

func readSnapshot(path string) (models.StatusSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snapshot models.StatusSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return snapshot, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printSnapshot(w io.Writer, catalog *models.Catalog, snapshot models.StatusSnapshot, staleAfter time.Duration, now time.Time) {
	fmt.Fprintln(w, "Live status:")
	for _, id := range catalog.SortedIDs() {
		entry, ok := snapshot[id]
		if !ok {
			continue
		}
		marker := ""
		if entry.IsStale(now, staleAfter) {
			marker = " (stale)"
		}
		fmt.Fprintf(w, "  %-22s %-11s %-9s %s%s\n", id, deref(entry.Busyness), deref(entry.Noise), entry.UpdatedAgo(now), marker)
	}
	fmt.Fprintln(w)
}

func printBoard(w io.Writer, views []models.LocationView) {
	for _, v := range views {
		marker := ""
		if v.Stale {
			marker = " (stale)"
		}
		fmt.Fprintf(w, "%-22s %-11s %-9s %s%s\n", v.Name, deref(v.Status.Busyness), deref(v.Status.Noise), v.UpdatedAgo, marker)
	}
}

func printResult(w io.Writer, catalog *models.Catalog, result models.Result) {
	if result.OK() {
		rec := result.Recommendation
		fmt.Fprintf(w, "Primary: %s\n  %s\n", displayName(catalog, rec.Primary.Location), rec.Primary.Reason)
		fmt.Fprintf(w, "Backup:  %s\n  %s\n", displayName(catalog, rec.Backup.Location), rec.Backup.Reason)
		if rec.Tip != "" {
			fmt.Fprintf(w, "Tip: %s\n", rec.Tip)
		}
		return
	}
	f := result.Failure
	fmt.Fprintf(w, "Recommendation failed: %s\n", f.Message)
	if f.Fallback != nil {
		fmt.Fprintf(w, "Fallback: %s\n  %s\n", displayName(catalog, f.Fallback.Primary.Location), f.Fallback.Primary.Reason)
	}
}

func displayName(catalog *models.Catalog, id string) string {
	if p, ok := catalog.Get(id); ok && p.Name != "" {
		return fmt.Sprintf("%s (%s)", p.Name, id)
	}
	return id
}

func deref[T ~string](v *T) string {
	if v == nil {
		return "-"
	}
	return string(*v)
}

type studyRecommendationLoggerAdapter struct {
	logger.Logger
}

func (a *studyRecommendationLoggerAdapter) With(fields map[string]interface{}) sr.Logger {
	return &studyRecommendationLoggerAdapter{a.Logger.With(fields)}
}

func help() {
	fmt.Println(`
Usage: recommend-cli <command> [flags]

Commands:
  recommend  Ask for a study spot recommendation
  board      Print the live status board
  report     Report how busy and loud a location is
  help       Show this help message

Examples:
  recommend-cli recommend -noise silent -study-type solo -atmosphere cozy -duration "2-4 hours" -needs outlets,whiteboard
  recommend-cli recommend -noise lively -study-type group -snapshot snapshot.json -json
  recommend-cli report -id novack -busyness packed -noise chatty
  recommend-cli board

Use 'recommend-cli <command> -h' for more information about a command.`)
}
