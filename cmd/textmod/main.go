package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sboissel/moderation-batch/internal/batch"
	"github.com/sboissel/moderation-batch/internal/common"
	"github.com/sboissel/moderation-batch/internal/moderation"
)

func main() {
	// Best effort; configuration may come from the process environment.
	_ = godotenv.Load(".env")

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	client := moderation.NewClient(moderation.Config{
		APIKey:          cfg.API.APIKey,
		SubmitURL:       cfg.API.SubmitURL,
		PollURL:         cfg.API.PollURL,
		PollInterval:    cfg.API.PollInterval,
		MaxPollAttempts: cfg.API.MaxPollAttempts,
		Timeout:         cfg.API.Timeout,
	}, logger)

	ctx := context.Background()
	in := bufio.NewReader(os.Stdin)

	fmt.Println("Choose an option:")
	fmt.Println("1. Process a complete file")
	fmt.Println("2. Test a single input manually")
	fmt.Print("Your choice (1 or 2): ")

	switch readLine(in) {
	case "1":
		fmt.Print("Enter the path to the input Excel file: ")
		path := readLine(in)
		runBatch(ctx, client, cfg, path, logger)
	case "2":
		fmt.Print("Enter the text to moderate: ")
		text := readLine(in)
		runSingle(ctx, client, cfg, text)
	default:
		fmt.Println("Invalid choice. Please restart the program.")
	}
}

func runBatch(ctx context.Context, client *moderation.Client, cfg *common.Config, path string, logger *slog.Logger) {
	runner := batch.NewRunner(client, batch.Config{
		RejectionThreshold: cfg.Moderation.RejectionThreshold,
		OutputPath:         cfg.Batch.OutputPath,
	}, logger)

	stats, err := runner.Run(ctx, path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Results saved to %s (%d rows, %d errors)\n", cfg.Batch.OutputPath, stats.Rows, stats.Errors)
}

func runSingle(ctx context.Context, client *moderation.Client, cfg *common.Config, text string) {
	res, err := client.Moderate(ctx, text)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	out := moderation.Interpret(res, cfg.Moderation.RejectionThreshold)

	fmt.Println("\n--- Results ---")
	fmt.Printf("Rejection Chance: %.2f%%\n", out.RejectionPercentage)
	fmt.Printf("Category: %s\n", out.Category)
	fmt.Printf("Status: %s\n", out.Status)
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
