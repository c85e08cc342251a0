package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/peakgeo/sentinel-agent/internal/evaluation"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/openai"
	"github.com/peakgeo/sentinel-agent/pkg/config"
)

// Runs the golden prompt set against the live model and reports how often it
// picks the right tool with usable arguments. No tool is ever executed, so a
// run costs one completion per prompt and touches nothing besides the model
// API.
func main() {
	var goldenPath string
	var model string

	flag.StringVar(&goldenPath, "golden", "config/golden_prompts.json", "Path to the golden prompt set")
	flag.StringVar(&model, "model", "", "Override the configured model")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.OpenAI.APIKey == "" {
		log.Fatalf("OPENAI_API_KEY is required for evaluation")
	}
	if model != "" {
		cfg.OpenAI.Model = model
	}

	client, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("Failed to initialize OpenAI client: %v", err)
	}
	defer client.Close()

	prompts, err := evaluation.LoadGoldenPrompts(goldenPath)
	if err != nil {
		log.Fatalf("Failed to load golden prompts: %v", err)
	}
	if err := evaluation.ValidateGoldenPrompts(prompts); err != nil {
		log.Fatalf("Invalid golden prompts: %v", err)
	}

	log.Printf("Evaluating %d prompts against %s", len(prompts), cfg.OpenAI.Model)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := evaluation.NewRunner(client)
	summary, err := runner.Run(ctx, prompts)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
