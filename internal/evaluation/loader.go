package evaluation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/peakgeo/sentinel-agent/internal/application/services"
)

// LoadGoldenPrompts reads and parses a golden prompt set from a JSON file.
func LoadGoldenPrompts(path string) ([]GoldenPrompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden prompts file: %w", err)
	}

	var prompts []GoldenPrompt
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse golden prompts: %w", err)
	}

	return prompts, nil
}

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

var validTools = map[string]bool{
	"":                                      true, // direct reply, no tool expected
	string(services.ToolGeocodeLocation):    true,
	string(services.ToolDownloadRadar):      true,
	string(services.ToolDownloadOptical):    true,
	string(services.ToolSearchSceneArchive): true,
}

// ValidateGoldenPrompts checks that all golden prompts have required fields and valid values.
func ValidateGoldenPrompts(prompts []GoldenPrompt) error {
	seen := make(map[string]struct{}, len(prompts))

	for i, p := range prompts {
		if p.ID == "" {
			return fmt.Errorf("prompt at index %d: missing id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("prompt at index %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}

		if p.Prompt == "" {
			return fmt.Errorf("prompt %q: missing prompt text", p.ID)
		}
		if !validTools[p.ExpectedTool] {
			return fmt.Errorf("prompt %q: unknown expected tool %q", p.ID, p.ExpectedTool)
		}
		if !validDifficulties[p.Difficulty] {
			return fmt.Errorf("prompt %q: invalid difficulty %q (must be easy/medium/hard)", p.ID, p.Difficulty)
		}
		if p.ExpectedTool == "" && len(p.ExpectedArgs) > 0 {
			return fmt.Errorf("prompt %q: expected args without an expected tool", p.ID)
		}
	}

	return nil
}
