package evaluation

import "time"

// GoldenPrompt represents a labeled chat prompt with its expected tool
// routing. ExpectedTool empty means the model should answer directly without
// calling any tool.
type GoldenPrompt struct {
	ID           string            `json:"id"`
	Prompt       string            `json:"prompt"`
	ExpectedTool string            `json:"expected_tool"`
	ExpectedArgs map[string]string `json:"expected_args,omitempty"`
	Difficulty   string            `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single prompt.
type EvalResult struct {
	PromptID     string
	Prompt       string
	ExpectedTool string
	ActualTool   string
	ToolCorrect  bool
	ArgMatch     float64
	Violations   []string
	Latency      time.Duration
}

// EvalSummary holds aggregate metrics across all golden prompts.
type EvalSummary struct {
	TotalPrompts   int
	ToolAccuracy   float64
	AvgArgMatch    float64
	AvgLatency     time.Duration
	ViolationCount int // arguments that parsed but broke a declared range
	ByTool         map[string]*ToolSummary
}

// ToolSummary holds metrics grouped by expected tool.
type ToolSummary struct {
	Count        int
	ToolAccuracy float64
	AvgArgMatch  float64
}
