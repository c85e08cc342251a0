package evaluation

import (
	"context"
	"time"

	"github.com/peakgeo/sentinel-agent/internal/application/services"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
)

// Runner scores the model's first tool decision for each golden prompt. Only
// one completion runs per prompt: the production system prompt plus the user
// prompt, with the production tool specs attached. Tools are never executed.
type Runner struct {
	completer    providers.ChatCompleter
	tools        []providers.ToolSpec
	systemPrompt string
}

func NewRunner(completer providers.ChatCompleter) *Runner {
	return &Runner{
		completer:    completer,
		tools:        services.AgentToolSpecs(),
		systemPrompt: services.AgentSystemPrompt(),
	}
}

func (r *Runner) Run(ctx context.Context, prompts []GoldenPrompt) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalPrompts: len(prompts),
		ByTool:       make(map[string]*ToolSummary),
	}

	for _, gp := range prompts {
		messages := []providers.ChatMessage{
			{Role: providers.RoleSystem, Content: r.systemPrompt},
			{Role: providers.RoleUser, Content: gp.Prompt},
		}

		start := time.Now()
		turn, err := r.completer.Complete(ctx, messages, r.tools)
		duration := time.Since(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		result := EvalResult{
			PromptID:     gp.ID,
			Prompt:       gp.Prompt,
			ExpectedTool: gp.ExpectedTool,
			Latency:      duration,
		}

		if len(turn.ToolCalls) > 0 {
			call := turn.ToolCalls[0]
			result.ActualTool = call.Name
			result.Violations = ArgumentViolations(call.Name, call.Arguments)
			if call.Name == gp.ExpectedTool {
				result.ToolCorrect = true
				result.ArgMatch = ArgMatchRate(gp.ExpectedArgs, call.Arguments)
			}
		} else if gp.ExpectedTool == "" {
			result.ToolCorrect = true
			result.ArgMatch = 1.0
		}

		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	if res.ToolCorrect {
		s.ToolAccuracy++
	}
	s.AvgArgMatch += res.ArgMatch
	s.AvgLatency += res.Latency
	s.ViolationCount += len(res.Violations)

	if _, ok := s.ByTool[res.ExpectedTool]; !ok {
		s.ByTool[res.ExpectedTool] = &ToolSummary{}
	}
	ts := s.ByTool[res.ExpectedTool]
	ts.Count++
	if res.ToolCorrect {
		ts.ToolAccuracy++
	}
	ts.AvgArgMatch += res.ArgMatch
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalPrompts > 0 {
		n := float64(s.TotalPrompts)
		s.ToolAccuracy /= n
		s.AvgArgMatch /= n
		s.AvgLatency /= time.Duration(s.TotalPrompts)
	}

	for _, ts := range s.ByTool {
		if ts.Count > 0 {
			n := float64(ts.Count)
			ts.ToolAccuracy /= n
			ts.AvgArgMatch /= n
		}
	}
}
