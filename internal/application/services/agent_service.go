package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	"github.com/peakgeo/sentinel-agent/internal/domain/repositories"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

// maxAgentIterations bounds the tool loop. Each iteration is one model
// completion; a run that still wants tools after the last one is cut off.
const maxAgentIterations = 5

const agentSystemPrompt = `You are a helpful satellite data assistant. You can help users download Sentinel-1 (radar) and Sentinel-2 (optical) imagery.

WORKFLOW:
1. If the user names a place instead of coordinates, call geocode_location FIRST
2. Wait for the geocoding result and extract the latitude and longitude from it
3. Call download_radar_scene or download_optical_scene with those coordinates
4. Summarize the outcome for the user

Satellite selection:
- "SAR", "radar" or "Sentinel-1" means download_radar_scene
- "optical", "RGB" or "Sentinel-2" means download_optical_scene
- If the user does not specify, ask which one they want

Previously downloaded scenes can be looked up with search_scene_archive.

If no date is given, use 2023-06-01.
Respond in the user's language.`

// ToolKind identifies one callable agent tool.
type ToolKind string

const (
	ToolGeocodeLocation    ToolKind = "geocode_location"
	ToolDownloadRadar      ToolKind = "download_radar_scene"
	ToolDownloadOptical    ToolKind = "download_optical_scene"
	ToolSearchSceneArchive ToolKind = "search_scene_archive"
)

// GeocodeArgs are the model-supplied arguments for geocode_location.
type GeocodeArgs struct {
	LocationQuery string `json:"location_query"`
}

// DownloadArgs are the model-supplied arguments for both download tools.
// SaveDir is optional; empty falls back to the configured default.
type DownloadArgs struct {
	Lon     float64 `json:"lon"`
	Lat     float64 `json:"lat"`
	DateStr string  `json:"date_str"`
	SaveDir string  `json:"save_dir,omitempty"`
}

// ArchiveSearchArgs are the model-supplied arguments for search_scene_archive.
type ArchiveSearchArgs struct {
	Query      string `json:"query"`
	Collection string `json:"collection,omitempty"`
}

// ChatResult is the outcome of one agent run: the final reply, the full
// message list for the caller to keep as history, and which tools ran.
type ChatResult struct {
	Reply        string                  `json:"reply"`
	Messages     []providers.ChatMessage `json:"messages"`
	ToolsInvoked []string                `json:"tools_invoked,omitempty"`
	Iterations   int                     `json:"iterations"`
}

// AgentService runs the chat agent: a bounded completion loop where the model
// may call scene and geocoding tools before producing its reply.
type AgentService struct {
	completer   providers.ChatCompleter
	scenes      *SceneService
	geocoder    *GeocodeService
	transcripts *TranscriptService
}

// NewAgentService creates an agent service. The transcript service is
// optional; passing nil disables persistence.
func NewAgentService(
	completer providers.ChatCompleter,
	scenes *SceneService,
	geocoder *GeocodeService,
	transcripts *TranscriptService,
) *AgentService {
	return &AgentService{
		completer:   completer,
		scenes:      scenes,
		geocoder:    geocoder,
		transcripts: transcripts,
	}
}

// Chat runs one agent turn. history carries the caller's prior conversation
// and is not mutated; the returned Messages slice is the state to pass back
// on the next turn.
func (s *AgentService) Chat(ctx context.Context, history []providers.ChatMessage, userMessage string) (*ChatResult, error) {
	if s.completer == nil {
		return nil, apperrors.NewInternalError("chat model is not configured", nil)
	}
	if strings.TrimSpace(userMessage) == "" {
		return nil, apperrors.NewValidationError("message must not be empty")
	}

	// A round-tripped Messages slice starts with the system prompt; drop it
	// so the prompt never doubles.
	if len(history) > 0 && history[0].Role == providers.RoleSystem {
		history = history[1:]
	}

	messages := make([]providers.ChatMessage, 0, len(history)+2)
	messages = append(messages, providers.ChatMessage{Role: providers.RoleSystem, Content: agentSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, providers.ChatMessage{Role: providers.RoleUser, Content: userMessage})

	var toolsInvoked []string
	iterations := 0

	for iterations < maxAgentIterations {
		iterations++

		turn, err := s.completer.Complete(ctx, messages, agentToolSpecs())
		if err != nil {
			return nil, apperrors.NewExternalError("chat completion failed", err)
		}

		if len(turn.ToolCalls) == 0 {
			messages = append(messages, providers.ChatMessage{Role: providers.RoleAssistant, Content: turn.Content})
			result := &ChatResult{
				Reply:        turn.Content,
				Messages:     messages,
				ToolsInvoked: toolsInvoked,
				Iterations:   iterations,
			}
			s.recordExchange(ctx, userMessage, result)
			return result, nil
		}

		messages = append(messages, providers.ChatMessage{
			Role:      providers.RoleAssistant,
			Content:   turn.Content,
			ToolCalls: turn.ToolCalls,
		})

		for _, call := range turn.ToolCalls {
			toolsInvoked = append(toolsInvoked, call.Name)
			messages = append(messages, providers.ChatMessage{
				Role:       providers.RoleTool,
				ToolCallID: call.ID,
				Content:    s.dispatchTool(ctx, call),
			})
		}
	}

	// The model asked for tools on every allowed completion. Stop here
	// rather than looping forever on a confused run.
	reply := "I could not finish this request within the allowed number of steps. Please try a more specific question."
	messages = append(messages, providers.ChatMessage{Role: providers.RoleAssistant, Content: reply})
	result := &ChatResult{
		Reply:        reply,
		Messages:     messages,
		ToolsInvoked: toolsInvoked,
		Iterations:   iterations,
	}
	s.recordExchange(ctx, userMessage, result)
	return result, nil
}

// dispatchTool decodes the call's arguments into the matching typed record
// and runs the tool. Bad tool names and undecodable arguments come back as
// result text for the model to read; a tool call never faults the loop.
func (s *AgentService) dispatchTool(ctx context.Context, call providers.ToolInvocation) string {
	switch ToolKind(call.Name) {
	case ToolGeocodeLocation:
		var args GeocodeArgs
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return fmt.Sprintf("Invalid arguments for %s: %v", call.Name, err)
		}
		return s.geocoder.ResolveText(ctx, args.LocationQuery)

	case ToolDownloadRadar:
		return s.runDownload(ctx, entities.CollectionRadar, call)

	case ToolDownloadOptical:
		return s.runDownload(ctx, entities.CollectionOptical, call)

	case ToolSearchSceneArchive:
		var args ArchiveSearchArgs
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return fmt.Sprintf("Invalid arguments for %s: %v", call.Name, err)
		}
		return s.searchArchiveText(ctx, args)

	default:
		return fmt.Sprintf("Unknown tool: %s", call.Name)
	}
}

func (s *AgentService) runDownload(ctx context.Context, collection entities.Collection, call providers.ToolInvocation) string {
	var args DownloadArgs
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return fmt.Sprintf("Invalid arguments for %s: %v", call.Name, err)
	}

	date, err := time.Parse("2006-01-02", args.DateStr)
	if err != nil {
		return fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD.", args.DateStr)
	}

	report, err := s.scenes.Download(ctx, entities.SceneQuery{
		Collection: collection,
		Longitude:  args.Lon,
		Latitude:   args.Lat,
		Date:       date,
		SaveDir:    args.SaveDir,
	})
	if err != nil {
		return fmt.Sprintf("Download error: %v", err)
	}
	return report.Message
}

func (s *AgentService) searchArchiveText(ctx context.Context, args ArchiveSearchArgs) string {
	scenes, err := s.scenes.SearchArchive(ctx, repositories.ArchiveQuery{
		Query:      args.Query,
		Collection: args.Collection,
	})
	if err != nil {
		return fmt.Sprintf("Archive search error: %v", err)
	}
	if len(scenes) == 0 {
		return "No archived scenes matched."
	}

	lines := make([]string, 0, len(scenes)+1)
	lines = append(lines, fmt.Sprintf("Found %d archived scene(s):", len(scenes)))
	for _, scene := range scenes {
		acquired := "unknown"
		if scene.Acquired > 0 {
			acquired = time.Unix(scene.Acquired, 0).UTC().Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("  %s (%s, acquired %s, %d file(s))",
			scene.SceneID, scene.Mission, acquired, len(scene.Paths)))
	}
	return strings.Join(lines, "\n")
}

// recordExchange persists the finished turn. Best-effort: a transcript
// failure never fails the chat.
func (s *AgentService) recordExchange(ctx context.Context, userMessage string, result *ChatResult) {
	if s.transcripts == nil {
		return
	}

	exchange := &entities.AgentExchange{
		ID:           uuid.New().String(),
		UserMessage:  userMessage,
		Reply:        result.Reply,
		ToolsInvoked: result.ToolsInvoked,
		Iterations:   result.Iterations,
		CreatedAt:    time.Now(),
	}
	if err := s.transcripts.Record(ctx, exchange); err != nil {
		log.Printf("Warning: failed to record chat transcript: %v", err)
	}
}

// AgentToolSpecs exposes the tool declarations for offline evaluation runs.
func AgentToolSpecs() []providers.ToolSpec {
	return agentToolSpecs()
}

// AgentSystemPrompt exposes the production system prompt for offline
// evaluation runs.
func AgentSystemPrompt() string {
	return agentSystemPrompt
}

// agentToolSpecs declares the callable tools. The schemas mirror the typed
// argument records exactly.
func agentToolSpecs() []providers.ToolSpec {
	return []providers.ToolSpec{
		{
			Name:        string(ToolGeocodeLocation),
			Description: "Convert a place name or address to latitude and longitude.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"location_query": {"type": "string", "description": "Place name or address, e.g. 'Gwangan Bridge, Busan'"}
				},
				"required": ["location_query"]
			}`),
		},
		{
			Name:        string(ToolDownloadRadar),
			Description: "Find the Sentinel-1 radar scene closest to a date at the given coordinates and download its VV and VH polarization assets.",
			Schema:      downloadToolSchema,
		},
		{
			Name:        string(ToolDownloadOptical),
			Description: "Find the clearest Sentinel-2 optical scene near a date at the given coordinates and download its RGB assets.",
			Schema:      downloadToolSchema,
		},
		{
			Name:        string(ToolSearchSceneArchive),
			Description: "Search scenes that were already downloaded, by scene id or mission text.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Free-text match against scene id and mission"},
					"collection": {"type": "string", "enum": ["radar", "optical"], "description": "Optional mission family filter"}
				},
				"required": ["query"]
			}`),
		},
	}
}

// downloadToolSchema is shared by both download tools; they differ only in
// which mission they target.
var downloadToolSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"lon": {"type": "number", "description": "Longitude in decimal degrees"},
		"lat": {"type": "number", "description": "Latitude in decimal degrees"},
		"date_str": {"type": "string", "description": "Target date as YYYY-MM-DD"},
		"save_dir": {"type": "string", "description": "Optional download directory"}
	},
	"required": ["lon", "lat", "date_str"]
}`)
