package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

// scriptedCompleter plays back a fixed sequence of model turns, recording
// what it was asked each time.
type scriptedCompleter struct {
	turns    []*providers.ChatTurn
	err      error
	requests [][]providers.ChatMessage
	tools    []providers.ToolSpec
}

func (c *scriptedCompleter) Complete(ctx context.Context, messages []providers.ChatMessage, tools []providers.ToolSpec) (*providers.ChatTurn, error) {
	snapshot := make([]providers.ChatMessage, len(messages))
	copy(snapshot, messages)
	c.requests = append(c.requests, snapshot)
	c.tools = tools

	if c.err != nil {
		return nil, c.err
	}

	turn := c.turns[0]
	if len(c.turns) > 1 {
		c.turns = c.turns[1:]
	}
	return turn, nil
}

func newAgentFixture(completer providers.ChatCompleter, scenes ...*entities.CatalogScene) (*AgentService, *sceneFixture) {
	fixture := newSceneFixture(scenes...)
	geocoder := &stubGeocoder{result: &entities.GeocodeResult{
		Latitude:    35.1537,
		Longitude:   129.1186,
		DisplayName: "Gwangandaegyo, Suyeong-gu, Busan, South Korea",
	}}
	agent := NewAgentService(completer, fixture.service, NewGeocodeService(geocoder), nil)
	return agent, fixture
}

func toolCall(id string, kind ToolKind, arguments string) providers.ToolInvocation {
	return providers.ToolInvocation{ID: id, Name: string(kind), Arguments: arguments}
}

func TestAgentService_DirectReply(t *testing.T) {
	completer := &scriptedCompleter{turns: []*providers.ChatTurn{
		{Content: "Hello! Tell me a location and a date and I will find imagery for you."},
	}}
	agent, _ := newAgentFixture(completer)

	result, err := agent.Chat(context.Background(), nil, "hi")

	require.NoError(t, err)
	assert.Equal(t, "Hello! Tell me a location and a date and I will find imagery for you.", result.Reply)
	assert.Equal(t, 1, result.Iterations)
	assert.Empty(t, result.ToolsInvoked)

	require.Len(t, result.Messages, 3)
	assert.Equal(t, providers.RoleSystem, result.Messages[0].Role)
	assert.Equal(t, providers.RoleUser, result.Messages[1].Role)
	assert.Equal(t, "hi", result.Messages[1].Content)
	assert.Equal(t, providers.RoleAssistant, result.Messages[2].Role)

	// Every completion advertises the full tool set
	require.Len(t, completer.tools, 4)
	assert.Equal(t, string(ToolGeocodeLocation), completer.tools[0].Name)
	assert.Equal(t, string(ToolDownloadRadar), completer.tools[1].Name)
	assert.Equal(t, string(ToolDownloadOptical), completer.tools[2].Name)
	assert.Equal(t, string(ToolSearchSceneArchive), completer.tools[3].Name)
}

func TestAgentService_GeocodeThenDownload(t *testing.T) {
	completer := &scriptedCompleter{turns: []*providers.ChatTurn{
		{ToolCalls: []providers.ToolInvocation{
			toolCall("call-1", ToolGeocodeLocation, `{"location_query": "Gwangan Bridge"}`),
		}},
		{ToolCalls: []providers.ToolInvocation{
			toolCall("call-2", ToolDownloadOptical, `{"lon": 129.1186, "lat": 35.1537, "date_str": "2023-06-02"}`),
		}},
		{Content: "Downloaded the visual band for you."},
	}}
	agent, fixture := newAgentFixture(completer,
		opticalScene("S2B_52SFB_20230605_0_L2A", "2023-06-05T02:21:14Z", 12.3, "visual"))

	result, err := agent.Chat(context.Background(), nil, "Get an optical image of Gwangan Bridge around 2023-06-02")

	require.NoError(t, err)
	assert.Equal(t, "Downloaded the visual band for you.", result.Reply)
	assert.Equal(t, 3, result.Iterations)
	assert.Equal(t, []string{"geocode_location", "download_optical_scene"}, result.ToolsInvoked)

	// system, user, assistant+call, tool, assistant+call, tool, assistant
	require.Len(t, result.Messages, 7)
	assert.Equal(t, providers.RoleTool, result.Messages[3].Role)
	assert.Equal(t, "call-1", result.Messages[3].ToolCallID)
	assert.Contains(t, result.Messages[3].Content, "Latitude: 35.1537, Longitude: 129.1186")

	assert.Equal(t, providers.RoleTool, result.Messages[5].Role)
	assert.Equal(t, "call-2", result.Messages[5].ToolCallID)
	assert.Contains(t, result.Messages[5].Content, "Sentinel-2 L2A download results:")

	// The download actually ran through the pipeline
	assert.Equal(t, []string{"visual"}, fixture.fetcher.roles)
}

func TestAgentService_RadarDownloadTool(t *testing.T) {
	completer := &scriptedCompleter{turns: []*providers.ChatTurn{
		{ToolCalls: []providers.ToolInvocation{
			toolCall("call-1", ToolDownloadRadar, `{"lon": 129.075, "lat": 35.1796, "date_str": "2023-06-02"}`),
		}},
		{Content: "Both polarizations saved."},
	}}
	agent, fixture := newAgentFixture(completer,
		radarScene("S1A_IW_GRDH_20230605", "2023-06-05T09:00:00Z", "vv", "vh"))

	result, err := agent.Chat(context.Background(), nil, "SAR image please")

	require.NoError(t, err)
	assert.Contains(t, result.Messages[3].Content, "Sentinel-1 download results:")
	assert.Equal(t, []string{"vv", "vh"}, fixture.fetcher.roles)
}

func TestAgentService_ArchiveSearchTool(t *testing.T) {
	completer := &scriptedCompleter{turns: []*providers.ChatTurn{
		{ToolCalls: []providers.ToolInvocation{
			toolCall("call-1", ToolSearchSceneArchive, `{"query": "S2B"}`),
		}},
		{Content: "You downloaded that scene on June 5th."},
	}}
	agent, fixture := newAgentFixture(completer)
	fixture.archive.results = []*entities.ArchivedScene{{
		SceneID:  "S2B_52SFB_20230605_0_L2A",
		Mission:  "Sentinel-2 L2A",
		Acquired: acquiredAt("2023-06-05T02:21:14Z").Unix(),
		Paths:    []string{"downloads/S2B_52SFB_20230605_0_L2A_visual.tif"},
	}}

	result, err := agent.Chat(context.Background(), nil, "Have I downloaded anything near Busan?")

	require.NoError(t, err)
	assert.Contains(t, result.Messages[3].Content, "Found 1 archived scene(s):")
	assert.Contains(t, result.Messages[3].Content, "S2B_52SFB_20230605_0_L2A (Sentinel-2 L2A, acquired 2023-06-05, 1 file(s))")
}

func TestAgentService_ArchiveSearchEmpty(t *testing.T) {
	completer := &scriptedCompleter{turns: []*providers.ChatTurn{
		{ToolCalls: []providers.ToolInvocation{
			toolCall("call-1", ToolSearchSceneArchive, `{"query": "nothing"}`),
		}},
		{Content: "Nothing in the archive yet."},
	}}
	agent, _ := newAgentFixture(completer)

	result, err := agent.Chat(context.Background(), nil, "anything downloaded?")

	require.NoError(t, err)
	assert.Equal(t, "No archived scenes matched.", result.Messages[3].Content)
}

func TestAgentService_BadToolArguments(t *testing.T) {
	completer := &scriptedCompleter{turns: []*providers.ChatTurn{
		{ToolCalls: []providers.ToolInvocation{
			toolCall("call-1", ToolGeocodeLocation, `{"location_query": `),
		}},
		{Content: "Sorry, I could not read that location."},
	}}
	agent, _ := newAgentFixture(completer)

	result, err := agent.Chat(context.Background(), nil, "find Busan")

	require.NoError(t, err)
	assert.Contains(t, result.Messages[3].Content, "Invalid arguments for geocode_location")
	assert.Equal(t, "Sorry, I could not read that location.", result.Reply)
}

func TestAgentService_BadDateArgument(t *testing.T) {
	completer := &scriptedCompleter{turns: []*providers.ChatTurn{
		{ToolCalls: []providers.ToolInvocation{
			toolCall("call-1", ToolDownloadOptical, `{"lon": 129.075, "lat": 35.1796, "date_str": "June 5th"}`),
		}},
		{Content: "Please give me the date as YYYY-MM-DD."},
	}}
	agent, fixture := newAgentFixture(completer)

	result, err := agent.Chat(context.Background(), nil, "optical image from June 5th")

	require.NoError(t, err)
	assert.Contains(t, result.Messages[3].Content, `Invalid date "June 5th", expected YYYY-MM-DD.`)
	assert.Equal(t, 0, fixture.catalog.calls)
	assert.NotEmpty(t, result.Reply)
}

func TestAgentService_UnknownTool(t *testing.T) {
	completer := &scriptedCompleter{turns: []*providers.ChatTurn{
		{ToolCalls: []providers.ToolInvocation{
			{ID: "call-1", Name: "teleport", Arguments: `{}`},
		}},
		{Content: "That is not something I can do."},
	}}
	agent, _ := newAgentFixture(completer)

	result, err := agent.Chat(context.Background(), nil, "teleport me to Busan")

	require.NoError(t, err)
	assert.Equal(t, "Unknown tool: teleport", result.Messages[3].Content)
}

func TestAgentService_IterationLimit(t *testing.T) {
	// A completer that always wants another tool call
	completer := &scriptedCompleter{turns: []*providers.ChatTurn{
		{ToolCalls: []providers.ToolInvocation{
			toolCall("call-1", ToolGeocodeLocation, `{"location_query": "Busan"}`),
		}},
	}}
	agent, _ := newAgentFixture(completer)

	result, err := agent.Chat(context.Background(), nil, "loop forever")

	require.NoError(t, err)
	assert.Equal(t, maxAgentIterations, result.Iterations)
	assert.Len(t, completer.requests, maxAgentIterations)
	assert.Contains(t, result.Reply, "allowed number of steps")
	assert.Len(t, result.ToolsInvoked, maxAgentIterations)
}

func TestAgentService_CarriesHistory(t *testing.T) {
	completer := &scriptedCompleter{turns: []*providers.ChatTurn{
		{Content: "As I said, the bridge is in Busan."},
	}}
	agent, _ := newAgentFixture(completer)

	history := []providers.ChatMessage{
		{Role: providers.RoleUser, Content: "Where is Gwangan Bridge?"},
		{Role: providers.RoleAssistant, Content: "Gwangan Bridge is in Busan."},
	}

	result, err := agent.Chat(context.Background(), history, "say that again")

	require.NoError(t, err)
	require.Len(t, completer.requests, 1)
	sent := completer.requests[0]
	require.Len(t, sent, 4)
	assert.Equal(t, providers.RoleSystem, sent[0].Role)
	assert.Equal(t, "Where is Gwangan Bridge?", sent[1].Content)
	assert.Equal(t, "Gwangan Bridge is in Busan.", sent[2].Content)
	assert.Equal(t, "say that again", sent[3].Content)

	// Input history is left untouched
	assert.Len(t, history, 2)
	assert.Len(t, result.Messages, 5)
}

func TestAgentService_EmptyMessage(t *testing.T) {
	agent, _ := newAgentFixture(&scriptedCompleter{})

	_, err := agent.Chat(context.Background(), nil, "   ")

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
}

func TestAgentService_CompleterFailure(t *testing.T) {
	completer := &scriptedCompleter{err: apperrors.NewExternalError("model unavailable", nil)}
	agent, _ := newAgentFixture(completer)

	_, err := agent.Chat(context.Background(), nil, "hello")

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeExternal, appErr.Type)
}
