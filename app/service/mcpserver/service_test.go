package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"healcure/app/config"
	"healcure/app/i18n"
	"healcure/app/service/conversation"
	"healcure/app/service/engine"
	"healcure/app/service/generator"
	"healcure/app/service/places"
	"healcure/app/service/playback"
	"healcure/app/service/queue"
	"healcure/app/service/speech"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *conversation.Service) {
	t.Helper()

	cfg := &config.Config{
		Chat: config.Chat{
			DefaultLocale:     "en",
			GenerationTimeout: time.Second,
			Workers:           2,
			QueueSize:         16,
			MaxSessions:       10,
			SessionTTL:        time.Hour,
		},
		Map: config.Map{
			DefaultLat: 28.6139,
			DefaultLng: 77.2090,
			Zoom:       14,
			Places: []config.Place{
				{ID: 1, Name: "clinic", Lat: 28.6139, Lng: 77.2090, Category: "clinic"},
				{ID: 2, Name: "hospital", Lat: 28.6149, Lng: 77.2050, Category: "hospital"},
			},
		},
		MCP: config.MCP{Enabled: true, Path: "/mcp"},
	}

	di := do.New()
	t.Cleanup(func() {
		_ = di.Shutdown()
	})

	do.ProvideValue(di, cfg)
	do.ProvideValue[context.Context](di, context.Background())
	do.ProvideValue[conversation.AnswerGenerator](di, generator.NewWithBackend("echo", generator.EchoBackend{}))
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)
	do.Provide(di, func(i *do.Injector) (conversation.Dispatcher, error) {
		return do.Invoke[*engine.Service](i)
	})
	do.ProvideValue[conversation.VoiceProvider](di, speech.NewWithBackend(context.Background(), nil, playback.NopPlayer{}))
	do.Provide(di, conversation.New)
	do.Provide(di, places.New)
	do.Provide(di, New)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go do.MustInvoke[*engine.Service](di).Run(ctx)

	return do.MustInvoke[*Service](di), do.MustInvoke[*conversation.Service](di)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Name = name
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotNil(t, result)
	require.Len(t, result.Content, 1)

	content, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	return content.Text
}

func TestAskHealthAssistant(t *testing.T) {
	svc, conversationSvc := newService(t)

	result, err := svc.askHealthAssistant(context.Background(), callRequest("ask_health_assistant", map[string]any{
		"text": "I feel dizzy",
		"lang": "hi",
	}))
	require.NoError(t, err)

	assert.False(t, result.IsError)
	assert.Equal(t, "You said: I feel dizzy", resultText(t, result))
	assert.Zero(t, conversationSvc.Count())
}

func TestAskHealthAssistantMissingText(t *testing.T) {
	svc, _ := newService(t)

	result, err := svc.askHealthAssistant(context.Background(), callRequest("ask_health_assistant", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestAskHealthAssistantBlankText(t *testing.T) {
	svc, conversationSvc := newService(t)

	result, err := svc.askHealthAssistant(context.Background(), callRequest("ask_health_assistant", map[string]any{
		"text": "   ",
		"lang": "hi",
	}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Equal(t, i18n.Text(i18n.Hindi, i18n.EmptyMessage), resultText(t, result))
	assert.Zero(t, conversationSvc.Count())
}

func TestListMedicalPlaces(t *testing.T) {
	svc, _ := newService(t)

	result, err := svc.listMedicalPlaces(context.Background(), callRequest("list_medical_places", map[string]any{
		"lang":     "hi",
		"category": "hospital",
	}))
	require.NoError(t, err)

	var list []places.Place
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &list))
	require.Len(t, list, 1)
	assert.Equal(t, i18n.Text(i18n.Hindi, i18n.Hospital), list[0].Name)
}

func TestListMedicalPlacesUnknownCategory(t *testing.T) {
	svc, _ := newService(t)

	result, err := svc.listMedicalPlaces(context.Background(), callRequest("list_medical_places", map[string]any{
		"category": "dentist",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandler(t *testing.T) {
	svc, _ := newService(t)

	assert.NotNil(t, svc.Handler())
}
