package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"healcure/app/config"
	"healcure/app/i18n"
	"healcure/app/service/conversation"
	"healcure/app/service/places"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const (
	serverName    = "healcure"
	serverVersion = "1.0.0"
)

// Service exposes the assistant as MCP tools.
type Service struct {
	cfg             *config.Config
	conversationSvc *conversation.Service
	placesSvc       *places.Service

	server *server.MCPServer
}

func New(di *do.Injector) (*Service, error) {
	s := &Service{
		cfg:             do.MustInvoke[*config.Config](di),
		conversationSvc: do.MustInvoke[*conversation.Service](di),
		placesSvc:       do.MustInvoke[*places.Service](di),
	}

	s.server = server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	s.server.AddTool(mcp.NewTool("ask_health_assistant",
		mcp.WithDescription("Ask the HealCure health assistant a question and get its answer"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Question or symptoms description"),
		),
		mcp.WithString("lang",
			mcp.Description("Answer language"),
			mcp.Enum(string(i18n.English), string(i18n.Hindi)),
		),
	), s.askHealthAssistant)

	s.server.AddTool(mcp.NewTool("list_medical_places",
		mcp.WithDescription("List nearby clinics, hospitals and pharmacies"),
		mcp.WithString("lang",
			mcp.Description("Language of place names"),
			mcp.Enum(string(i18n.English), string(i18n.Hindi)),
		),
		mcp.WithString("category",
			mcp.Description("Only places of this category"),
			mcp.Enum(string(places.CategoryClinic), string(places.CategoryHospital), string(places.CategoryPharmacy)),
		),
	), s.listMedicalPlaces)

	return s, nil
}

// Handler serves the streamable HTTP transport.
func (s *Service) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.server, server.WithEndpointPath(s.cfg.MCP.Path))
}

func (s *Service) askHealthAssistant(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	locale := s.parseLocale(request.GetString("lang", ""))

	session, err := s.conversationSvc.Start(locale)
	if err != nil {
		return nil, oops.In("mcp").Wrapf(err, "failed to start session")
	}
	defer func() {
		_ = s.conversationSvc.End(session.ID())
	}()

	exchange, err := session.SubmitUserMessage(text)
	if err != nil {
		return mcp.NewToolResultError(i18n.Text(locale, i18n.EmptyMessage)), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Chat.GenerationTimeout+5*time.Second)
	defer cancel()

	reply, err := exchange.Await(ctx)
	if err != nil {
		return nil, oops.In("mcp").Wrapf(err, "failed to await reply")
	}

	return mcp.NewToolResultText(reply.Text), nil
}

func (s *Service) listMedicalPlaces(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locale := s.parseLocale(request.GetString("lang", ""))

	category := places.Category(request.GetString("category", ""))

	result, err := s.placesSvc.Places(locale, category)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, oops.In("mcp").Wrapf(err, "failed to marshal places")
	}

	return mcp.NewToolResultText(string(data)), nil
}

func (s *Service) parseLocale(value string) i18n.Locale {
	if locale, ok := i18n.ParseLocale(value); ok {
		return locale
	}
	return i18n.Locale(s.cfg.Chat.DefaultLocale)
}
