package api

import (
	"log/slog"
	"strings"
	"time"

	"healcure/app/config"
	"healcure/app/i18n"
	"healcure/app/service/conversation"
	"healcure/app/service/detection"
	"healcure/app/service/mcpserver"
	"healcure/app/service/places"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const (
	shutdownTimeout = 10 * time.Second
	localeKey       = "locale"
)

var _ do.Shutdownable = (*Server)(nil)

type Server struct {
	cfg *config.Config
	app *fiber.App

	conversationSvc *conversation.Service
	detectionSvc    *detection.Service
	placesSvc       *places.Service
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	s := &Server{
		cfg:             cfg,
		conversationSvc: do.MustInvoke[*conversation.Service](di),
		detectionSvc:    do.MustInvoke[*detection.Service](di),
		placesSvc:       do.MustInvoke[*places.Service](di),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "healcure",
		BodyLimit:             cfg.HTTP.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(logRequest)

	s.registerRoutes()

	if cfg.MCP.Enabled {
		mcpSvc, err := do.Invoke[*mcpserver.Service](di)
		if err != nil {
			return nil, oops.In("api").Wrapf(err, "failed to create mcp server")
		}
		s.app.All(cfg.MCP.Path, adaptor.HTTPHandler(mcpSvc.Handler()))
	}

	return s, nil
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", s.healthz)
	s.app.Get("/landing", s.landing)

	sessions := s.app.Group("/sessions")
	sessions.Post("/", s.startSession)
	sessions.Get("/:id", s.getSession)
	sessions.Delete("/:id", s.endSession)
	sessions.Post("/:id/messages", s.submitMessage)
	sessions.Post("/:id/speech/toggle", s.toggleSpeech)
	sessions.Get("/:id/speech/audio", s.speechAudio)
	sessions.Post("/:id/locale/toggle", s.toggleLocale)

	images := s.app.Group("/detection/images")
	images.Post("/", s.submitImage)
	images.Get("/:id", s.getImage)
	images.Get("/:id/raw", s.getImageData)

	s.app.Get("/map", s.mapState)
	s.app.Get("/map/view", s.mapView)
}

// App exposes the fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	slog.Info("HTTP server listening", "addr", s.cfg.HTTP.Addr)

	if err := s.app.Listen(s.cfg.HTTP.Addr); err != nil {
		return oops.In("api").With("addr", s.cfg.HTTP.Addr).Wrapf(err, "failed to listen")
	}

	return nil
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(shutdownTimeout)
}

func logRequest(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	slog.Debug("Request handled",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
		"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
	)

	return err
}

// requestLocale picks the locale of the response: the session's when the
// handler knows it, then ?lang=, then Accept-Language, then the default.
func (s *Server) requestLocale(c *fiber.Ctx) i18n.Locale {
	if locale, ok := c.Locals(localeKey).(i18n.Locale); ok {
		return locale
	}

	if locale, ok := i18n.ParseLocale(c.Query("lang")); ok {
		return locale
	}

	header := c.Get(fiber.HeaderAcceptLanguage)
	if i := strings.IndexAny(header, ",;"); i >= 0 {
		header = header[:i]
	}
	if locale, ok := i18n.ParseLocale(header); ok {
		return locale
	}

	return i18n.Locale(s.cfg.Chat.DefaultLocale)
}

func (s *Server) healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"sessions": s.conversationSvc.Count(),
	})
}

func (s *Server) landing(c *fiber.Ctx) error {
	locale := s.requestLocale(c)

	return c.JSON(LandingResponse{
		Locale:      locale,
		ToggleLabel: locale.ToggleLabel(),
		Copy:        i18n.Copy(locale, i18n.Title, i18n.Subtitle, i18n.GetStarted, i18n.IVRMode),
	})
}
