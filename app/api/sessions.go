package api

import (
	"context"
	"time"

	"healcure/app/i18n"
	"healcure/app/service/conversation"
	"healcure/app/service/speech"

	"github.com/gofiber/fiber/v2"
)

// extra time a waiting client gets on top of the generation timeout
const awaitGrace = 5 * time.Second

type clipSource interface {
	LastClip() (speech.Clip, bool)
}

func (s *Server) session(c *fiber.Ctx) (*conversation.Session, error) {
	session, err := s.conversationSvc.Get(c.Params("id"))
	if err != nil {
		return nil, err
	}

	c.Locals(localeKey, session.Locale())

	return session, nil
}

func (s *Server) startSession(c *fiber.Ctx) error {
	var req StartSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	lang := req.Lang
	if lang == "" {
		lang = c.Query("lang")
	}

	var locale i18n.Locale
	if parsed, ok := i18n.ParseLocale(lang); ok {
		locale = parsed
	}

	session, err := s.conversationSvc.Start(locale)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(newSessionResponse(session.Snapshot()))
}

func (s *Server) getSession(c *fiber.Ctx) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}

	return c.JSON(newSessionResponse(session.Snapshot()))
}

func (s *Server) endSession(c *fiber.Ctx) error {
	if err := s.conversationSvc.End(c.Params("id")); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) submitMessage(c *fiber.Ctx) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}

	var req SubmitMessageRequest
	if err = c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	exchange, err := session.SubmitUserMessage(req.Text)
	if err != nil {
		return err
	}

	response := SubmitMessageResponse{User: exchange.User}

	if !c.QueryBool("wait") {
		return c.Status(fiber.StatusAccepted).JSON(response)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.Chat.GenerationTimeout+awaitGrace)
	defer cancel()

	reply, err := exchange.Await(ctx)
	if err != nil {
		// the reply still lands in the log, the client can poll for it
		return c.Status(fiber.StatusAccepted).JSON(response)
	}

	response.Reply = &reply

	return c.JSON(response)
}

func (s *Server) toggleSpeech(c *fiber.Ctx) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}

	return c.JSON(SpeechResponse{Speech: session.ToggleSpeech()})
}

func (s *Server) speechAudio(c *fiber.Ctx) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}

	source, ok := session.Voice().(clipSource)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}

	clip, ok := source.LastClip()
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}

	c.Set(fiber.HeaderContentType, clip.Format.ContentType())
	c.Set("Content-Language", clip.Variant)

	return c.Send(clip.Audio)
}

func (s *Server) toggleLocale(c *fiber.Ctx) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}

	c.Locals(localeKey, session.ToggleLocale())

	return c.JSON(newSessionResponse(session.Snapshot()))
}
