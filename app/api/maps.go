package api

import (
	"bytes"
	"strconv"

	"healcure/app/service/places"

	"github.com/gofiber/fiber/v2"
)

func positionReport(c *fiber.Ctx) places.PositionReport {
	return places.PositionReport{
		Denied: c.Query("permission") == "denied",
		Lat:    queryFloat(c, "lat"),
		Lng:    queryFloat(c, "lng"),
	}
}

func queryFloat(c *fiber.Ctx, key string) *float64 {
	value, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return nil
	}
	return &value
}

func (s *Server) mapView(c *fiber.Ctx) error {
	view, err := s.placesSvc.View(s.requestLocale(c), positionReport(c), places.Category(c.Query("category")))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = s.placesSvc.Render(&buf, view); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.Send(buf.Bytes())
}

func (s *Server) mapState(c *fiber.Ctx) error {
	view, err := s.placesSvc.View(s.requestLocale(c), positionReport(c), places.Category(c.Query("category")))
	if err != nil {
		return err
	}

	return c.JSON(view)
}
