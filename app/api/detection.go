package api

import (
	"errors"
	"io"

	"healcure/app/service/detection"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"
	"github.com/valyala/fasthttp"
)

func (s *Server) submitImage(c *fiber.Ctx) error {
	source, ok := detection.ParseSource(c.FormValue("source", string(detection.SourceGallery)))
	if !ok {
		return oops.In("api").With("source", c.FormValue("source")).Wrap(detection.ErrUnknownSource)
	}

	pick := detection.Pick{
		Source: source,
		Denied: c.FormValue("permission") == "denied",
	}

	if !pick.Denied {
		data, err := readUpload(c)
		if err != nil {
			return err
		}
		pick.Data = data
	}

	handle, analysis, err := s.detectionSvc.Submit(c.UserContext(), pick)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(newImageResponse(s.requestLocale(c), handle, analysis))
}

// readUpload returns the uploaded image, or nil when the picker was dismissed.
func readUpload(c *fiber.Ctx) ([]byte, error) {
	header, err := c.FormFile("image")
	if errors.Is(err, fasthttp.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.In("api").Wrap(fiber.NewError(fiber.StatusBadRequest, err.Error()))
	}

	file, err := header.Open()
	if err != nil {
		return nil, oops.In("api").Wrapf(err, "failed to open upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, oops.In("api").Wrapf(err, "failed to read upload")
	}

	return data, nil
}

func (s *Server) getImage(c *fiber.Ctx) error {
	handle, analysis, err := s.detectionSvc.Get(c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(newImageResponse(s.requestLocale(c), handle, analysis))
}

func (s *Server) getImageData(c *fiber.Ctx) error {
	handle, data, err := s.detectionSvc.Data(c.Params("id"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, handle.ContentType)

	return c.Send(data)
}
