// Package api exposes the ledger over HTTP. Handlers stay thin: intake
// normalization, classification, and storage all live in their own packages,
// this layer only translates between HTTP and typed errors.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/owenfield/taxledger/internal/engine"
	"github.com/owenfield/taxledger/internal/gemini"
	"github.com/owenfield/taxledger/internal/repository"
	"github.com/owenfield/taxledger/internal/taxonomy"
)

// NewApp builds the fiber application with all routes registered.
func NewApp(h *Handler, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "taxledger",
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	app.Get("/healthz", h.Health)

	v1 := app.Group("/api/v1")

	v1.Get("/categories", h.ListCategories)

	v1.Post("/expenses", h.SubmitExpense)
	v1.Post("/receipts", h.SubmitReceipt)

	v1.Get("/records", h.ListRecords)
	v1.Get("/records/search", h.SearchRecords)
	v1.Get("/records/:id", h.GetRecord)
	v1.Get("/records/:id/history", h.RecordHistory)
	v1.Post("/records/:id/corrections", h.CorrectRecord)

	v1.Get("/totals", h.CategoryTotals)
	v1.Get("/export.csv", h.ExportCSV)
	v1.Get("/export.xlsx", h.ExportXLSX)
	v1.Get("/chart.png", h.CategoryChart)

	return app
}

// errorHandler maps typed domain errors onto HTTP status codes. Unknown
// errors are logged and hidden behind a generic 500 so internals never leak.
func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusForError(err)
		if code == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			return c.Status(code).JSON(fiber.Map{"error": "internal error"})
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}

func statusForError(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, repository.ErrUnknownRecord):
		return fiber.StatusNotFound
	case errors.Is(err, taxonomy.ErrUnknownCategory),
		errors.Is(err, engine.ErrEmptyInput),
		errors.Is(err, engine.ErrInvalidSource):
		return fiber.StatusBadRequest
	case errors.Is(err, gemini.ErrNoData):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, gemini.ErrMalformedResponse):
		return fiber.StatusBadGateway
	case errors.Is(err, gemini.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
