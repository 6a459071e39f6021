package api

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/owenfield/taxledger/internal/export"
	"github.com/owenfield/taxledger/internal/gemini"
	"github.com/owenfield/taxledger/internal/intake"
	"github.com/owenfield/taxledger/internal/models"
	"github.com/owenfield/taxledger/internal/taxonomy"
)

// Classifier produces a classification decision for an expense input.
// Satisfied by *engine.Engine.
type Classifier interface {
	Classify(ctx context.Context, input models.ExpenseInput) (*models.ClassificationDecision, error)
}

// ReceiptParser extracts expense fields from a receipt image.
// Satisfied by *gemini.Client.
type ReceiptParser interface {
	ParseReceipt(ctx context.Context, imageBytes []byte, mimeType string, categories []taxonomy.Category) (*gemini.ReceiptData, error)
	ModelVersion() string
}

// RecordStore is the ledger surface the handlers need.
// Satisfied by *repository.RecordRepository.
type RecordStore interface {
	Append(ctx context.Context, input models.ExpenseInput, decision models.ClassificationDecision) (int64, error)
	Correct(ctx context.Context, recordID int64, decision models.ClassificationDecision) error
	ListAll(ctx context.Context) ([]models.ExpenseRecord, error)
	GetByID(ctx context.Context, recordID int64) (*models.ExpenseRecord, error)
	Search(ctx context.Context, query string) ([]models.ExpenseRecord, error)
	History(ctx context.Context, recordID int64) ([]models.ClassificationDecision, error)
}

// maxReceiptBytes caps uploaded receipt images at 10 MB.
const maxReceiptBytes = 10 << 20

// manualCorrectionVersion marks decisions entered by a human reviewer.
const manualCorrectionVersion = "manual-correction"

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	classifier Classifier
	receipts   ReceiptParser
	store      RecordStore
	now        func() time.Time
}

// NewHandler wires the HTTP handlers to their dependencies.
func NewHandler(classifier Classifier, receipts ReceiptParser, store RecordStore) *Handler {
	return &Handler{
		classifier: classifier,
		receipts:   receipts,
		store:      store,
		now:        time.Now,
	}
}

// Health reports liveness.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ListCategories returns the classification taxonomy.
func (h *Handler) ListCategories(c *fiber.Ctx) error {
	categories := taxonomy.All()
	out := make([]categoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, categoryResponse{ID: cat.ID, Description: cat.Description})
	}
	return c.JSON(fiber.Map{
		"taxonomy_version": taxonomy.Version,
		"categories":       out,
	})
}

type submitExpenseRequest struct {
	Text     string `json:"text"`
	Merchant string `json:"merchant"`
}

// SubmitExpense classifies a text expense and appends it to the ledger.
func (h *Handler) SubmitExpense(c *fiber.Ctx) error {
	var req submitExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	input, err := intake.NewExpenseInput(req.Text, models.SourceManualEntry, req.Merchant, h.now())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	decision, err := h.classifier.Classify(c.Context(), input)
	if err != nil {
		return err
	}

	id, err := h.store.Append(c.Context(), input, *decision)
	if err != nil {
		return err
	}

	record, err := h.store.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toRecordResponse(record))
}

// SubmitReceipt extracts expense fields from an uploaded receipt image,
// classifies them, and appends the result to the ledger.
func (h *Handler) SubmitReceipt(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "receipt image file is required")
	}
	if file.Size > maxReceiptBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "receipt image exceeds 10 MB")
	}

	src, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to open uploaded file")
	}
	defer src.Close()

	imageBytes, err := io.ReadAll(io.LimitReader(src, maxReceiptBytes+1))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	data, err := h.receipts.ParseReceipt(c.Context(), imageBytes, mimeType, taxonomy.All())
	if err != nil {
		return err
	}

	input := receiptInput(data, h.now())
	decision, err := h.receiptDecision(c.Context(), data, input)
	if err != nil {
		return err
	}

	id, err := h.store.Append(c.Context(), input, *decision)
	if err != nil {
		return err
	}

	record, err := h.store.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toRecordResponse(record))
}

// receiptInput builds the ledger input for an extracted receipt. The
// submitted_at timestamp is the upload time, not the purchase date printed
// on the receipt; the purchase date lives in the description when present.
func receiptInput(data *gemini.ReceiptData, now time.Time) models.ExpenseInput {
	text := strings.TrimSpace(data.Description)
	if text == "" && data.HasMerchant() {
		text = "Receipt from " + data.Merchant
	}
	if text == "" {
		text = "Receipt upload"
	}
	if !data.Date.IsZero() {
		text = fmt.Sprintf("%s (dated %s)", text, data.Date.Format("2006-01-02"))
	}

	input := models.ExpenseInput{
		RawText:     text,
		Source:      models.SourceReceiptImage,
		Merchant:    strings.TrimSpace(data.Merchant),
		SubmittedAt: now,
	}
	if data.HasAmount() {
		input.Amount.Decimal = data.Amount
		input.Amount.Valid = true
	}
	return input
}

// receiptDecision prefers the classification extracted alongside the receipt
// fields. When that classification is unusable the description is run through
// the text classifier instead of being coerced into a default category.
func (h *Handler) receiptDecision(ctx context.Context, data *gemini.ReceiptData, input models.ExpenseInput) (*models.ClassificationDecision, error) {
	category, ok := taxonomy.Normalize(data.Category)
	if !ok || strings.TrimSpace(data.Justification) == "" {
		return h.classifier.Classify(ctx, input)
	}

	confidence := data.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return &models.ClassificationDecision{
		Category:      category.ID,
		Justification: strings.TrimSpace(data.Justification),
		Confidence:    confidence,
		DecidedAt:     h.now(),
		ModelVersion:  h.receipts.ModelVersion(),
	}, nil
}

type correctionRequest struct {
	Category      string `json:"category"`
	Justification string `json:"justification"`
}

// CorrectRecord appends a manual correction as the record's new current
// decision. Prior decisions remain in the history.
func (h *Handler) CorrectRecord(c *fiber.Ctx) error {
	recordID, err := parseRecordID(c)
	if err != nil {
		return err
	}

	var req correctionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Justification) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "justification is required")
	}

	category, ok := taxonomy.Normalize(req.Category)
	if !ok {
		return fmt.Errorf("%w: %q", taxonomy.ErrUnknownCategory, req.Category)
	}

	decision := models.ClassificationDecision{
		Category:      category.ID,
		Justification: strings.TrimSpace(req.Justification),
		Confidence:    1.0,
		DecidedAt:     h.now(),
		ModelVersion:  manualCorrectionVersion,
	}
	if err := h.store.Correct(c.Context(), recordID, decision); err != nil {
		return err
	}

	record, err := h.store.GetByID(c.Context(), recordID)
	if err != nil {
		return err
	}
	return c.JSON(toRecordResponse(record))
}

// ListRecords returns all ledger records with their current decisions.
func (h *Handler) ListRecords(c *fiber.Ctx) error {
	records, err := h.store.ListAll(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(toRecordResponses(records))
}

// GetRecord returns a single record with its current decision.
func (h *Handler) GetRecord(c *fiber.Ctx) error {
	recordID, err := parseRecordID(c)
	if err != nil {
		return err
	}
	record, err := h.store.GetByID(c.Context(), recordID)
	if err != nil {
		return err
	}
	return c.JSON(toRecordResponse(record))
}

// SearchRecords filters records by merchant or category, case-insensitively.
func (h *Handler) SearchRecords(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query parameter q is required")
	}
	records, err := h.store.Search(c.Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(toRecordResponses(records))
}

// RecordHistory returns every decision ever made for a record, oldest first.
func (h *Handler) RecordHistory(c *fiber.Ctx) error {
	recordID, err := parseRecordID(c)
	if err != nil {
		return err
	}
	decisions, err := h.store.History(c.Context(), recordID)
	if err != nil {
		return err
	}

	out := make([]decisionResponse, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, toDecisionResponse(d))
	}
	return c.JSON(fiber.Map{
		"record_id": recordID,
		"decisions": out,
	})
}

// CategoryTotals returns per-category totals in Schedule C order.
func (h *Handler) CategoryTotals(c *fiber.Ctx) error {
	records, err := h.store.ListAll(c.Context())
	if err != nil {
		return err
	}

	totals := export.CategoryTotals(records, taxonomy.Names())
	out := make([]totalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, totalResponse{
			Category: t.Category,
			Total:    t.Total.StringFixed(2),
			Count:    t.Count,
		})
	}
	return c.JSON(fiber.Map{
		"totals":      out,
		"grand_total": export.GrandTotal(records).StringFixed(2),
	})
}

// ExportCSV streams the full ledger as a CSV download.
func (h *Handler) ExportCSV(c *fiber.Ctx) error {
	records, err := h.store.ListAll(c.Context())
	if err != nil {
		return err
	}
	data, err := export.GenerateRecordsCSV(records)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.GenerateCSVFilename(h.now())))
	return c.Send(data)
}

// ExportXLSX streams the full ledger as an XLSX download.
func (h *Handler) ExportXLSX(c *fiber.Ctx) error {
	records, err := h.store.ListAll(c.Context())
	if err != nil {
		return err
	}
	data, err := export.GenerateRecordsXLSX(records)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.GenerateXLSXFilename(h.now())))
	return c.Send(data)
}

// CategoryChart renders spending by category as a PNG pie chart.
func (h *Handler) CategoryChart(c *fiber.Ctx) error {
	records, err := h.store.ListAll(c.Context())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fiber.NewError(fiber.StatusNotFound, "no records to chart")
	}

	data, err := export.GenerateCategoryChart(records, "Spending by Category")
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(data)
}

func parseRecordID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid record id")
	}
	return id, nil
}
