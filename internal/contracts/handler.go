package contracts

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/paycasso/paycasso/internal/integrations/gemini"
)

// DefaultMaxUploadBytes caps uploads at 10MB.
const DefaultMaxUploadBytes = 10 * 1024 * 1024

// Handler exposes the contract analysis endpoints.
type Handler struct {
	analyzer *Analyzer
	maxBytes int
	logger   *slog.Logger
}

// NewHandler builds a contract analysis handler. A non-positive maxBytes uses
// DefaultMaxUploadBytes.
func NewHandler(analyzer *Analyzer, maxBytes int, logger *slog.Logger) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Handler{analyzer: analyzer, maxBytes: maxBytes, logger: logger}
}

// Usage describes the analysis endpoint.
func (h *Handler) Usage(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":        "Send a POST request with a PDF or DOCX file to analyze",
		"supportedTypes": SupportedTypes(),
	})
}

// Analyze extracts and analyses the uploaded "file" form field.
func (h *Handler) Analyze(c *fiber.Ctx) error {
	doc, err := ReadUpload(c, h.maxBytes)
	if err != nil {
		return err
	}
	analysis, err := h.analyzer.Analyze(c.UserContext(), doc)
	if err != nil {
		return AnalysisError(c, h.logger, err)
	}
	return c.Status(http.StatusOK).JSON(analysis)
}

// ReadUpload reads the "file" form field. Checks run in order: body present,
// file present, supported type, size.
func ReadUpload(c *fiber.Ctx, maxBytes int) (Document, error) {
	if len(c.Body()) == 0 {
		return Document{}, fiber.NewError(http.StatusBadRequest, "No body provided")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return Document{}, fiber.NewError(http.StatusBadRequest, "No file provided")
	}
	data, err := readFile(fh)
	if err != nil {
		return Document{}, fiber.NewError(http.StatusBadRequest, "No file provided")
	}
	contentType := ResolveType(fh.Header.Get(fiber.HeaderContentType), data)
	if !Supported(contentType) {
		return Document{}, fiber.NewError(http.StatusBadRequest, "Unsupported file type. Please upload a PDF or DOCX file.")
	}
	if fh.Size > int64(maxBytes) {
		return Document{}, fiber.NewError(http.StatusBadRequest, "File too large. Maximum size is 10MB.")
	}
	return Document{Name: fh.Filename, ContentType: contentType, Data: data}, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// AnalysisError renders an Analyzer error. Extraction and transport failures
// carry their detail to the client as the upload page shows it.
func AnalysisError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	switch {
	case errors.Is(err, ErrNoText):
		return fiber.NewError(http.StatusBadRequest, "No text content could be extracted from the file")
	case errors.Is(err, gemini.ErrNotConfigured):
		return fiber.NewError(http.StatusInternalServerError, "Gemini API key not configured")
	case errors.Is(err, gemini.ErrInvalidJSON):
		logger.Error("ai response was not json", slog.String("error", err.Error()))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to parse AI response",
			"details": "The AI response was not valid JSON",
		})
	case errors.Is(err, ErrUnexpectedShape):
		logger.Error("ai response had the wrong shape", slog.String("error", err.Error()))
		return fiber.NewError(http.StatusBadGateway, "AI response did not match the expected format")
	default:
		logger.Error("document analysis failed", slog.String("error", err.Error()))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to analyze document",
			"details": err.Error(),
		})
	}
}
