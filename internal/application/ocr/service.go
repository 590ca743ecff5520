package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	domai "github.com/bryanwahyu/medreport-ai/internal/domain/ai"
	"github.com/bryanwahyu/medreport-ai/internal/infra/ai/prompt"
)

var (
	// ErrNoText is returned when the vision model produced no usable text.
	ErrNoText = errors.New("no text extracted from image")
	// ErrNoTranscriber is returned when no vision backend is configured.
	ErrNoTranscriber = errors.New("vision service not configured")
)

// Service turns a photographed report into plain text.
type Service struct {
	vision  domai.Transcriber
	cleaner domai.Completer
	logger  *slog.Logger
}

func NewService(vision domai.Transcriber, cleaner domai.Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{vision: vision, cleaner: cleaner, logger: logger}
}

// ExtractText sends the image to the vision model once.
func (s *Service) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if s.vision == nil {
		return "", ErrNoTranscriber
	}
	if len(image) == 0 {
		return "", fmt.Errorf("extract text: %w", ErrNoText)
	}
	text, err := s.vision.Transcribe(ctx, prompt.TranscribeInstruction, image, mimeType)
	if err != nil {
		if errors.Is(err, domai.ErrEmptyCompletion) {
			return "", fmt.Errorf("extract text: %w", ErrNoText)
		}
		return "", fmt.Errorf("extract text: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("extract text: %w", ErrNoText)
	}
	return text, nil
}

// CleanText asks the completion service to repair OCR noise. Any failure
// returns raw unchanged.
func (s *Service) CleanText(ctx context.Context, raw string) string {
	if s.cleaner == nil || strings.TrimSpace(raw) == "" {
		return raw
	}
	cleaned, err := s.cleaner.Complete(ctx, prompt.Cleaning(raw), prompt.CleaningTokens)
	if err != nil {
		s.logger.Warn("ocr: cleaning failed, keeping raw text", "error", err, "chars", len(raw))
		return raw
	}
	if cleaned = strings.TrimSpace(cleaned); cleaned == "" {
		return raw
	}
	return cleaned
}

// Process runs ExtractText then CleanText.
func (s *Service) Process(ctx context.Context, image []byte, mimeType string) (string, error) {
	raw, err := s.ExtractText(ctx, image, mimeType)
	if err != nil {
		s.logger.Warn("ocr: extraction failed", "error", err, "mime_type", mimeType, "bytes", len(image))
		return "", err
	}
	text := s.CleanText(ctx, raw)
	s.logger.Info("ocr: text extracted", "raw_chars", len(raw), "chars", len(text))
	return text, nil
}
