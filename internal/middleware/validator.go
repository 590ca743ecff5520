package middleware

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Input validation and sanitization utilities

const (
	// MaxQuestionChars bounds a follow-up question.
	MaxQuestionChars = 2000
	// MaxImageBytes bounds a decoded report image.
	MaxImageBytes = 10 << 20
)

var (
	tenantPattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	dataURLPattern = regexp.MustCompile(`^data:([a-zA-Z0-9.+/-]+);base64,(.*)$`)
	allowedImages  = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	}
)

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateReportText checks a report body; maxChars <= 0 disables the bound.
func ValidateReportText(text string, maxChars int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("report text cannot be empty")
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("report text must be valid UTF-8")
	}
	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		return fmt.Errorf("report text exceeds %d characters", maxChars)
	}
	return nil
}

// ValidateQuestion checks a follow-up question.
func ValidateQuestion(q string) error {
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if utf8.RuneCountInString(q) > MaxQuestionChars {
		return fmt.Errorf("question exceeds %d characters", MaxQuestionChars)
	}
	return nil
}

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	if !tenantPattern.MatchString(tenant) {
		return fmt.Errorf("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateSessionID validates a report session ID (UUID).
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("report ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid report ID format")
	}
	return nil
}

// ValidateImageMIME accepts the image types the vision model reads.
func ValidateImageMIME(mime string) error {
	if !allowedImages[strings.ToLower(mime)] {
		return fmt.Errorf("unsupported image type: %q (allowed: jpeg, png, webp, gif)", mime)
	}
	return nil
}

// DecodeImage decodes a base64 image, or a data URL carrying its own MIME
// type, and validates type and size.
func DecodeImage(encoded, mime string) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)
	if m := dataURLPattern.FindStringSubmatch(encoded); m != nil {
		mime, encoded = m[1], m[2]
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	if err := ValidateImageMIME(mime); err != nil {
		return nil, "", err
	}
	if encoded == "" {
		return nil, "", fmt.Errorf("image cannot be empty")
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image: %w", err)
	}
	return data, strings.ToLower(mime), nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates the 1-based page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
