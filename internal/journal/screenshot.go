package journal

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	apperrors "forex-journal/internal/errors"
	"forex-journal/internal/models"
)

// MaxScreenshotBytes caps a single attached image.
const MaxScreenshotBytes = 5 << 20

// LoadScreenshot reads an image file and returns it as a data URL suitable
// for TradeForm.Screenshots.
func LoadScreenshot(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open screenshot: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxScreenshotBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read screenshot: %w", err)
	}
	if len(data) > MaxScreenshotBytes {
		return "", apperrors.NewValidationError("screenshot", path, fmt.Sprintf("exceeds %d bytes", MaxScreenshotBytes))
	}
	return EncodeDataURL(data)
}

// EncodeDataURL wraps image bytes in a base64 data URL.
func EncodeDataURL(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", apperrors.NewValidationError("screenshot", mime, "must be an image")
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ParseScreenshotFlag splits a "timeframe=path" argument.
func ParseScreenshotFlag(arg string) (models.Timeframe, string, error) {
	key, path, ok := strings.Cut(arg, "=")
	if !ok || strings.TrimSpace(path) == "" {
		return "", "", apperrors.NewValidationError("screenshot", arg, "must be timeframe=path")
	}
	tf, err := models.ParseTimeframe(key)
	if err != nil {
		return "", "", err
	}
	return tf, strings.TrimSpace(path), nil
}
