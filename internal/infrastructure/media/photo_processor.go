// Package media provides punch photo processing and storage.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"
)

var dataURIPattern = regexp.MustCompile(`^data:image/(png|jpe?g|webp);base64,`)

// PhotoProcessor stores punch photos under a base directory, one subdirectory
// per capture date. Photos are downscaled and re-encoded to WebP.
type PhotoProcessor struct {
	basePath string
	maxWidth int
}

// NewPhotoProcessor creates a new PhotoProcessor instance.
func NewPhotoProcessor(basePath string, maxWidth int) *PhotoProcessor {
	return &PhotoProcessor{
		basePath: basePath,
		maxWidth: maxWidth,
	}
}

// ProcessPunchPhoto decodes a base64 frame (raw or data-URI), normalizes it
// to WebP, and writes it to disk. It returns the relative reference recorded
// on the punch event, e.g. "/media/punches/2026-08-30/01J....webp".
func (p *PhotoProcessor) ProcessPunchPhoto(frame []byte, officerID string) (string, error) {
	if len(frame) == 0 {
		return "", fmt.Errorf("empty photo frame")
	}

	raw, err := decodeFrame(frame)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode photo: %w", err)
	}

	if p.maxWidth > 0 && img.Bounds().Dx() > p.maxWidth {
		img = imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)
	}

	subdir := filepath.Join("punches", time.Now().UTC().Format("2006-01-02"))
	targetDir := filepath.Join(p.basePath, subdir)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.webp", officerID, ulid.Make().String())
	fullPath := filepath.Join(targetDir, filename)

	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}
	defer out.Close()

	if err := webp.Encode(out, img, &webp.Options{Quality: 80}); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to encode photo: %w", err)
	}

	relativePath := filepath.Join("/media", subdir, filename)
	// Ensure forward slashes for URLs
	relativePath = strings.ReplaceAll(relativePath, "\\", "/")

	return relativePath, nil
}

// decodeFrame accepts either raw image bytes or a base64 data URI.
func decodeFrame(frame []byte) ([]byte, error) {
	s := string(frame)
	if loc := dataURIPattern.FindStringIndex(s); loc != nil {
		decoded, err := base64.StdEncoding.DecodeString(s[loc[1]:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 photo: %w", err)
		}
		return decoded, nil
	}
	if strings.HasPrefix(s, "data:") {
		return nil, fmt.Errorf("unsupported photo format")
	}
	return frame, nil
}

// Delete removes a stored photo by its relative reference. Missing files are
// not an error.
func (p *PhotoProcessor) Delete(photoRef string) error {
	if photoRef == "" {
		return nil
	}
	fullPath := filepath.Join(p.basePath, strings.TrimPrefix(photoRef, "/media/"))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove photo: %w", err)
	}
	return nil
}
