package langdetect

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"

	"DesignCatalog/internal/ports"
)

var (
	// ErrNoText is returned for blank input.
	ErrNoText = errors.New("no text to detect")
	// ErrUnreliable is returned when the trigram model is not confident.
	ErrUnreliable = errors.New("language detection unreliable")
)

// Detector wraps whatlanggo and reports ISO 639-3 codes.
type Detector struct {
	options         whatlanggo.Options
	requireReliable bool
}

var _ ports.LanguageDetector = (*Detector)(nil)

// New returns a detector. With requireReliable set, low-confidence guesses
// are reported as ErrUnreliable so callers can fall back.
func New(requireReliable bool) *Detector {
	return &Detector{requireReliable: requireReliable}
}

// Detect returns the ISO 639-3 code of text, e.g. "por".
func (d *Detector) Detect(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	info := whatlanggo.DetectWithOptions(text, d.options)
	if d.requireReliable && !info.IsReliable() {
		return "", ErrUnreliable
	}
	return info.Lang.Iso6393(), nil
}
