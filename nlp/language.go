package nlp

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Detector identifies the language of a text. ok is false when the
// detector has no linguistic signal to work with.
type Detector interface {
	Detect(text string) (code string, ok bool)
}

// minDetectableLength is the shortest comment worth running detection
// on; anything shorter is treated as undetectable.
const minDetectableLength = 10

// WhatlangDetector detects languages with trigram profiles.
type WhatlangDetector struct{}

func NewWhatlangDetector() *WhatlangDetector { return &WhatlangDetector{} }

func (d *WhatlangDetector) Detect(text string) (string, bool) {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return "", false
	}
	return code, true
}

// IsTargetLanguage reports whether text is confidently in the target
// language. Null, empty and short texts are never a match, and detector
// failure yields false rather than an error.
func IsTargetLanguage(d Detector, text, target string) bool {
	if len(strings.TrimSpace(text)) < minDetectableLength {
		return false
	}
	code, ok := d.Detect(text)
	return ok && code == target
}
