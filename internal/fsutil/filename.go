// Package fsutil holds helpers for writing downloaded artifacts to disk.
package fsutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const maxFilenameRunes = 255

var ErrInvalidFilename = errors.New("invalid filename")

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\s]+`)

var reservedNames = func() map[string]struct{} {
	names := map[string]struct{}{"CON": {}, "PRN": {}, "AUX": {}, "NUL": {}}
	for i := 1; i <= 9; i++ {
		names[fmt.Sprintf("COM%d", i)] = struct{}{}
		names[fmt.Sprintf("LPT%d", i)] = struct{}{}
	}
	return names
}()

// SafeFilename turns a server-provided label into a single path element
// that is valid on every common filesystem. Runs of separators,
// whitespace and reserved punctuation collapse to one underscore.
func SafeFilename(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.Trim(invalidFilenameChars.ReplaceAllString(b.String(), "_"), "_ ")
	if runes := []rune(cleaned); len(runes) > maxFilenameRunes {
		cleaned = string(runes[:maxFilenameRunes])
	}

	switch {
	case cleaned == "":
		return "", fmt.Errorf("%w: %q is empty after cleaning", ErrInvalidFilename, name)
	case strings.HasPrefix(cleaned, "."):
		return "", fmt.Errorf("%w: %q would be hidden", ErrInvalidFilename, name)
	}

	stem, _, _ := strings.Cut(cleaned, ".")
	if _, reserved := reservedNames[strings.ToUpper(stem)]; reserved {
		return "", fmt.Errorf("%w: %q is reserved", ErrInvalidFilename, name)
	}

	return cleaned, nil
}
