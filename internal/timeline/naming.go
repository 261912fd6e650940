package timeline

import (
	"regexp"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Labeler renders the display name for camera lane n. The engine owns
// the numbering policy; the labeler only owns the wording, so a no-op
// passthrough, a fixed-locale formatter, or a full localization service
// all satisfy the contract.
type Labeler interface {
	Label(n int) string
}

// LabelFunc adapts a plain function to a Labeler.
type LabelFunc func(n int) string

func (f LabelFunc) Label(n int) string { return f(n) }

// NewPrinterLabeler returns the default fixed-locale labeler, producing
// the canonical "Camera N" names the numbering scan recognises.
func NewPrinterLabeler() Labeler {
	p := message.NewPrinter(language.English)
	return LabelFunc(func(n int) string {
		return p.Sprintf("Camera %d", n)
	})
}

var cameraNamePattern = regexp.MustCompile(`^Camera ([0-9]+)$`)

// NextCameraNumber scans every track name in the sector for the
// canonical "Camera <number>" pattern and returns one past the highest
// number found. Gaps are never reused: with "Camera 1" and "Camera 3"
// present the next number is 4. Names that do not follow the pattern
// (including localized ones) do not contribute.
func NextCameraNumber(tracks []*Track) int {
	highest := 0
	for _, t := range tracks {
		m := cameraNamePattern.FindStringSubmatch(t.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}

// NextTrackIndex returns the next sequential index for the sector,
// counting every track regardless of type.
func NextTrackIndex(tracks []*Track) int {
	next := 0
	for _, t := range tracks {
		if t.Index >= next {
			next = t.Index + 1
		}
	}
	return next
}
