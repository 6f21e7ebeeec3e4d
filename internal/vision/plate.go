package vision

import (
	"fmt"
	"image"
	"regexp"
	"sort"
	"strings"
)

var (
	cleanRe    = regexp.MustCompile(`[^0-9آ-ی]`)
	nationalRe = regexp.MustCompile(`^(\d{2})([آ-ی])(\d{3})(\d{2})$`)
	freeZoneRe = regexp.MustCompile(`^(\d{5})(\d{2})$`)
	digitsRe   = regexp.MustCompile(`\D`)
	letterRe   = regexp.MustCompile(`[آ-ی]`)
)

// freeZoneRegions maps the two-digit region code of an all-digit plate to
// its free-trade-zone name.
var freeZoneRegions = map[string]string{
	"22": "KISH",
	"33": "ARVAND",
	"44": "MAKU",
	"55": "ARAS",
	"77": "CHABAHAR",
}

// ownershipLetters are the letter symbols that appear on issued plates,
// multi-rune 'الف' first so it is matched before its single-rune pieces.
var ownershipLetters = []string{
	"الف", "ب", "پ", "ت", "ث", "ج", "د", "ز", "س", "ش",
	"ص", "ط", "ع", "ف", "ق", "ک", "گ", "ل", "م", "ن",
	"و", "ه", "ی",
}

// NormalizeGlyph folds visually equivalent glyph variants the character
// model emits into one canonical form.
func NormalizeGlyph(ch string) string {
	if ch == "ه‍" {
		return "ه"
	}
	if strings.HasPrefix(ch, "ژ") {
		return "ژ"
	}
	return ch
}

// CleanPlate strips everything outside digits and plate letters.
func CleanPlate(s string) string {
	return cleanRe.ReplaceAllString(s, "")
}

// FormatPlate tries the national layout (2 digits, letter, 3 digits,
// 2 digits) then the free-zone layout (5 digits, 2 digits), returning
// space-joined groups. An unmatched string comes back cleaned but
// otherwise unchanged; the caller decides whether to accept it.
func FormatPlate(raw string) string {
	s := CleanPlate(raw)

	if m := nationalRe.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s %s %s %s", m[1], m[2], m[3], m[4])
	}
	if m := freeZoneRe.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s %s", m[1], m[2])
	}
	return s
}

// FreeZoneRegion names the free-trade zone of an all-digit plate. National
// plates carry a letter and never map to a zone.
func FreeZoneRegion(plate string) string {
	if letterRe.MatchString(plate) {
		return ""
	}
	digits := digitsRe.ReplaceAllString(plate, "")
	if m := freeZoneRe.FindStringSubmatch(digits); m != nil {
		return freeZoneRegions[m[2]]
	}
	return ""
}

// DecodePlate runs character recognition on a cropped plate and assembles
// the formatted string: detections below confThreshold are dropped, the
// rest read left to right. Recognition noise never surfaces as an error;
// an empty string means no plate was read from this crop.
func DecodePlate(det Detector, crop image.Image, confThreshold float64) (string, error) {
	dets, err := det.RecognizeChars(crop)
	if err != nil {
		return "", err
	}

	kept := dets[:0:0]
	for _, d := range dets {
		if d.Confidence >= confThreshold {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return "", nil
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Box.X1 < kept[j].Box.X1 })

	var b strings.Builder
	for _, d := range kept {
		b.WriteString(NormalizeGlyph(CharForClass(d.ClassID)))
	}
	return FormatPlate(b.String()), nil
}

// ValidOwnershipPlate checks the registry grammar: separators and the
// country token are tolerated, then the digits around a single plate
// letter must form one of the issued layouts (5, 6 or 7 digits with the
// letter in an allowed position).
func ValidOwnershipPlate(plate string) bool {
	s := strings.TrimSpace(plate)
	for _, sep := range []string{" ", "-", "|", "ایران"} {
		s = strings.ReplaceAll(s, sep, "")
	}
	if s == "" {
		return false
	}

	letterStart, letterEnd := -1, -1
	for _, letter := range ownershipLetters {
		if idx := strings.Index(s, letter); idx != -1 {
			letterStart, letterEnd = idx, idx+len(letter)
			break
		}
	}
	if letterStart == -1 {
		if loc := letterRe.FindStringIndex(s); loc != nil {
			letterStart, letterEnd = loc[0], loc[1]
		}
	}
	if letterStart == -1 {
		return false
	}

	before := s[:letterStart]
	after := s[letterEnd:]
	if !allDigits(before) || !allDigits(after) {
		return false
	}

	nb, na := len(before), len(after)
	switch nb + na {
	case 7:
		return (nb == 2 && na == 5) || (nb == 5 && na == 2) || nb == 0 || na == 0
	case 6:
		return (nb == 2 && na == 4) || (nb == 4 && na == 2) ||
			(nb == 3 && na == 3) || nb == 0 || na == 0
	case 5:
		return (nb == 2 && na == 3) || (nb == 3 && na == 2) || nb == 0 || na == 0
	}
	return false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
