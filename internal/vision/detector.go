package vision

import (
	"image"
)

// Box is a pixel-space bounding box, x1/y1 top-left.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (b Box) Center() (int, int) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

type Detection struct {
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
	ClassID    int     `json:"class_id"`
}

// Detector is the black-box model contract. Implementations own the model
// handles; they are constructed once at startup and closed on shutdown,
// never looked up through package state.
type Detector interface {
	// DetectPlates returns plate bounding boxes found in a full frame.
	DetectPlates(img image.Image) ([]Detection, error)
	// RecognizeChars returns character detections within a cropped plate.
	RecognizeChars(crop image.Image) ([]Detection, error)
	Close() error
}

// classChars maps the character model's class ids to glyphs: digits 0-9
// followed by the Persian alphabet, in model training order.
var classChars = map[int]string{
	0: "0", 1: "1", 2: "2", 3: "3", 4: "4",
	5: "5", 6: "6", 7: "7", 8: "8", 9: "9",
	10: "الف", 11: "ب", 12: "پ", 13: "ت", 14: "ث",
	15: "ج", 16: "چ", 17: "ح", 18: "خ", 19: "د",
	20: "ذ", 21: "ر", 22: "ز", 23: "ژ", 24: "س",
	25: "ش", 26: "ص", 27: "ض", 28: "ط", 29: "ظ",
	30: "ع", 31: "غ", 32: "ف", 33: "ق", 34: "ک",
	35: "گ", 36: "ل", 37: "م", 38: "ن", 39: "و",
	40: "ه", 41: "ی",
}

// CharForClass returns the glyph for a class id, or "" for an unknown class.
func CharForClass(id int) string {
	return classChars[id]
}
