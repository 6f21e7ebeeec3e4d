package vision

import (
	"image"
	"testing"
)

func TestFormatPlate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"national layout", "12ب34567", "12 ب 345 67"},
		{"national with noise stripped", "12-ب 345|67", "12 ب 345 67"},
		{"free zone layout", "1234577", "12345 77"},
		{"unmatched returned cleaned", "12ب345", "12ب345"},
		{"too many digits unmatched", "123456789", "123456789"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPlate(tt.in); got != tt.want {
				t.Errorf("FormatPlate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeGlyph(t *testing.T) {
	if got := NormalizeGlyph("ه‍"); got != "ه" {
		t.Errorf("joined heh not folded, got %q", got)
	}
	if got := NormalizeGlyph("ژِ"); got != "ژ" {
		t.Errorf("zhe variant not folded, got %q", got)
	}
	if got := NormalizeGlyph("ب"); got != "ب" {
		t.Errorf("plain glyph changed, got %q", got)
	}
}

func TestCleanPlate(t *testing.T) {
	if got := CleanPlate("12 ب 345-67!"); got != "12ب34567" {
		t.Errorf("CleanPlate = %q", got)
	}
}

func TestFreeZoneRegion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12345 77", "CHABAHAR"},
		{"12345 22", "KISH"},
		{"12345 99", ""},
		{"12 ب 345 67", ""}, // national plates never map to a zone
		{"1234", ""},
	}
	for _, tt := range tests {
		if got := FreeZoneRegion(tt.in); got != tt.want {
			t.Errorf("FreeZoneRegion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidOwnershipPlate(t *testing.T) {
	valid := []string{
		"12ب345-67",
		"12 ب 345 67",
		"13الف111-10",
		"12ب345",
		"12ب34567ایران",
	}
	for _, p := range valid {
		if !ValidOwnershipPlate(p) {
			t.Errorf("ValidOwnershipPlate(%q) = false, want true", p)
		}
	}

	invalid := []string{
		"",
		"1234567",   // no letter
		"ب",         // no digits
		"12ب3",      // too few digits
		"12ب3456789", // too many digits
		"1x2ب345",   // latin junk between digits
	}
	for _, p := range invalid {
		if ValidOwnershipPlate(p) {
			t.Errorf("ValidOwnershipPlate(%q) = true, want false", p)
		}
	}
}

// scriptedDetector returns canned character detections.
type scriptedDetector struct {
	chars []Detection
}

func (d *scriptedDetector) DetectPlates(image.Image) ([]Detection, error) { return nil, nil }
func (d *scriptedDetector) RecognizeChars(image.Image) ([]Detection, error) {
	return d.chars, nil
}
func (d *scriptedDetector) Close() error { return nil }

func charDet(class, x int, conf float64) Detection {
	return Detection{
		Box:        Box{X1: x, Y1: 0, X2: x + 10, Y2: 20},
		Confidence: conf,
		ClassID:    class,
	}
}

func TestDecodePlate(t *testing.T) {
	// "12ب34567" with detections deliberately out of reading order.
	det := &scriptedDetector{chars: []Detection{
		charDet(3, 40, 0.9),  // 3
		charDet(1, 0, 0.9),   // 1
		charDet(11, 20, 0.8), // ب
		charDet(2, 10, 0.9),  // 2
		charDet(4, 50, 0.9),  // 4
		charDet(5, 60, 0.9),  // 5
		charDet(6, 70, 0.9),  // 6
		charDet(7, 80, 0.9),  // 7
	}}

	got, err := DecodePlate(det, image.NewRGBA(image.Rect(0, 0, 100, 20)), 0.5)
	if err != nil {
		t.Fatalf("DecodePlate: %v", err)
	}
	if got != "12 ب 345 67" {
		t.Errorf("DecodePlate = %q, want %q", got, "12 ب 345 67")
	}
}

func TestDecodePlateFiltersLowConfidence(t *testing.T) {
	det := &scriptedDetector{chars: []Detection{
		charDet(1, 0, 0.2),
		charDet(2, 10, 0.49),
	}}

	got, err := DecodePlate(det, image.NewRGBA(image.Rect(0, 0, 100, 20)), 0.5)
	if err != nil {
		t.Fatalf("DecodePlate: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty string when nothing survives filtering, got %q", got)
	}
}

func TestDecodePlateNoDetections(t *testing.T) {
	got, err := DecodePlate(&scriptedDetector{}, image.NewRGBA(image.Rect(0, 0, 10, 10)), 0.5)
	if err != nil || got != "" {
		t.Errorf("DecodePlate = (%q, %v), want empty and nil", got, err)
	}
}
