package vision

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"
)

// RemoteDetector talks to the inference sidecar hosting the plate and
// character models. Each call posts the image as JPEG and reads the
// detections back as JSON.
type RemoteDetector struct {
	client       *http.Client
	detectURL    string
	recognizeURL string
}

func NewRemoteDetector(detectURL, recognizeURL string, timeout time.Duration) *RemoteDetector {
	return &RemoteDetector{
		client:       &http.Client{Timeout: timeout},
		detectURL:    detectURL,
		recognizeURL: recognizeURL,
	}
}

func (d *RemoteDetector) DetectPlates(img image.Image) ([]Detection, error) {
	return d.infer(d.detectURL, img)
}

func (d *RemoteDetector) RecognizeChars(crop image.Image) ([]Detection, error) {
	return d.infer(d.recognizeURL, crop)
}

func (d *RemoteDetector) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

func (d *RemoteDetector) infer(url string, img image.Image) ([]Detection, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	resp, err := d.client.Post(url, "image/jpeg", &buf)
	if err != nil {
		return nil, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference server returned %s", resp.Status)
	}

	var out struct {
		Detections []Detection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}
	return out.Detections, nil
}
