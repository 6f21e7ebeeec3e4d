package feed

import (
	"fmt"
	"image/jpeg"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// MJPEGSource reads frames from a camera's motion-JPEG HTTP stream, the
// secondary feed most gate cameras expose beside RTSP. The stream is one
// long multipart response; each part is a JPEG frame.
type MJPEGSource struct {
	resp  *http.Response
	parts *multipart.Reader
}

func OpenMJPEG(url string) (*MJPEGSource, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("open camera stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("open camera stream: %s", resp.Status)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		return nil, fmt.Errorf("camera stream is not multipart mjpeg (content-type %q)", resp.Header.Get("Content-Type"))
	}

	return &MJPEGSource{
		resp:  resp,
		parts: multipart.NewReader(resp.Body, params["boundary"]),
	}, nil
}

// Next blocks for the next frame. Undecodable parts are skipped; a camera
// glitch should cost one frame, not the feed. Returns io.EOF when the
// camera closes the stream.
func (s *MJPEGSource) Next() (Frame, error) {
	for {
		part, err := s.parts.NextPart()
		if err != nil {
			return Frame{}, err
		}
		img, err := jpeg.Decode(part)
		part.Close()
		if err != nil {
			continue
		}
		return Frame{Image: img, Time: time.Now()}, nil
	}
}

func (s *MJPEGSource) Close() error {
	return s.resp.Body.Close()
}
