// Package imagefetch downloads submission images and encodes them as inline
// data URIs for the model.
package imagefetch

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const userAgent = "Mozilla/5.0"

// maxImageBytes caps the download size; anything larger than this is not a
// legitimate form photo.
const maxImageBytes = 32 << 20

// Image is a downloaded submission image.
type Image struct {
	Data      []byte
	Extension string
}

// DataURI encodes the image as an inline data URI.
func (i *Image) DataURI() string {
	return "data:image/" + i.Extension + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ContentType returns the MIME type implied by the URL extension.
func (i *Image) ContentType() string {
	return "image/" + i.Extension
}

type Fetcher struct {
	client *http.Client
}

func New(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads the image at rawURL. Any failure here is fatal for the
// session; the error message is surfaced verbatim in the callback answer.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "Image download failed")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "Image download failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("Image download failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, eris.Wrap(err, "Image download failed")
	}

	return &Image{Data: data, Extension: extensionFromURL(rawURL)}, nil
}

// extensionFromURL takes the text after the last dot, trims any query string
// and lowercases it. Falls back to jpeg when the URL carries no usable
// extension.
func extensionFromURL(rawURL string) string {
	idx := strings.LastIndex(rawURL, ".")
	if idx < 0 || idx == len(rawURL)-1 {
		return "jpeg"
	}
	ext := rawURL[idx+1:]
	if q := strings.Index(ext, "?"); q >= 0 {
		ext = ext[:q]
	}
	ext = strings.ToLower(ext)
	if ext == "" || strings.Contains(ext, "/") {
		return "jpeg"
	}
	return ext
}
