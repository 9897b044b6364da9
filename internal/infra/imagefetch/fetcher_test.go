package imagefetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte{0x01, 0x02, 0x03}) //nolint:errcheck
	}))
	defer srv.Close()

	img, err := New(5*time.Second).Fetch(context.Background(), srv.URL+"/photos/machine.PNG")
	require.NoError(t, err)

	assert.Equal(t, "Mozilla/5.0", ua)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, img.Data)
	assert.Equal(t, "png", img.Extension)
	assert.Equal(t, "image/png", img.ContentType())
	assert.Equal(t, "data:image/png;base64,AQID", img.DataURI())
}

func TestFetchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New(5*time.Second).Fetch(context.Background(), srv.URL+"/missing.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Image download failed: status 404")
}

func TestFetchTransportError(t *testing.T) {
	_, err := New(time.Second).Fetch(context.Background(), "http://127.0.0.1:1/a.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Image download failed")
}

func TestExtensionFromURL(t *testing.T) {
	cases := map[string]string{
		"https://x.example.com/a.jpg":           "jpg",
		"https://x.example.com/a.JPEG":          "jpeg",
		"https://x.example.com/a.png?token=abc": "png",
		"https://x.example.com/noextension":     "jpeg",
		"https://x.example.com/trailing.":       "jpeg",
		"https://x.example.com/path.d/noext":    "jpeg",
		"https://x.example.com/a.webp":          "webp",
		"":                                      "jpeg",
	}
	for in, want := range cases {
		assert.Equal(t, want, extensionFromURL(in), in)
	}
}
