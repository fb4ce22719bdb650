package parser

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockTikaServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/tika":
			assert.Equal(t, "ocr_only", r.Header.Get("X-Tika-PDFOcrStrategy"))
			assert.Equal(t, "text/plain", r.Header.Get("Accept"))
			assert.Equal(t, "scan.pdf", r.Header.Get("X-Tika-Resource-Name"))
			assert.Equal(t, "pdf-bytes", string(body))
			_, _ = w.Write([]byte("Jane Doe\nSoftware Engineer"))
		case "/meta":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"xmpTPg:NPages":"2","Content-Type":"application/pdf"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestTikaOCR_Recognize(t *testing.T) {
	server := createMockTikaServer(t)
	defer server.Close()

	ocr := NewTikaOCR(server.URL+"/", WithTikaTimeout(5*time.Second))
	res, err := ocr.Recognize(context.Background(), []byte("pdf-bytes"), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSoftware Engineer", res.Text)
	assert.Equal(t, 2, res.PageCount)
}

func TestTikaOCR_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := NewTikaOCR(server.URL).Recognize(context.Background(), []byte("x"), "a.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestTikaOCR_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewTikaOCR(url, WithTikaHTTPClient(&http.Client{Timeout: time.Second})).Recognize(context.Background(), []byte("x"), "a.pdf")
	assert.ErrorIs(t, err, ErrOCRUnavailable)
}

func TestTikaOCR_MetaFailureKeepsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/meta" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("text"))
	}))
	defer server.Close()

	res, err := NewTikaOCR(server.URL).Recognize(context.Background(), []byte("x"), "")
	require.NoError(t, err)
	assert.Equal(t, "text", res.Text)
	assert.Zero(t, res.PageCount)
}
