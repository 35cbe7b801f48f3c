package bank

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// maxDatasetSize bounds how much a source may return (32MB)
const maxDatasetSize = 32 << 20

// Source supplies the raw dataset bytes
type Source interface {
	// Name identifies the source; its extension selects the decoder
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// NewSource picks a FileSource or HTTPSource for the given location
func NewSource(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, nil)
	}
	return NewFileSource(location)
}

// FileSource reads the dataset from local disk
type FileSource struct {
	path string
}

// NewFileSource creates a new file-backed source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file path
func (s *FileSource) Name() string {
	return s.path
}

// Fetch reads the whole file
func (s *FileSource) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return data, nil
}

// HTTPSource downloads the dataset once over HTTP(S)
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a new HTTP source. A nil client gets a 30s timeout.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{url: url, client: client}
}

// Name returns the URL
func (s *HTTPSource) Name() string {
	return s.url
}

// Fetch performs a GET and returns the body on 2xx
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: status %d", s.url, resp.StatusCode)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, maxDatasetSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if n > maxDatasetSize {
		return nil, fmt.Errorf("dataset exceeds %d bytes", maxDatasetSize)
	}

	return buf.Bytes(), nil
}

// BytesSource serves an in-memory dataset
type BytesSource struct {
	name string
	data []byte
}

// NewBytesSource wraps raw bytes; name selects the decoder like a file name
func NewBytesSource(name string, data []byte) *BytesSource {
	return &BytesSource{name: name, data: data}
}

// Name returns the configured name
func (s *BytesSource) Name() string {
	return s.name
}

// Fetch returns the wrapped bytes
func (s *BytesSource) Fetch(_ context.Context) ([]byte, error) {
	return s.data, nil
}
