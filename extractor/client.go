package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client calls the agentic document-analysis HTTP API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient creates a document-analysis client.
func NewClient(endpoint, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 5 * time.Minute},
		logger:   logger,
	}
}

// Wire format of the analysis response.
type analysisResponse struct {
	Data struct {
		Chunks []struct {
			ChunkID   string      `json:"chunk_id"`
			ChunkType string      `json:"chunk_type"`
			Text      string      `json:"text"`
			Grounding []Grounding `json:"grounding"`
		} `json:"chunks"`
	} `json:"data"`
}

// Parse uploads the page document and returns its chunks.
func (c *Client) Parse(ctx context.Context, path string) ([]Chunk, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("pdf", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	for field, value := range map[string]string{
		"include_marginalia":           "true",
		"include_metadata_in_markdown": "true",
	} {
		if err := mw.WriteField(field, value); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Basic "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("document analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("document analysis returned status %d: %s", resp.StatusCode, raw)
	}

	var ar analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}

	chunks := make([]Chunk, 0, len(ar.Data.Chunks))
	for _, ch := range ar.Data.Chunks {
		chunks = append(chunks, Chunk{
			ID:         ch.ChunkID,
			Type:       ch.ChunkType,
			Text:       ch.Text,
			Groundings: ch.Grounding,
		})
	}

	c.logger.Debug("document analysis done",
		"file", filepath.Base(path),
		"chunks", len(chunks),
		"duration", time.Since(start))
	return chunks, nil
}
