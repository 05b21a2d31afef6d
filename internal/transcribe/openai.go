package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client calls the /audio/transcriptions endpoint of an OpenAI-compatible
// API with a multipart WAV upload.
type Client struct {
	apiKey   string
	baseURL  string
	model    string
	language string
	prompt   string
	http     *http.Client
}

// NewClient creates a transcription client. baseURL defaults to the OpenAI
// API; model defaults to whisper-1. language and prompt are optional.
func NewClient(apiKey, baseURL, model, language, prompt string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "whisper-1"
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		model:    model,
		language: language,
		prompt:   prompt,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Transcribe uploads wavData and returns the transcribed text, trimmed.
func (c *Client) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("transcribe: create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return "", fmt.Errorf("transcribe: write audio data: %w", err)
	}

	fields := map[string]string{
		"model":    c.model,
		"language": c.language,
		"prompt":   c.prompt,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return "", fmt.Errorf("transcribe: write field %q: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("transcribe: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("transcribe: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcribe: %s", apiErrorMessage(resp.StatusCode, respBody))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("transcribe: parse response: %w", err)
	}

	return strings.TrimSpace(result.Text), nil
}

// apiErrorMessage extracts the API's error message when the body carries
// one, falling back to the HTTP status.
func apiErrorMessage(status int, body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return fmt.Sprintf("API error (%d): %s", status, payload.Error.Message)
	}
	return fmt.Sprintf("API error: status %d", status)
}
