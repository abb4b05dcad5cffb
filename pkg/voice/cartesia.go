package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

const (
	cartesiaBaseURL = "https://api.cartesia.ai"
	cartesiaVersion = "2025-04-16"

	defaultTTSModel = "sonic-3"
	defaultSTTModel = "ink-whisper"
)

// Cartesia implements Synthesizer and Transcriber against Cartesia's API.
type Cartesia struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// CartesiaOption configures the client.
type CartesiaOption func(*Cartesia)

// WithCartesiaBaseURL overrides the API endpoint.
func WithCartesiaBaseURL(baseURL string) CartesiaOption {
	return func(c *Cartesia) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithCartesiaHTTPClient sets a custom HTTP client.
func WithCartesiaHTTPClient(client *http.Client) CartesiaOption {
	return func(c *Cartesia) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewCartesia creates a Cartesia speech I/O client.
func NewCartesia(apiKey string, opts ...CartesiaOption) *Cartesia {
	c := &Cartesia{
		apiKey:     apiKey,
		baseURL:    cartesiaBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider identifier.
func (c *Cartesia) Name() string {
	return "cartesia"
}

type cartesiaVoiceSpec struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding,omitempty"`
	SampleRate int    `json:"sample_rate"`
}

type cartesiaTTSRequest struct {
	ModelID      string               `json:"model_id"`
	Transcript   string               `json:"transcript"`
	Voice        cartesiaVoiceSpec    `json:"voice"`
	OutputFormat cartesiaOutputFormat `json:"output_format"`
	Language     *string              `json:"language,omitempty"`
}

// Synthesize renders text to audio bytes.
func (c *Cartesia) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	format := opts.Format
	if format == "" {
		format = "wav"
	}
	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 48000
	}

	reqBody := cartesiaTTSRequest{
		ModelID:    defaultTTSModel,
		Transcript: text,
		Voice:      cartesiaVoiceSpec{Mode: "id", ID: opts.Voice},
		OutputFormat: cartesiaOutputFormat{
			Container:  format,
			SampleRate: sampleRate,
		},
	}
	if format == "pcm" {
		reqBody.OutputFormat.Container = "raw"
		reqBody.OutputFormat.Encoding = "pcm_s16le"
	}
	if opts.Language != "" {
		reqBody.Language = &opts.Language
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts/bytes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Cartesia-Version", cartesiaVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cartesia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("cartesia tts: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return &Synthesis{Audio: audio, Format: format}, nil
}

// Transcribe converts audio bytes to text.
func (c *Cartesia) Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	ext := opts.Format
	if ext == "" {
		ext = "wav"
	}
	fw, err := mw.CreateFormFile("file", "audio."+ext)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultSTTModel
	}
	if err := mw.WriteField("model", model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if opts.Language != "" {
		if err := mw.WriteField("language", opts.Language); err != nil {
			return "", fmt.Errorf("write language field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	reqURL := c.baseURL + "/stt"
	if opts.SampleRate > 0 {
		u, parseErr := url.Parse(reqURL)
		if parseErr == nil {
			q := u.Query()
			q.Set("sample_rate", fmt.Sprintf("%d", opts.SampleRate))
			u.RawQuery = q.Encode()
			reqURL = u.String()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Cartesia-Version", cartesiaVersion)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cartesia request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cartesia stt: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}
