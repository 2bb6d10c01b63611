package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"subpulse/internal/config"
	"subpulse/internal/services"
	"subpulse/internal/timeline"
)

const (
	defaultTimeout            = 120 * time.Second
	defaultTranscriptionModel = "whisper-1"
)

// chatCompleter is the slice of the OpenAI client used for enrichment.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// audioTranscriber is the slice of the OpenAI client used for clock-offset
// transcription.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var (
	_ chatCompleter    = (*openai.Client)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// NodeAnnotation carries the model's enrichment for a single dialogue node.
type NodeAnnotation struct {
	ID           string           `json:"id"`
	SourceTokens []timeline.Token `json:"source_tokens"`
	TargetTokens []timeline.Token `json:"target_tokens"`
	Notes        []string         `json:"notes,omitempty"`
}

// TranscriptSegment is a timed span of machine-transcribed speech.
type TranscriptSegment struct {
	Start float64
	End   float64
	Text  string
}

// Client talks to an OpenAI-compatible endpoint for subtitle enrichment and
// audio transcription.
type Client struct {
	chat       chatCompleter
	audio      audioTranscriber
	model      string
	transcribe string
	language   string
	reference  string
	retry      services.RetryConfig
}

// Option customizes the client.
type Option func(*Client)

// WithChatCompleter overrides the chat backend (tests inject fakes here).
func WithChatCompleter(c chatCompleter) Option {
	return func(cl *Client) {
		if c != nil {
			cl.chat = c
		}
	}
}

// WithTranscriber overrides the transcription backend.
func WithTranscriber(t audioTranscriber) Option {
	return func(cl *Client) {
		if t != nil {
			cl.audio = t
		}
	}
}

// WithRetryConfig overrides the backoff schedule.
func WithRetryConfig(cfg services.RetryConfig) Option {
	return func(cl *Client) {
		cl.retry = cfg
	}
}

// newHTTPClient builds the transport handed to the OpenAI client. The config
// slot is an HTTPDoer interface, so the request timeout has to be set on a
// concrete client before assignment.
func newHTTPClient(timeoutSeconds int) *http.Client {
	timeout := defaultTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// NewClient constructs an analysis client from application config.
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "analysis", "new", "config required", nil)
	}
	if strings.TrimSpace(cfg.Analysis.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "analysis", "new", "analysis api_key required", nil)
	}

	clientConfig := openai.DefaultConfig(cfg.Analysis.APIKey)
	if cfg.Analysis.BaseURL != "" {
		clientConfig.BaseURL = cfg.Analysis.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(cfg.Analysis.TimeoutSeconds)
	backend := openai.NewClientWithConfig(clientConfig)

	retry := services.DefaultRetryConfig()
	if cfg.Analysis.RetryMax > 0 {
		retry.MaxRetries = cfg.Analysis.RetryMax
	}
	if cfg.Analysis.RetryInitialSeconds > 0 {
		retry.InitialDelay = time.Duration(cfg.Analysis.RetryInitialSeconds) * time.Second
	}

	client := &Client{
		chat:       backend,
		audio:      backend,
		model:      cfg.Analysis.Model,
		transcribe: defaultTranscriptionModel,
		language:   cfg.Study.Language,
		reference:  cfg.Study.ReferenceLanguage,
		retry:      retry,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type batchPayload struct {
	Nodes []NodeAnnotation `json:"nodes"`
}

// AnnotateBatch sends one sub-batch of dialogue nodes for enrichment and
// returns the annotations keyed by node ID. Unknown IDs in the response are
// dropped; missing IDs are simply absent from the result.
func (c *Client) AnnotateBatch(ctx context.Context, nodes []timeline.DialogueNode) ([]NodeAnnotation, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	userPrompt, err := buildBatchPrompt(nodes)
	if err != nil {
		return nil, services.Wrap(services.ErrAnalysis, "annotate", "encode", "build batch prompt", err)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(c.language, c.reference)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	content, err := services.Retry(ctx, c.retry, "annotate batch", func(ctx context.Context) (string, error) {
		resp, err := c.chat.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", services.Wrap(services.ErrAnalysis, "annotate", "complete", "response has no choices", nil)
		}
		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			return "", services.Wrap(services.ErrAnalysis, "annotate", "complete", "response content is empty", nil)
		}
		return content, nil
	})
	if err != nil {
		return nil, err
	}

	var payload batchPayload
	if err := DecodeJSON(content, &payload); err != nil {
		return nil, services.Wrap(services.ErrAnalysis, "annotate", "decode", "parse annotation payload", err)
	}

	known := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		known[node.ID] = struct{}{}
	}
	annotations := payload.Nodes[:0]
	for _, annotation := range payload.Nodes {
		if _, ok := known[annotation.ID]; !ok {
			continue
		}
		annotations = append(annotations, annotation)
	}
	return annotations, nil
}

// TranscribeSample runs speech recognition over a short audio clip and
// returns the timed segments the model heard.
func (c *Client) TranscribeSample(ctx context.Context, audio []byte, filename string) ([]TranscriptSegment, error) {
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrAnalysis, "transcribe", "validate", "empty audio sample", nil)
	}
	if strings.TrimSpace(filename) == "" {
		filename = "sample.ogg"
	}

	req := openai.AudioRequest{
		Model:    c.transcribe,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	if c.language != "" {
		req.Language = baseLanguageCode(c.language)
	}

	resp, err := services.Retry(ctx, c.retry, "transcribe sample", func(ctx context.Context) (openai.AudioResponse, error) {
		return c.audio.CreateTranscription(ctx, req)
	})
	if err != nil {
		return nil, services.Wrap(services.ErrAnalysis, "transcribe", "request", "transcription failed", err)
	}

	segments := make([]TranscriptSegment, 0, len(resp.Segments))
	for _, segment := range resp.Segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		segments = append(segments, TranscriptSegment{
			Start: segment.Start,
			End:   segment.End,
			Text:  text,
		})
	}
	if len(segments) == 0 && strings.TrimSpace(resp.Text) != "" {
		segments = append(segments, TranscriptSegment{Start: 0, End: resp.Duration, Text: strings.TrimSpace(resp.Text)})
	}
	return segments, nil
}

func buildBatchPrompt(nodes []timeline.DialogueNode) (string, error) {
	type promptNode struct {
		ID      string `json:"id"`
		Speaker string `json:"speaker,omitempty"`
		Text    string `json:"text"`
	}
	batch := struct {
		Nodes []promptNode `json:"nodes"`
	}{Nodes: make([]promptNode, 0, len(nodes))}
	for _, node := range nodes {
		batch.Nodes = append(batch.Nodes, promptNode{ID: node.ID, Speaker: node.Speaker, Text: node.Text()})
	}
	encoded, err := json.Marshal(batch)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// baseLanguageCode reduces a language tag to the two-letter base the
// transcription endpoint accepts.
func baseLanguageCode(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if idx := strings.IndexAny(language, "-_"); idx > 0 {
		language = language[:idx]
	}
	if len(language) > 2 {
		language = language[:2]
	}
	return language
}
