package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kartlane/storefront-backend/pkg/config"
	pkgerrors "github.com/kartlane/storefront-backend/pkg/errors"
	"github.com/kartlane/storefront-backend/pkg/logger"
)

const defaultTimeout = 45 * time.Second

var errAPIKeyRequired = errors.New("openrouter api key is required")

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client calls the OpenRouter chat-completions endpoint with a bounded
// timeout. Transport failures surface as dependency errors; unusable bodies
// as bad-upstream errors.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient validates configuration and builds an OpenRouter client.
func NewClient(cfg config.OpenRouterConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     apiKey,
		model:      cfg.Model,
	}

	if logg != nil {
		logg.Info(context.Background(), fmt.Sprintf("openrouter client initialized (%s)", cfg.Model))
	}
	return client, nil
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the system prompt plus conversation to the model and returns
// the assistant message content verbatim. The content is untrusted text; the
// caller is responsible for extraction and validation.
func (c *Client) Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	payload := chatRequest{
		Model:    c.model,
		Messages: make([]Message, 0, len(messages)+1),
	}
	if systemPrompt != "" {
		payload.Messages = append(payload.Messages, Message{Role: "system", Content: systemPrompt})
	}
	payload.Messages = append(payload.Messages, messages...)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode model request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build model request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "model request timed out, please try again")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "model endpoint unreachable, please try again")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read model response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("model endpoint returned status %d", resp.StatusCode))
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeBadUpstream, err, "decode model response")
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", pkgerrors.New(pkgerrors.CodeBadUpstream, "model response contained no content")
	}

	return decoded.Choices[0].Message.Content, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
