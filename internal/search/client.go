// internal/search/client.go
package search

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"onboarding-engine/internal/catalog"
	"onboarding-engine/internal/common/config"
	apperrors "onboarding-engine/internal/common/errors"
	"onboarding-engine/internal/common/logger"
)

// Mode selects the collaborator query shape.
type Mode string

const (
	ModeByCountry Mode = "by-country"
	ModeByQuery   Mode = "by-query"
)

// ProfileContext is the optional profile slice sent with a request so the
// collaborator can bias its results.
type ProfileContext struct {
	GPA              float64 `json:"gpa,omitempty"`
	Bachelors        string  `json:"bachelors,omitempty"`
	TargetUniversity string  `json:"targetUniversity,omitempty"`
}

// Request is the search collaborator contract.
type Request struct {
	Mode    Mode            `json:"mode"`
	Country string          `json:"country,omitempty"`
	Course  string          `json:"course,omitempty"`
	Query   string          `json:"query,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Profile *ProfileContext `json:"profileContext,omitempty"`
}

// Response carries partial candidates; every field may be absent and the
// caller is responsible for defaulting via catalog.Normalize.
type Response struct {
	Universities []catalog.PartialCandidate `json:"universities"`
}

// Collaborator is the external AI-backed university search service. Its
// output is untrusted, possibly-missing data.
type Collaborator interface {
	Search(ctx context.Context, req Request) (*Response, error)
}

// Client implements Collaborator on top of an OpenAI-compatible chat
// completion endpoint. The model is asked for a strict JSON payload and the
// reply is parsed leniently; anything unparseable is zero results.
type Client struct {
	ai       openai.Client
	model    string
	maxBatch int
	logger   logger.Logger
}

func NewClient(cfg config.SearchConfig, log logger.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(time.Duration(cfg.Timeout) * time.Millisecond),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	return &Client{
		ai:       openai.NewClient(opts...),
		model:    cfg.Model,
		maxBatch: cfg.MaxBatch,
		logger:   log.WithFields(map[string]interface{}{"component": "search-collaborator"}),
	}
}

func (c *Client) Search(ctx context.Context, req Request) (*Response, error) {
	if req.Limit <= 0 || req.Limit > c.maxBatch {
		req.Limit = c.maxBatch
	}

	completion, err := c.ai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildUserPrompt(req)),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewSearchTimeoutError(string(req.Mode))
		}
		return nil, apperrors.NewSearchFailedError(err)
	}

	if len(completion.Choices) == 0 {
		return &Response{}, nil
	}

	partials := parsePayload(completion.Choices[0].Message.Content)
	if len(partials) > req.Limit {
		partials = partials[:req.Limit]
	}

	c.logger.Debug("collaborator search completed", map[string]interface{}{
		"mode":    string(req.Mode),
		"results": len(partials),
	})

	return &Response{Universities: partials}, nil
}

// parsePayload extracts the first JSON array from the model reply and
// unmarshals it. Malformed payloads are zero results, never an error.
func parsePayload(content string) []catalog.PartialCandidate {
	raw := extractJSONArray(content)
	if raw == "" {
		return nil
	}

	var partials []catalog.PartialCandidate
	if err := json.Unmarshal([]byte(raw), &partials); err != nil {
		// Some models wrap the array in {"universities": [...]}.
		var wrapped Response
		if err := json.Unmarshal([]byte(extractJSONObject(content)), &wrapped); err != nil {
			return nil
		}
		return wrapped.Universities
	}
	return partials
}

func extractJSONArray(content string) string {
	start := -1
	depth := 0
	for i, r := range content {
		switch r {
		case '[':
			if start == -1 {
				start = i
			}
			depth++
		case ']':
			if start != -1 {
				depth--
				if depth == 0 {
					return content[start : i+1]
				}
			}
		}
	}
	return ""
}

func extractJSONObject(content string) string {
	start := -1
	depth := 0
	for i, r := range content {
		switch r {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return content[start : i+1]
				}
			}
		}
	}
	return ""
}
