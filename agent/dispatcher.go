// Package agent maps free-text user intent onto the fixed tool operation
// surface. The model-backed selection is inherently non-deterministic and is
// confined behind the Dispatcher interface; everything around it is plain
// dispatch plumbing with a deterministic contract.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/formflow/go-formflow"
	"github.com/formflow/go-formflow/tool"
)

// Decision is the dispatcher's verdict for one utterance: either an
// operation with arguments, or a direct reply when no tool applies.
type Decision struct {
	Op    tool.Operation  `json:"operation,omitempty"`
	Args  json.RawMessage `json:"arguments,omitempty"`
	Reply string          `json:"reply,omitempty"`
}

// Dispatcher chooses one of the known operations, or a plain reply, given
// free text.
type Dispatcher interface {
	Dispatch(ctx context.Context, utterance string) (Decision, error)
}

// ModelConfig locates an OpenAI-compatible chat-completions endpoint.
type ModelConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// ModelDispatcher asks a chat-completions model to pick an operation. It
// treats the model as an opaque collaborator: whatever comes back is parsed
// strictly and rejected with an error when malformed.
type ModelDispatcher struct {
	config ModelConfig
	client *http.Client
}

func NewModelDispatcher(cfg ModelConfig, httpClient *http.Client) *ModelDispatcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ModelDispatcher{config: cfg, client: httpClient}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func systemPrompt() string {
	ops := []string{}
	for _, op := range tool.Operations() {
		ops = append(ops, string(op))
	}
	return "You are a Google Forms assistant. Decide which single operation to run " +
		"for the user's request and answer with one JSON object, nothing else: " +
		`{"operation": <one of: ` + strings.Join(ops, ", ") + `>, "arguments": {...}} ` +
		`or {"reply": "<answer>"} when no operation applies. ` +
		"Question objects use: type, question, required, options, scale, grid, grading."
}

func (d *ModelDispatcher) Dispatch(ctx context.Context, utterance string) (Decision, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: d.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt()},
			{Role: "user", Content: utterance},
		},
	})
	if err != nil {
		return Decision{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.config.BaseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return Decision{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.config.APIKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return Decision{}, formflow.NewAPIError("model request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return Decision{}, formflow.NewAPIError(
			fmt.Sprintf("model API error (status %d): %s", resp.StatusCode, payload), nil)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return Decision{}, formflow.NewAPIError("failed to decode model response", err)
	}
	if completion.Error != nil {
		return Decision{}, formflow.NewAPIError(completion.Error.Message, nil)
	}
	if len(completion.Choices) == 0 {
		return Decision{}, formflow.NewAPIError("model returned no choices", nil)
	}

	return parseDecision(completion.Choices[0].Message.Content)
}

// parseDecision extracts the JSON decision from the model output, tolerating
// a fenced code block around it.
func parseDecision(content string) (Decision, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if end := strings.LastIndex(content, "```"); end >= 0 {
			content = content[:end]
		}
		content = strings.TrimSpace(content)
	}

	var decision Decision
	if err := json.Unmarshal([]byte(content), &decision); err != nil {
		return Decision{}, formflow.NewAPIError("model produced a malformed decision", err)
	}
	if decision.Op == "" && decision.Reply == "" {
		return Decision{}, formflow.NewAPIError("model decision names no operation and no reply", nil)
	}
	if decision.Op != "" && !decision.Op.Known() {
		return Decision{}, formflow.NewAPIError(
			fmt.Sprintf("model chose unknown operation %q", decision.Op), nil)
	}
	return decision, nil
}
