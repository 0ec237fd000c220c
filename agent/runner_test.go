package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/formflow/go-formflow"
	"github.com/formflow/go-formflow/client"
	"github.com/formflow/go-formflow/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDispatcher struct {
	decision Decision
	err      error
	last     string
}

func (s *stubDispatcher) Dispatch(ctx context.Context, utterance string) (Decision, error) {
	s.last = utterance
	return s.decision, s.err
}

// listOnlyAPI satisfies tool.FormsAPI for the operations these tests reach.
type listOnlyAPI struct {
	files  []client.DriveFile
	called bool
}

func (a *listOnlyAPI) CreateForm(formflow.FormSpec) (*client.CreateResult, error) {
	return nil, errors.New("not expected")
}
func (a *listOnlyAPI) GetForm(formflow.FormID) (*client.FormDetail, error) {
	return nil, errors.New("not expected")
}
func (a *listOnlyAPI) AddQuestions(formflow.FormID, []formflow.QuestionSpec) (*client.BatchResult, error) {
	return nil, errors.New("not expected")
}
func (a *listOnlyAPI) UpdateQuestions(formflow.FormID, []client.QuestionUpdate) (*client.BatchResult, error) {
	return nil, errors.New("not expected")
}
func (a *listOnlyAPI) DeleteQuestions(formflow.FormID, []int64) error {
	return errors.New("not expected")
}
func (a *listOnlyAPI) UpdateInfo(formflow.FormID, string, string) error {
	return errors.New("not expected")
}
func (a *listOnlyAPI) ConfigureSettings(formflow.FormID, formflow.SettingsSpec) (*client.SettingsResult, error) {
	return nil, errors.New("not expected")
}
func (a *listOnlyAPI) ListResponses(formflow.FormID) (*client.ResponseReport, error) {
	return nil, errors.New("not expected")
}
func (a *listOnlyAPI) DeleteForm(formflow.FormID) error {
	return errors.New("not expected")
}
func (a *listOnlyAPI) ListForms(string) ([]client.DriveFile, error) {
	a.called = true
	return a.files, nil
}
func (a *listOnlyAPI) ShareForm(formflow.FormID, formflow.Grantee, formflow.Role) ([]client.Permission, error) {
	return nil, errors.New("not expected")
}
func (a *listOnlyAPI) UnshareForm(formflow.FormID, formflow.Grantee) ([]client.Permission, error) {
	return nil, errors.New("not expected")
}
func (a *listOnlyAPI) CreateFolder(string, string) (*client.DriveFile, error) {
	return nil, errors.New("not expected")
}
func (a *listOnlyAPI) MoveForm(formflow.FormID, string) error {
	return errors.New("not expected")
}

func TestRunnerInvokesChosenOperation(t *testing.T) {
	api := &listOnlyAPI{files: []client.DriveFile{{ID: "form1", Name: "Survey"}}}
	dispatcher := &stubDispatcher{decision: Decision{
		Op:   tool.OpListForms,
		Args: json.RawMessage(`{}`),
	}}
	runner := NewRunner(dispatcher, tool.NewToolset(api))

	result := runner.Run(context.Background(), tool.NewSession(), "show me my forms")
	require.True(t, result.OK())
	assert.True(t, api.called)
	assert.Equal(t, 1, result.Fields["count"])
	assert.Equal(t, "show me my forms", dispatcher.last)
}

func TestRunnerReturnsPlainReply(t *testing.T) {
	dispatcher := &stubDispatcher{decision: Decision{Reply: "A quiz assigns points to answers."}}
	runner := NewRunner(dispatcher, tool.NewToolset(&listOnlyAPI{}))

	result := runner.Run(context.Background(), tool.NewSession(), "what is a quiz?")
	require.True(t, result.OK())
	assert.Equal(t, "A quiz assigns points to answers.", result.Message)
}

func TestRunnerExplainsDispatchFailure(t *testing.T) {
	dispatcher := &stubDispatcher{err: formflow.NewAPIError("model produced a malformed decision", nil)}
	runner := NewRunner(dispatcher, tool.NewToolset(&listOnlyAPI{}))

	result := runner.Run(context.Background(), tool.NewSession(), "do something")
	require.False(t, result.OK())
	assert.Equal(t, tool.ErrorTypeAPI, result.ErrorType)
	assert.Contains(t, result.Message, "malformed decision")
}

func TestRunnerRefusesDestructivePhrases(t *testing.T) {
	dispatcher := &stubDispatcher{decision: Decision{Op: tool.OpDeleteForm}}
	runner := NewRunner(dispatcher, tool.NewToolset(&listOnlyAPI{}))

	result := runner.Run(context.Background(), tool.NewSession(), "please DELETE ALL my forms")
	require.False(t, result.OK())
	assert.Equal(t, tool.ErrorTypeValidation, result.ErrorType)
	assert.Empty(t, dispatcher.last, "dispatcher must not see refused utterances")
}

func TestModelDispatcherParsesDecision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		json.NewEncoder(w).Encode(chatCompletionResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{
					Role:    "assistant",
					Content: "```json\n{\"operation\":\"create_form\",\"arguments\":{\"title\":\"Science Quiz\"}}\n```",
				}},
			},
		})
	}))
	defer srv.Close()

	d := NewModelDispatcher(ModelConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"}, nil)
	decision, err := d.Dispatch(context.Background(), "make a science quiz")
	require.NoError(t, err)
	assert.Equal(t, tool.OpCreateForm, decision.Op)
	assert.JSONEq(t, `{"title":"Science Quiz"}`, string(decision.Args))
}

func TestParseDecision(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantOp  tool.Operation
		wantErr bool
	}{
		{"bare-json", `{"operation":"list_forms","arguments":{}}`, tool.OpListForms, false},
		{"fenced", "```json\n{\"operation\":\"list_forms\"}\n```", tool.OpListForms, false},
		{"reply-only", `{"reply":"hello"}`, "", false},
		{"unknown-op", `{"operation":"format_disk"}`, "", true},
		{"empty", `{}`, "", true},
		{"not-json", `sure, here you go`, "", true},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			decision, err := parseDecision(c.content)
			if c.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.wantOp, decision.Op)
		})
	}
}
