package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/formflow/go-formflow"
	"github.com/formflow/go-formflow/agent"
	"github.com/formflow/go-formflow/client"
	"github.com/formflow/go-formflow/tool"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	detail    *client.FormDetail
	detailErr error
	report    *client.ResponseReport
	files     []client.DriveFile
	created   *client.CreateResult
	deleted   []formflow.FormID
}

func (s *stubAPI) CreateForm(spec formflow.FormSpec) (*client.CreateResult, error) {
	return s.created, nil
}
func (s *stubAPI) GetForm(formID formflow.FormID) (*client.FormDetail, error) {
	return s.detail, s.detailErr
}
func (s *stubAPI) AddQuestions(formflow.FormID, []formflow.QuestionSpec) (*client.BatchResult, error) {
	return nil, errors.New("not expected")
}
func (s *stubAPI) UpdateQuestions(formflow.FormID, []client.QuestionUpdate) (*client.BatchResult, error) {
	return nil, errors.New("not expected")
}
func (s *stubAPI) DeleteQuestions(formflow.FormID, []int64) error { return errors.New("not expected") }
func (s *stubAPI) UpdateInfo(formflow.FormID, string, string) error {
	return errors.New("not expected")
}
func (s *stubAPI) ConfigureSettings(formflow.FormID, formflow.SettingsSpec) (*client.SettingsResult, error) {
	return nil, errors.New("not expected")
}
func (s *stubAPI) ListResponses(formID formflow.FormID) (*client.ResponseReport, error) {
	return s.report, nil
}
func (s *stubAPI) DeleteForm(formID formflow.FormID) error {
	s.deleted = append(s.deleted, formID)
	return nil
}
func (s *stubAPI) ListForms(string) ([]client.DriveFile, error) { return s.files, nil }
func (s *stubAPI) ShareForm(formflow.FormID, formflow.Grantee, formflow.Role) ([]client.Permission, error) {
	return nil, errors.New("not expected")
}
func (s *stubAPI) UnshareForm(formflow.FormID, formflow.Grantee) ([]client.Permission, error) {
	return nil, errors.New("not expected")
}
func (s *stubAPI) CreateFolder(string, string) (*client.DriveFile, error) {
	return nil, errors.New("not expected")
}
func (s *stubAPI) MoveForm(formflow.FormID, string) error { return errors.New("not expected") }

type stubDispatcher struct {
	decision agent.Decision
}

func (s *stubDispatcher) Dispatch(ctx context.Context, utterance string) (agent.Decision, error) {
	return s.decision, nil
}

func newTestServer(api *stubAPI, dispatcher agent.Dispatcher) *Server {
	gin.SetMode(gin.TestMode)
	tools := tool.NewToolset(api)
	if dispatcher == nil {
		dispatcher = &stubDispatcher{decision: agent.Decision{Reply: "ok"}}
	}
	return NewServer(tools, agent.NewRunner(dispatcher, tools), OAuthConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost/auth/callback",
	})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestListFormsEndpoint(t *testing.T) {
	api := &stubAPI{files: []client.DriveFile{{ID: "form1", Name: "Survey"}}}
	s := newTestServer(api, nil)

	w := do(t, s, http.MethodGet, "/api/forms", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body["result"])
	assert.Equal(t, float64(1), body["count"])
}

func TestCreateFormEndpoint(t *testing.T) {
	api := &stubAPI{created: &client.CreateResult{
		Form:  client.FormInfo{ID: "form1", Title: "Science Quiz", EditURL: "https://docs.google.com/forms/d/form1/edit"},
		Batch: client.BatchResult{Succeeded: 1},
	}}
	s := newTestServer(api, nil)

	w := do(t, s, http.MethodPost, "/api/forms",
		`{"title":"Science Quiz","form_type":"quiz","questions":[{"type":"multiple_choice","question":"What is 2+2?","options":["3","4","5","6"]}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "form1", body["form_id"])
}

func TestCreateFormEndpointValidation(t *testing.T) {
	s := newTestServer(&stubAPI{}, nil)

	w := do(t, s, http.MethodPost, "/api/forms", `{"description":"missing title"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetFormEndpointNotFound(t *testing.T) {
	api := &stubAPI{detailErr: formflow.NewAPIError("failed to get form", formflow.ErrNotFound)}
	s := newTestServer(api, nil)

	w := do(t, s, http.MethodGet, "/api/forms/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteFormEndpoint(t *testing.T) {
	api := &stubAPI{}
	s := newTestServer(api, nil)

	w := do(t, s, http.MethodDelete, "/api/forms/form1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []formflow.FormID{"form1"}, api.deleted)
}

func TestAnalyticsEndpoint(t *testing.T) {
	api := &stubAPI{report: &client.ResponseReport{
		Questions: map[string]string{"q1": "What is 2+2?"},
		Responses: []client.ResponseSummary{
			{ResponseID: "r1", Answers: map[string][]string{"q1": {"4"}}},
			{ResponseID: "r2", Answers: map[string][]string{"q1": {"4"}}},
			{ResponseID: "r3", Answers: map[string][]string{"q1": {"3"}}},
		},
	}}
	s := newTestServer(api, nil)

	w := do(t, s, http.MethodGet, "/api/forms/form1/analytics", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Result        string              `json:"result"`
		ResponseCount float64             `json:"response_count"`
		Questions     []questionAnalytics `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Result)
	assert.Equal(t, float64(3), body.ResponseCount)
	require.Len(t, body.Questions, 1)
	assert.Equal(t, "What is 2+2?", body.Questions[0].Title)
	assert.Equal(t, map[string]int{"4": 2, "3": 1}, body.Questions[0].Counts)
	assert.Equal(t, 3, body.Questions[0].Total)
}

func TestChatEndpoint(t *testing.T) {
	api := &stubAPI{files: []client.DriveFile{{ID: "form1", Name: "Survey"}}}
	dispatcher := &stubDispatcher{decision: agent.Decision{
		Op:   tool.OpListForms,
		Args: json.RawMessage(`{}`),
	}}
	s := newTestServer(api, dispatcher)

	w := do(t, s, http.MethodPost, "/api/agent/chat", `{"message":"list my forms"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body["result"])
	assert.Equal(t, float64(1), body["count"])
}

func TestChatEndpointRequiresMessage(t *testing.T) {
	s := newTestServer(&stubAPI{}, nil)

	w := do(t, s, http.MethodPost, "/api/agent/chat", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRedirectsToGoogle(t *testing.T) {
	s := newTestServer(&stubAPI{}, nil)

	w := do(t, s, http.MethodGet, "/auth/login", "")
	require.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	assert.Contains(t, location, "accounts.google.com")
	assert.Contains(t, location, "client_id=id")
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	s := newTestServer(&stubAPI{}, nil)

	w := do(t, s, http.MethodGet, "/auth/callback?state=forged&code=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
