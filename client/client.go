// Package client wraps the Google Forms and Drive services with the
// operations the formflow toolset exposes. All write calls go through a
// shared WriteGate so that batch tooling cannot exceed the service quota.
package client

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/formflow/go-formflow"
	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/forms/v1"
	"google.golang.org/api/googleapi"
)

type Client struct {
	forms  *forms.Service
	drive  *drive.Service
	gate   *WriteGate
	logger *zap.Logger
}

type Option func(*Client)

// WithLogger replaces the default no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithWriteGate replaces the default one-write-per-second gate. Passing nil
// disables gating entirely.
func WithWriteGate(gate *WriteGate) Option {
	return func(c *Client) { c.gate = gate }
}

// New creates a Client over the given Forms and Drive services.
func New(formsService *forms.Service, driveService *drive.Service, opts ...Option) *Client {
	c := &Client{
		forms:  formsService,
		drive:  driveService,
		gate:   NewWriteGate(time.Second),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FormInfo identifies a form and the URLs needed to edit it or respond to it.
type FormInfo struct {
	ID           formflow.FormID `json:"form_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	EditURL      string          `json:"edit_url"`
	ResponderURL string          `json:"responder_url,omitempty"`
}

// QuestionInfo is the read-side view of a form item, mapped back to the
// question vocabulary accepted by AddQuestions.
type QuestionInfo struct {
	ItemID     string                `json:"item_id"`
	QuestionID string                `json:"question_id,omitempty"`
	Title      string                `json:"title"`
	Type       formflow.QuestionType `json:"type"`
	Required   bool                  `json:"required,omitempty"`
	Options    []string              `json:"options,omitempty"`
	PointValue int64                 `json:"point_value,omitempty"`
}

// FormDetail is the full read-side view returned by GetForm.
type FormDetail struct {
	FormInfo
	IsQuiz          bool           `json:"is_quiz"`
	EmailCollection string         `json:"email_collection,omitempty"`
	Questions       []QuestionInfo `json:"questions"`
}

// IndexError records why a single question in a batch was not applied.
type IndexError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BatchResult reports the per-question outcome of a batch operation.
// Succeeded counts applied questions; Failed lists rejected ones by their
// position in the submitted slice; Conversions lists silent type fallbacks.
type BatchResult struct {
	Succeeded   int                         `json:"succeeded"`
	Failed      []IndexError                `json:"failed,omitempty"`
	Conversions map[int]formflow.Conversion `json:"conversions,omitempty"`
}

// CreateResult is the outcome of CreateForm: the new form plus the batch
// outcome of its initial questions.
type CreateResult struct {
	Form  FormInfo    `json:"form"`
	Batch BatchResult `json:"batch"`
}

// QuestionUpdate addresses an existing item by its index and carries the
// replacement spec. Only the fields implied by the spec's type are rewritten.
type QuestionUpdate struct {
	Index  int64                 `json:"index"`
	ItemID string                `json:"item_id,omitempty"`
	Spec   formflow.QuestionSpec `json:"question"`
}

// SettingsResult reports which settings were applied and which the Forms
// service has no field for.
type SettingsResult struct {
	Applied []string `json:"applied"`
	Skipped []string `json:"skipped,omitempty"`
}

func editURL(id string) string {
	return fmt.Sprintf("https://docs.google.com/forms/d/%s/edit", id)
}

// wrapAPIError maps a 404 to ErrNotFound and everything else to ErrAPIError,
// keeping the googleapi.Error in the chain for status inspection.
func wrapAPIError(msg string, err error) error {
	if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 404 {
		return fmt.Errorf("%s: %w", msg, fmt.Errorf("%w: %w", formflow.ErrNotFound, err))
	}
	return formflow.NewAPIError(msg, err)
}

// CreateForm creates a form with the given title, then applies its
// description, quiz setting, and initial questions in a single batch update.
// Questions that fail normalization are skipped and reported in the batch
// result rather than failing the whole call.
func (c *Client) CreateForm(spec formflow.FormSpec) (*CreateResult, error) {
	if err := c.gate.Allow(); err != nil {
		return nil, err
	}
	created, err := c.forms.Forms.Create(&forms.Form{
		Info: &forms.Info{
			Title:         spec.Title,
			DocumentTitle: spec.Title,
		},
	}).Do()
	if err != nil {
		return nil, wrapAPIError("failed to create form", err)
	}
	c.logger.Info("form created", zap.String("form_id", created.FormId), zap.String("title", spec.Title))

	requests := []*forms.Request{}
	if spec.Description != "" {
		requests = append(requests, &forms.Request{
			UpdateFormInfo: &forms.UpdateFormInfoRequest{
				Info:       &forms.Info{Description: spec.Description},
				UpdateMask: "description",
			},
		})
	}
	if spec.IsQuiz() {
		isQuiz := true
		quiz, _ := formflow.NormalizeSettings(formflow.SettingsSpec{IsQuiz: &isQuiz})
		requests = append(requests, quiz...)
	}

	batch, itemRequests := buildCreateItems(spec.Questions, 0)
	requests = append(requests, itemRequests...)

	if len(requests) > 0 {
		_, err := c.forms.Forms.BatchUpdate(created.FormId, &forms.BatchUpdateFormRequest{
			Requests: requests,
		}).Do()
		if err != nil {
			return nil, wrapAPIError("failed to apply initial form content", err)
		}
	}

	return &CreateResult{
		Form: FormInfo{
			ID:           formflow.FormID(created.FormId),
			Title:        spec.Title,
			Description:  spec.Description,
			EditURL:      editURL(created.FormId),
			ResponderURL: created.ResponderUri,
		},
		Batch: batch,
	}, nil
}

// buildCreateItems normalizes each question into a CreateItem request at
// consecutive indices starting from base. Rejected questions do not consume
// an index.
func buildCreateItems(questions []formflow.QuestionSpec, base int64) (BatchResult, []*forms.Request) {
	batch := BatchResult{}
	requests := []*forms.Request{}
	index := base
	for i, q := range questions {
		item, conv, err := formflow.NormalizeQuestion(q)
		if err != nil {
			batch.Failed = append(batch.Failed, IndexError{Index: i, Reason: err.Error()})
			continue
		}
		if conv != nil {
			if batch.Conversions == nil {
				batch.Conversions = map[int]formflow.Conversion{}
			}
			batch.Conversions[i] = *conv
		}
		requests = append(requests, &forms.Request{
			CreateItem: &forms.CreateItemRequest{
				Item: item,
				Location: &forms.Location{
					Index:           index,
					ForceSendFields: []string{"Index"},
				},
			},
		})
		batch.Succeeded++
		index++
	}
	return batch, requests
}

// GetForm fetches the form and maps its items back to the question
// vocabulary, so a form built by CreateForm reads back with the same types.
func (c *Client) GetForm(formID formflow.FormID) (*FormDetail, error) {
	f, err := c.forms.Forms.Get(string(formID)).Do()
	if err != nil {
		return nil, wrapAPIError("failed to get form", err)
	}

	detail := &FormDetail{
		FormInfo: FormInfo{
			ID:           formflow.FormID(f.FormId),
			EditURL:      editURL(f.FormId),
			ResponderURL: f.ResponderUri,
		},
		Questions: []QuestionInfo{},
	}
	if f.Info != nil {
		detail.Title = f.Info.Title
		detail.Description = f.Info.Description
	}
	if f.Settings != nil {
		if f.Settings.QuizSettings != nil {
			detail.IsQuiz = f.Settings.QuizSettings.IsQuiz
		}
		detail.EmailCollection = f.Settings.EmailCollectionType
	}
	for _, item := range f.Items {
		detail.Questions = append(detail.Questions, questionInfo(item))
	}
	return detail, nil
}

// questionInfo reverses the item mapping of NormalizeQuestion.
func questionInfo(item *forms.Item) QuestionInfo {
	info := QuestionInfo{
		ItemID: item.ItemId,
		Title:  item.Title,
	}
	switch {
	case item.QuestionItem != nil && item.QuestionItem.Question != nil:
		q := item.QuestionItem.Question
		info.QuestionID = q.QuestionId
		info.Required = q.Required
		if q.Grading != nil {
			info.PointValue = q.Grading.PointValue
		}
		info.Type = questionType(q)
	case item.QuestionGroupItem != nil:
		info.Type = formflow.TypeMultipleChoiceGrid
		if g := item.QuestionGroupItem.Grid; g != nil && g.Columns != nil {
			if g.Columns.Type == "CHECKBOX" {
				info.Type = formflow.TypeCheckboxGrid
			}
			for _, o := range g.Columns.Options {
				info.Options = append(info.Options, o.Value)
			}
		}
	case item.ImageItem != nil:
		info.Type = formflow.TypeImage
	case item.VideoItem != nil:
		info.Type = formflow.TypeVideo
	case item.PageBreakItem != nil:
		info.Type = formflow.TypeSection
	default:
		info.Type = formflow.TypeShortAnswer
	}
	if item.QuestionItem != nil && item.QuestionItem.Question != nil {
		if cq := item.QuestionItem.Question.ChoiceQuestion; cq != nil {
			for _, o := range cq.Options {
				info.Options = append(info.Options, o.Value)
			}
		}
	}
	return info
}

func questionType(q *forms.Question) formflow.QuestionType {
	switch {
	case q.ChoiceQuestion != nil:
		switch q.ChoiceQuestion.Type {
		case "CHECKBOX":
			return formflow.TypeCheckbox
		case "DROP_DOWN":
			return formflow.TypeDropdown
		default:
			return formflow.TypeMultipleChoice
		}
	case q.TextQuestion != nil:
		if q.TextQuestion.Paragraph {
			return formflow.TypeLongAnswer
		}
		return formflow.TypeShortAnswer
	case q.ScaleQuestion != nil:
		return formflow.TypeLinearScale
	case q.DateQuestion != nil:
		return formflow.TypeDate
	case q.TimeQuestion != nil:
		return formflow.TypeTime
	case q.FileUploadQuestion != nil:
		return formflow.TypeFileUpload
	default:
		return formflow.TypeShortAnswer
	}
}

// AddQuestions appends questions to the end of the form. The current item
// count is read first so new items land after the existing ones.
func (c *Client) AddQuestions(formID formflow.FormID, questions []formflow.QuestionSpec) (*BatchResult, error) {
	if err := c.gate.Allow(); err != nil {
		return nil, err
	}
	f, err := c.forms.Forms.Get(string(formID)).Do()
	if err != nil {
		return nil, wrapAPIError("failed to get form", err)
	}

	batch, requests := buildCreateItems(questions, int64(len(f.Items)))
	if len(requests) > 0 {
		_, err := c.forms.Forms.BatchUpdate(string(formID), &forms.BatchUpdateFormRequest{
			Requests: requests,
		}).Do()
		if err != nil {
			return nil, wrapAPIError("failed to add questions", err)
		}
	}
	c.logger.Info("questions added",
		zap.String("form_id", string(formID)),
		zap.Int("succeeded", batch.Succeeded),
		zap.Int("failed", len(batch.Failed)))
	return &batch, nil
}

// UpdateQuestions rewrites existing items in place. Each update carries a
// field mask derived from its spec so unrelated item fields survive.
func (c *Client) UpdateQuestions(formID formflow.FormID, updates []QuestionUpdate) (*BatchResult, error) {
	if err := c.gate.Allow(); err != nil {
		return nil, err
	}

	batch := BatchResult{}
	requests := []*forms.Request{}
	for i, u := range updates {
		item, conv, err := formflow.NormalizeQuestion(u.Spec)
		if err != nil {
			batch.Failed = append(batch.Failed, IndexError{Index: i, Reason: err.Error()})
			continue
		}
		if conv != nil {
			if batch.Conversions == nil {
				batch.Conversions = map[int]formflow.Conversion{}
			}
			batch.Conversions[i] = *conv
		}
		item.ItemId = u.ItemID
		requests = append(requests, &forms.Request{
			UpdateItem: &forms.UpdateItemRequest{
				Item: item,
				Location: &forms.Location{
					Index:           u.Index,
					ForceSendFields: []string{"Index"},
				},
				UpdateMask: formflow.UpdateMask(u.Spec),
			},
		})
		batch.Succeeded++
	}

	if len(requests) > 0 {
		_, err := c.forms.Forms.BatchUpdate(string(formID), &forms.BatchUpdateFormRequest{
			Requests: requests,
		}).Do()
		if err != nil {
			return nil, wrapAPIError("failed to update questions", err)
		}
	}
	return &batch, nil
}

// DeleteQuestions removes items at the given indices. Indices are deleted
// from the highest down so earlier deletions do not shift later targets.
func (c *Client) DeleteQuestions(formID formflow.FormID, indices []int64) error {
	if err := c.gate.Allow(); err != nil {
		return err
	}
	if len(indices) == 0 {
		return nil
	}

	sorted := append([]int64{}, indices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	requests := []*forms.Request{}
	for _, idx := range sorted {
		requests = append(requests, &forms.Request{
			DeleteItem: &forms.DeleteItemRequest{
				Location: &forms.Location{
					Index:           idx,
					ForceSendFields: []string{"Index"},
				},
			},
		})
	}
	_, err := c.forms.Forms.BatchUpdate(string(formID), &forms.BatchUpdateFormRequest{
		Requests: requests,
	}).Do()
	if err != nil {
		return wrapAPIError("failed to delete questions", err)
	}
	return nil
}

// UpdateInfo changes the form title and/or description. Empty arguments
// leave the corresponding field untouched.
func (c *Client) UpdateInfo(formID formflow.FormID, title, description string) error {
	if err := c.gate.Allow(); err != nil {
		return err
	}
	requests := formflow.NormalizeInfo(title, description)
	if len(requests) == 0 {
		return nil
	}
	_, err := c.forms.Forms.BatchUpdate(string(formID), &forms.BatchUpdateFormRequest{
		Requests: requests,
	}).Do()
	if err != nil {
		return wrapAPIError("failed to update form info", err)
	}
	return nil
}

// ConfigureSettings applies the settings the Forms service can store and
// reports the rest as skipped.
func (c *Client) ConfigureSettings(formID formflow.FormID, spec formflow.SettingsSpec) (*SettingsResult, error) {
	if err := c.gate.Allow(); err != nil {
		return nil, err
	}
	requests, skipped := formflow.NormalizeSettings(spec)

	result := &SettingsResult{Skipped: skipped}
	for _, req := range requests {
		if req.UpdateSettings != nil {
			result.Applied = append(result.Applied, req.UpdateSettings.UpdateMask)
		}
	}
	if len(requests) == 0 {
		return result, nil
	}
	_, err := c.forms.Forms.BatchUpdate(string(formID), &forms.BatchUpdateFormRequest{
		Requests: requests,
	}).Do()
	if err != nil {
		return nil, wrapAPIError("failed to update settings", err)
	}
	return result, nil
}

// ResponseSummary is one submitted response with its answers keyed by
// question ID.
type ResponseSummary struct {
	ResponseID        string              `json:"response_id"`
	RespondentEmail   string              `json:"respondent_email,omitempty"`
	CreateTime        time.Time           `json:"create_time"`
	LastSubmittedTime time.Time           `json:"last_submitted_time"`
	TotalScore        float64             `json:"total_score,omitempty"`
	Answers           map[string][]string `json:"answers"`
}

// ResponseReport pairs the form's question titles with all responses so a
// caller can render answers without a second Get.
type ResponseReport struct {
	Questions map[string]string `json:"questions"`
	Responses []ResponseSummary `json:"responses"`
}

// ListResponses fetches every response page and resolves answers against the
// form's current questions.
func (c *Client) ListResponses(formID formflow.FormID) (*ResponseReport, error) {
	f, err := c.forms.Forms.Get(string(formID)).Do()
	if err != nil {
		return nil, wrapAPIError("failed to get form", err)
	}

	var responses []*forms.FormResponse
	err = c.forms.Forms.Responses.
		List(string(formID)).
		Pages(context.Background(), func(resp *forms.ListFormResponsesResponse) error {
			responses = append(responses, resp.Responses...)
			return nil
		})
	if err != nil {
		return nil, wrapAPIError("failed to list responses", err)
	}

	report := &ResponseReport{Questions: map[string]string{}, Responses: []ResponseSummary{}}
	for _, item := range f.Items {
		if item.QuestionItem != nil && item.QuestionItem.Question != nil {
			report.Questions[item.QuestionItem.Question.QuestionId] = item.Title
		}
	}

	for _, response := range responses {
		createTime, _ := time.Parse(time.RFC3339Nano, response.CreateTime)
		lastSubmittedTime, _ := time.Parse(time.RFC3339Nano, response.LastSubmittedTime)
		summary := ResponseSummary{
			ResponseID:        response.ResponseId,
			RespondentEmail:   response.RespondentEmail,
			CreateTime:        createTime,
			LastSubmittedTime: lastSubmittedTime,
			TotalScore:        response.TotalScore,
			Answers:           map[string][]string{},
		}
		for questionID := range report.Questions {
			answer, ok := response.Answers[questionID]
			if !ok || answer.TextAnswers == nil {
				continue
			}
			values := []string{}
			for _, textAnswer := range answer.TextAnswers.Answers {
				values = append(values, textAnswer.Value)
			}
			summary.Answers[questionID] = values
		}
		report.Responses = append(report.Responses, summary)
	}
	return report, nil
}

// DeleteForm moves the form to the Drive trash. The Forms service has no
// delete call of its own.
func (c *Client) DeleteForm(formID formflow.FormID) error {
	if err := c.gate.Allow(); err != nil {
		return err
	}
	err := c.drive.Files.Delete(string(formID)).Do()
	if err != nil {
		return wrapAPIError("failed to delete form", err)
	}
	c.logger.Info("form deleted", zap.String("form_id", string(formID)))
	return nil
}
