package tool

import (
	"encoding/json"
	"fmt"

	"github.com/formflow/go-formflow"
	"github.com/formflow/go-formflow/client"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// FormsAPI is the slice of the client the wrappers call. *client.Client
// satisfies it; tests substitute a stub.
type FormsAPI interface {
	CreateForm(spec formflow.FormSpec) (*client.CreateResult, error)
	GetForm(formID formflow.FormID) (*client.FormDetail, error)
	AddQuestions(formID formflow.FormID, questions []formflow.QuestionSpec) (*client.BatchResult, error)
	UpdateQuestions(formID formflow.FormID, updates []client.QuestionUpdate) (*client.BatchResult, error)
	DeleteQuestions(formID formflow.FormID, indices []int64) error
	UpdateInfo(formID formflow.FormID, title, description string) error
	ConfigureSettings(formID formflow.FormID, spec formflow.SettingsSpec) (*client.SettingsResult, error)
	ListResponses(formID formflow.FormID) (*client.ResponseReport, error)
	DeleteForm(formID formflow.FormID) error
	ListForms(nameFilter string) ([]client.DriveFile, error)
	ShareForm(formID formflow.FormID, grantee formflow.Grantee, role formflow.Role) ([]client.Permission, error)
	UnshareForm(formID formflow.FormID, grantee formflow.Grantee) ([]client.Permission, error)
	CreateFolder(name string, parentID string) (*client.DriveFile, error)
	MoveForm(formID formflow.FormID, folderID string) error
}

var _ FormsAPI = (*client.Client)(nil)

// Toolset dispatches operations to the forms API and shapes every outcome
// into a uniform result record.
type Toolset struct {
	api      FormsAPI
	validate *validator.Validate
	logger   *zap.Logger
}

type ToolsetOption func(*Toolset)

func WithLogger(logger *zap.Logger) ToolsetOption {
	return func(t *Toolset) { t.logger = logger }
}

func NewToolset(api FormsAPI, opts ...ToolsetOption) *Toolset {
	t := &Toolset{
		api:      api,
		validate: validator.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type CreateFormArgs struct {
	Title       string                  `json:"title" validate:"required"`
	Description string                  `json:"description"`
	FormType    string                  `json:"form_type" validate:"omitempty,oneof=form quiz"`
	Questions   []formflow.QuestionSpec `json:"questions"`
}

type UpdateFormArgs struct {
	FormID      string `json:"form_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AddQuestionsArgs struct {
	FormID    string                  `json:"form_id"`
	Questions []formflow.QuestionSpec `json:"questions" validate:"required,min=1"`
}

type UpdateQuestionsArgs struct {
	FormID  string                  `json:"form_id"`
	Updates []client.QuestionUpdate `json:"updates" validate:"required,min=1"`
}

type DeleteQuestionsArgs struct {
	FormID  string  `json:"form_id"`
	Indices []int64 `json:"indices" validate:"required,min=1"`
}

type ConfigureSettingsArgs struct {
	FormID   string                `json:"form_id"`
	Settings formflow.SettingsSpec `json:"settings"`
}

type FormIDArgs struct {
	FormID string `json:"form_id"`
}

type ListFormsArgs struct {
	NameFilter string `json:"name_filter"`
}

type ShareFormArgs struct {
	FormID string `json:"form_id"`
	Email  string `json:"email"`
	Group  string `json:"group"`
	Domain string `json:"domain"`
	Anyone bool   `json:"anyone"`
	Role   string `json:"role" validate:"required,oneof=owner writer commenter reader"`
}

type UnshareFormArgs struct {
	FormID string `json:"form_id"`
	Email  string `json:"email"`
	Group  string `json:"group"`
	Domain string `json:"domain"`
	Anyone bool   `json:"anyone"`
}

type CreateFolderArgs struct {
	Name     string `json:"name" validate:"required"`
	ParentID string `json:"parent_id"`
}

type MoveFormArgs struct {
	FormID   string `json:"form_id"`
	FolderID string `json:"folder_id" validate:"required"`
}

type ValidateQuestionsArgs struct {
	Questions []formflow.QuestionSpec `json:"questions" validate:"required,min=1"`
}

// Invoke runs one operation against the session. Argument decoding and
// presence failures come back as validation results; everything else is the
// shaped outcome of the underlying call.
func (t *Toolset) Invoke(sess *Session, op Operation, args json.RawMessage) Result {
	if !op.Known() {
		return failureMessage(fmt.Sprintf("unknown operation %q", op))
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if cached, ok := sess.cached(op, args); ok {
		return cached
	}

	result := t.dispatch(sess, op, args)
	sess.remember(op, args, result)

	t.logger.Info("tool invoked",
		zap.String("operation", string(op)),
		zap.String("status", result.Status))
	return result
}

func (t *Toolset) dispatch(sess *Session, op Operation, args json.RawMessage) Result {
	switch op {
	case OpCreateForm:
		return t.createForm(sess, args)
	case OpUpdateForm:
		return t.updateForm(sess, args)
	case OpAddQuestions:
		return t.addQuestions(sess, args)
	case OpUpdateQuestions:
		return t.updateQuestions(sess, args)
	case OpDeleteQuestions:
		return t.deleteQuestions(sess, args)
	case OpConfigureSettings:
		return t.configureSettings(sess, args)
	case OpGetFormInfo:
		return t.getFormInfo(sess, args)
	case OpGetResponses:
		return t.getResponses(sess, args)
	case OpDeleteForm:
		return t.deleteForm(sess, args)
	case OpListForms:
		return t.listForms(args)
	case OpShareForm:
		return t.shareForm(sess, args)
	case OpUnshareForm:
		return t.unshareForm(sess, args)
	case OpCreateFolder:
		return t.createFolder(args)
	case OpMoveForm:
		return t.moveForm(sess, args)
	case OpValidateQuestions:
		return t.validateQuestions(args)
	}
	return failureMessage(fmt.Sprintf("unknown operation %q", op))
}

// decode unmarshals args into v and checks its validation tags.
func (t *Toolset) decode(args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		return formflow.NewValidationError("malformed arguments", err)
	}
	if err := t.validate.Struct(v); err != nil {
		return formflow.NewValidationError(err.Error(), formflow.ErrMissingArgument)
	}
	return nil
}

// resolveFormID takes the explicit argument or falls back to the session's
// current form.
func resolveFormID(sess *Session, explicit string) (formflow.FormID, error) {
	if explicit != "" {
		return formflow.FormID(explicit), nil
	}
	if sess != nil {
		if id := sess.CurrentFormID(); id != "" {
			return id, nil
		}
	}
	return "", formflow.NewValidationError("form_id is required and no form is active in this session", formflow.ErrMissingArgument)
}

// fieldsOf flattens a typed payload into result fields via its JSON shape.
func fieldsOf(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	fields := map[string]any{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil
	}
	return fields
}

func (t *Toolset) createForm(sess *Session, args json.RawMessage) Result {
	var a CreateFormArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	if a.Description == "" {
		a.Description = "Form created automatically - " + a.Title
	}
	spec := formflow.FormSpec{
		Title:       a.Title,
		Description: a.Description,
		Type:        formflow.FormType(a.FormType),
		Questions:   a.Questions,
	}
	if a.FormType == "" {
		spec.Type = formflow.FormTypePlain
	}

	report := formflow.ValidateForm(spec)
	if !report.Valid() {
		return Result{
			Status:    StatusError,
			Message:   "form validation failed",
			ErrorType: ErrorTypeValidation,
			Fields:    map[string]any{"report": report},
		}
	}

	created, err := t.api.CreateForm(spec)
	if err != nil {
		return Failure(err)
	}
	if sess != nil {
		sess.SetCurrentFormID(created.Form.ID)
	}
	fields := fieldsOf(created.Form)
	fields["batch"] = created.Batch
	return Success(fields)
}

func (t *Toolset) updateForm(sess *Session, args json.RawMessage) Result {
	var a UpdateFormArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	if a.Title == "" && a.Description == "" {
		return failureMessage("nothing to update: provide title and/or description")
	}
	formID, err := resolveFormID(sess, a.FormID)
	if err != nil {
		return Failure(err)
	}
	if err := t.api.UpdateInfo(formID, a.Title, a.Description); err != nil {
		return Failure(err)
	}
	return Success(map[string]any{"form_id": formID})
}

func (t *Toolset) addQuestions(sess *Session, args json.RawMessage) Result {
	var a AddQuestionsArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	formID, err := resolveFormID(sess, a.FormID)
	if err != nil {
		return Failure(err)
	}
	batch, err := t.api.AddQuestions(formID, a.Questions)
	if err != nil {
		return Failure(err)
	}
	return Success(map[string]any{"form_id": formID, "batch": batch})
}

func (t *Toolset) updateQuestions(sess *Session, args json.RawMessage) Result {
	var a UpdateQuestionsArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	formID, err := resolveFormID(sess, a.FormID)
	if err != nil {
		return Failure(err)
	}
	batch, err := t.api.UpdateQuestions(formID, a.Updates)
	if err != nil {
		return Failure(err)
	}
	return Success(map[string]any{"form_id": formID, "batch": batch})
}

func (t *Toolset) deleteQuestions(sess *Session, args json.RawMessage) Result {
	var a DeleteQuestionsArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	formID, err := resolveFormID(sess, a.FormID)
	if err != nil {
		return Failure(err)
	}
	if err := t.api.DeleteQuestions(formID, a.Indices); err != nil {
		return Failure(err)
	}
	return Success(map[string]any{"form_id": formID, "deleted": len(a.Indices)})
}

func (t *Toolset) configureSettings(sess *Session, args json.RawMessage) Result {
	var a ConfigureSettingsArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	if a.Settings.Empty() {
		return failureMessage("no settings provided")
	}
	formID, err := resolveFormID(sess, a.FormID)
	if err != nil {
		return Failure(err)
	}
	applied, err := t.api.ConfigureSettings(formID, a.Settings)
	if err != nil {
		return Failure(err)
	}
	fields := fieldsOf(applied)
	fields["form_id"] = formID
	return Success(fields)
}

func (t *Toolset) getFormInfo(sess *Session, args json.RawMessage) Result {
	var a FormIDArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	formID, err := resolveFormID(sess, a.FormID)
	if err != nil {
		return Failure(err)
	}
	detail, err := t.api.GetForm(formID)
	if err != nil {
		return Failure(err)
	}
	return Success(fieldsOf(detail))
}

func (t *Toolset) getResponses(sess *Session, args json.RawMessage) Result {
	var a FormIDArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	formID, err := resolveFormID(sess, a.FormID)
	if err != nil {
		return Failure(err)
	}
	report, err := t.api.ListResponses(formID)
	if err != nil {
		return Failure(err)
	}
	fields := fieldsOf(report)
	fields["form_id"] = formID
	fields["response_count"] = len(report.Responses)
	return Success(fields)
}

func (t *Toolset) deleteForm(sess *Session, args json.RawMessage) Result {
	var a FormIDArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	formID, err := resolveFormID(sess, a.FormID)
	if err != nil {
		return Failure(err)
	}
	if err := t.api.DeleteForm(formID); err != nil {
		return Failure(err)
	}
	if sess != nil && sess.CurrentFormID() == formID {
		sess.SetCurrentFormID("")
	}
	return Success(map[string]any{"form_id": formID})
}

func (t *Toolset) listForms(args json.RawMessage) Result {
	var a ListFormsArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	files, err := t.api.ListForms(a.NameFilter)
	if err != nil {
		return Failure(err)
	}
	return Success(map[string]any{"forms": files, "count": len(files)})
}

func (t *Toolset) shareForm(sess *Session, args json.RawMessage) Result {
	var a ShareFormArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	formID, err := resolveFormID(sess, a.FormID)
	if err != nil {
		return Failure(err)
	}

	grantee, ok := granteeFor(a.Email, a.Group, a.Domain, a.Anyone)
	if !ok {
		return failureMessage("share target required: email, group, domain, or anyone")
	}

	perms, err := t.api.ShareForm(formID, grantee, formflow.Role(a.Role))
	if err != nil {
		return Failure(err)
	}
	return Success(map[string]any{"form_id": formID, "permissions": perms})
}

func (t *Toolset) unshareForm(sess *Session, args json.RawMessage) Result {
	var a UnshareFormArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	formID, err := resolveFormID(sess, a.FormID)
	if err != nil {
		return Failure(err)
	}

	grantee, ok := granteeFor(a.Email, a.Group, a.Domain, a.Anyone)
	if !ok {
		return failureMessage("share target required: email, group, domain, or anyone")
	}

	perms, err := t.api.UnshareForm(formID, grantee)
	if err != nil {
		return Failure(err)
	}
	return Success(map[string]any{"form_id": formID, "permissions": perms})
}

// granteeFor picks the grant target from the mutually exclusive argument
// fields, in precedence order.
func granteeFor(email, group, domain string, anyone bool) (formflow.Grantee, bool) {
	switch {
	case email != "":
		return formflow.User(email), true
	case group != "":
		return formflow.Group(group), true
	case domain != "":
		return formflow.Domain(domain), true
	case anyone:
		return formflow.Anyone(), true
	}
	return nil, false
}

func (t *Toolset) createFolder(args json.RawMessage) Result {
	var a CreateFolderArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	folder, err := t.api.CreateFolder(a.Name, a.ParentID)
	if err != nil {
		return Failure(err)
	}
	return Success(map[string]any{"folder": folder})
}

func (t *Toolset) moveForm(sess *Session, args json.RawMessage) Result {
	var a MoveFormArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	formID, err := resolveFormID(sess, a.FormID)
	if err != nil {
		return Failure(err)
	}
	if err := t.api.MoveForm(formID, a.FolderID); err != nil {
		return Failure(err)
	}
	return Success(map[string]any{"form_id": formID, "folder_id": a.FolderID})
}

func (t *Toolset) validateQuestions(args json.RawMessage) Result {
	var a ValidateQuestionsArgs
	if err := t.decode(args, &a); err != nil {
		return Failure(err)
	}
	report := formflow.ValidateQuestions(a.Questions)
	fields := fieldsOf(report)
	fields["valid"] = report.Valid()
	return Success(fields)
}
