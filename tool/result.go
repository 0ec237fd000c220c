package tool

import (
	"encoding/json"
	"errors"

	"github.com/formflow/go-formflow"
	"google.golang.org/api/googleapi"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const (
	ErrorTypeValidation = "validation"
	ErrorTypeAPI        = "api"
	ErrorTypeRateLimit  = "rate_limit"
	ErrorTypeNotFound   = "not_found"
)

// Result is the uniform record every wrapper returns: a status, an optional
// message, error classification when failed, and operation-specific fields
// flattened alongside the fixed keys.
type Result struct {
	Status    string
	Message   string
	ErrorCode int
	ErrorType string
	Fields    map[string]any
}

// OK reports whether the result carries a success status.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// MarshalJSON flattens Fields next to the fixed keys, so callers see
// `{"result":"success","form_id":...}` rather than a nested object.
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{"result": r.Status}
	if r.Message != "" {
		out["message"] = r.Message
	}
	if r.ErrorCode != 0 {
		out["error_code"] = r.ErrorCode
	}
	if r.ErrorType != "" {
		out["error_type"] = r.ErrorType
	}
	for k, v := range r.Fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a flattened record, moving unknown keys back into
// Fields.
func (r *Result) UnmarshalJSON(data []byte) error {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Result{Fields: map[string]any{}}
	for k, v := range raw {
		switch k {
		case "result":
			r.Status, _ = v.(string)
		case "message":
			r.Message, _ = v.(string)
		case "error_code":
			if f, ok := v.(float64); ok {
				r.ErrorCode = int(f)
			}
		case "error_type":
			r.ErrorType, _ = v.(string)
		default:
			r.Fields[k] = v
		}
	}
	if len(r.Fields) == 0 {
		r.Fields = nil
	}
	return nil
}

// Success builds a success result with the given fields.
func Success(fields map[string]any) Result {
	return Result{Status: StatusSuccess, Fields: fields}
}

// SuccessMessage builds a success result carrying only a message.
func SuccessMessage(msg string) Result {
	return Result{Status: StatusSuccess, Message: msg}
}

// Failure classifies err into the error taxonomy and returns an error
// result. The external status code is surfaced when a googleapi error is in
// the chain.
func Failure(err error) Result {
	r := Result{Status: StatusError, Message: err.Error()}
	switch {
	case errors.Is(err, formflow.ErrRateLimited):
		r.ErrorType = ErrorTypeRateLimit
	case errors.Is(err, formflow.ErrNotFound):
		r.ErrorType = ErrorTypeNotFound
	case errors.Is(err, formflow.ErrValidation), errors.Is(err, formflow.ErrMissingArgument):
		r.ErrorType = ErrorTypeValidation
	default:
		r.ErrorType = ErrorTypeAPI
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		r.ErrorCode = gerr.Code
	}
	return r
}

// failureMessage builds a validation failure without an underlying error.
func failureMessage(msg string) Result {
	return Result{Status: StatusError, Message: msg, ErrorType: ErrorTypeValidation}
}
