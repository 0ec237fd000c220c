package formflow

// EmailCollectionType mirrors the Forms API setting controlling how
// respondent email addresses are collected.
type EmailCollectionType string

const (
	EmailCollectionTypeUnspecified    EmailCollectionType = "EMAIL_COLLECTION_TYPE_UNSPECIFIED"
	EmailCollectionTypeDoNotCollect   EmailCollectionType = "DO_NOT_COLLECT"
	EmailCollectionTypeVerified       EmailCollectionType = "VERIFIED"
	EmailCollectionTypeResponderInput EmailCollectionType = "RESPONDER_INPUT"
)

// SettingsSpec describes form-level settings. Nil fields are left untouched
// by an update, which keeps the derived update mask minimal.
//
// The external service only materializes the quiz flag and email
// collection; AllowResponseEditing and ConfirmationMessage are accepted
// here for completeness, omitted from the wire request, and reported back
// as skipped.
type SettingsSpec struct {
	IsQuiz               *bool   `json:"is_quiz,omitempty"`
	CollectEmail         *bool   `json:"collect_email,omitempty"`
	AllowResponseEditing *bool   `json:"allow_response_editing,omitempty"`
	ConfirmationMessage  *string `json:"confirmation_message,omitempty"`
}

// Empty reports whether no field is set at all.
func (s SettingsSpec) Empty() bool {
	return s.IsQuiz == nil && s.CollectEmail == nil &&
		s.AllowResponseEditing == nil && s.ConfirmationMessage == nil
}
