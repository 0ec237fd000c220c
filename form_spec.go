package formflow

// FormType selects between a plain form and a quiz at creation time.
type FormType string

const (
	FormTypePlain FormType = "form"
	FormTypeQuiz  FormType = "quiz"
)

// FormSpec describes a form to be created. It is a value object: once it
// has been submitted to the create call it is never mutated in place, and
// later changes go through explicit update calls.
type FormSpec struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        FormType       `json:"form_type"`
	Questions   []QuestionSpec `json:"questions,omitempty"`
}

func (s FormSpec) IsQuiz() bool {
	return s.Type == FormTypeQuiz
}
