package formflow

// QuestionType names one of the question kinds the Forms API can represent.
// Values outside the supported set are resolved to the nearest supported
// kind by ResolveQuestionType; the conversion is always reported, never
// applied silently.
type QuestionType string

const (
	TypeShortAnswer        QuestionType = "short_answer"
	TypeLongAnswer         QuestionType = "long_answer"
	TypeMultipleChoice     QuestionType = "multiple_choice"
	TypeCheckbox           QuestionType = "checkbox"
	TypeDropdown           QuestionType = "dropdown"
	TypeLinearScale        QuestionType = "linear_scale"
	TypeMultipleChoiceGrid QuestionType = "multiple_choice_grid"
	TypeCheckboxGrid       QuestionType = "checkbox_grid"
	TypeDate               QuestionType = "date"
	TypeTime               QuestionType = "time"
	TypeFileUpload         QuestionType = "file_upload"
	TypeImage              QuestionType = "image"
	TypeVideo              QuestionType = "video"
	TypeSection            QuestionType = "section"
)

// SupportedTypes lists every QuestionType with a direct Forms API schema,
// in a stable order.
func SupportedTypes() []QuestionType {
	return []QuestionType{
		TypeShortAnswer, TypeLongAnswer, TypeMultipleChoice, TypeCheckbox,
		TypeDropdown, TypeLinearScale, TypeMultipleChoiceGrid, TypeCheckboxGrid,
		TypeDate, TypeTime, TypeFileUpload, TypeImage, TypeVideo, TypeSection,
	}
}

func (t QuestionType) Supported() bool {
	switch t {
	case TypeShortAnswer, TypeLongAnswer, TypeMultipleChoice, TypeCheckbox,
		TypeDropdown, TypeLinearScale, TypeMultipleChoiceGrid, TypeCheckboxGrid,
		TypeDate, TypeTime, TypeFileUpload, TypeImage, TypeVideo, TypeSection:
		return true
	}
	return false
}

// fallbackTypes maps common aliases and kinds the service cannot represent
// to the nearest supported QuestionType.
var fallbackTypes = map[string]QuestionType{
	"text":          TypeShortAnswer,
	"paragraph":     TypeLongAnswer,
	"essay":         TypeLongAnswer,
	"radio":         TypeMultipleChoice,
	"choice":        TypeMultipleChoice,
	"select":        TypeDropdown,
	"multi_select":  TypeCheckbox,
	"rating":        TypeLinearScale,
	"scale":         TypeLinearScale,
	"grid":          TypeMultipleChoiceGrid,
	"page_break":    TypeSection,
	"section_break": TypeSection,
}

// ResolveQuestionType maps an arbitrary type string to a supported
// QuestionType. Supported values pass through unchanged with converted
// false. Known aliases resolve through the fallback table; anything else
// degrades to short_answer. converted reports whether the input had to be
// changed.
func ResolveQuestionType(s string) (resolved QuestionType, converted bool) {
	t := QuestionType(s)
	if t.Supported() {
		return t, false
	}
	if mapped, ok := fallbackTypes[s]; ok {
		return mapped, true
	}
	return TypeShortAnswer, true
}
