package formflow

import (
	"fmt"
	"strings"
)

// Structural limits enforced before any network call. They mirror what the
// external service accepts.
const (
	MaxTitleLength       = 300
	MaxDescriptionLength = 4096
	MaxQuestions         = 300
)

// QuestionStatus classifies one question in a ValidationReport.
type QuestionStatus string

const (
	StatusSupported QuestionStatus = "supported"
	StatusConverted QuestionStatus = "converted"
	StatusRejected  QuestionStatus = "rejected"
)

// QuestionCheck is the per-question entry of a ValidationReport.
type QuestionCheck struct {
	Index  int            `json:"index"`
	Status QuestionStatus `json:"status"`
	From   string         `json:"original_type,omitempty"`
	To     QuestionType   `json:"converted_type,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// Warning is advisory: the spec can still be submitted as-is.
type Warning struct {
	Message string `json:"message"`
	Indices []int  `json:"indices,omitempty"`
}

// ValidationReport is the transient output of ValidateForm and
// ValidateQuestions. It never mutates the checked spec; conversion entries
// are suggestions the caller applies by re-submitting.
type ValidationReport struct {
	Checks   []QuestionCheck `json:"checks"`
	Issues   []string        `json:"issues,omitempty"`
	Warnings []Warning       `json:"warnings,omitempty"`
}

// Valid reports whether the spec can be submitted: no form-level issues and
// no rejected question. Conversions and warnings do not make a report
// invalid.
func (r ValidationReport) Valid() bool {
	if len(r.Issues) > 0 {
		return false
	}
	for _, c := range r.Checks {
		if c.Status == StatusRejected {
			return false
		}
	}
	return true
}

// Converted returns the checks that record a type conversion.
func (r ValidationReport) Converted() []QuestionCheck {
	var out []QuestionCheck
	for _, c := range r.Checks {
		if c.Status == StatusConverted {
			out = append(out, c)
		}
	}
	return out
}

// ValidateForm checks a FormSpec against the structural constraints of the
// external service: non-empty title and description within length limits,
// question count cap, and everything ValidateQuestions checks. Grading on a
// non-quiz form is reported as a warning because the service will reject it
// at submission time.
func ValidateForm(spec FormSpec) ValidationReport {
	report := ValidateQuestions(spec.Questions)

	if strings.TrimSpace(spec.Title) == "" {
		report.Issues = append(report.Issues, "title must not be empty")
	} else if len(spec.Title) > MaxTitleLength {
		report.Issues = append(report.Issues, fmt.Sprintf("title exceeds %d characters", MaxTitleLength))
	}
	if strings.TrimSpace(spec.Description) == "" {
		report.Issues = append(report.Issues, "description must not be empty")
	} else if len(spec.Description) > MaxDescriptionLength {
		report.Issues = append(report.Issues, fmt.Sprintf("description exceeds %d characters", MaxDescriptionLength))
	}
	if len(spec.Questions) > MaxQuestions {
		report.Issues = append(report.Issues, fmt.Sprintf("form has %d questions, the service accepts at most %d", len(spec.Questions), MaxQuestions))
	}

	if !spec.IsQuiz() {
		for i, q := range spec.Questions {
			if q.Grading != nil {
				report.Warnings = append(report.Warnings, Warning{
					Message: "grading is ignored unless the form is a quiz",
					Indices: []int{i},
				})
			}
		}
	}

	return report
}

// ValidateQuestions checks a question list on its own: type support and
// conversions, per-type structural requirements, and duplicate prompt
// detection. Duplicates are a warning referencing both indices, not a
// rejection.
func ValidateQuestions(questions []QuestionSpec) ValidationReport {
	report := ValidationReport{}
	seen := map[string]int{}

	for i, q := range questions {
		check := QuestionCheck{Index: i, Status: StatusSupported}

		resolved, converted := ResolveQuestionType(string(q.Type))
		if converted {
			check.Status = StatusConverted
			check.From = string(q.Type)
			check.To = resolved
			check.Reason = fmt.Sprintf("type %q has no direct representation", string(q.Type))
		}

		if reason := checkStructure(resolved, q); reason != "" {
			check.Status = StatusRejected
			check.Reason = reason
		}

		if resolved != TypeSection {
			key := strings.ToLower(strings.TrimSpace(q.Prompt))
			if key != "" {
				if first, dup := seen[key]; dup {
					report.Warnings = append(report.Warnings, Warning{
						Message: fmt.Sprintf("duplicate question text %q", q.Prompt),
						Indices: []int{first, i},
					})
				} else {
					seen[key] = i
				}
			}
		}

		report.Checks = append(report.Checks, check)
	}

	return report
}

func checkStructure(resolved QuestionType, q QuestionSpec) (reason string) {
	switch resolved {
	case TypeMultipleChoice, TypeCheckbox, TypeDropdown:
		if len(q.Options) == 0 {
			return "choice questions need a non-empty option list"
		}
	case TypeLinearScale:
		if q.Scale != nil && q.Scale.Low >= q.Scale.High {
			return "scale lower bound must be below the upper bound"
		}
	case TypeMultipleChoiceGrid, TypeCheckboxGrid:
		if q.Grid == nil || len(q.Grid.Rows) == 0 || len(q.Grid.Columns) == 0 {
			return "grid questions need rows and columns"
		}
	case TypeImage:
		if q.Media == nil || q.Media.SourceURI == "" {
			return "image items need a content URI"
		}
	case TypeVideo:
		if q.Media == nil || q.Media.YouTubeURI == "" {
			return "video items need a YouTube URI"
		}
	case TypeSection:
		return ""
	}
	if resolved != TypeSection && strings.TrimSpace(q.Prompt) == "" {
		return "question text must not be empty"
	}
	return ""
}
