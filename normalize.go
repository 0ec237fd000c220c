package formflow

import (
	"fmt"
	"strings"

	"google.golang.org/api/forms/v1"
)

// Conversion records that a question type had no direct representation and
// was degraded to a supported one.
type Conversion struct {
	From string       `json:"original_type"`
	To   QuestionType `json:"converted_type"`
}

// choiceKinds maps choice-style question types to the Forms API
// choiceQuestion.type discriminator.
var choiceKinds = map[QuestionType]string{
	TypeMultipleChoice: "RADIO",
	TypeCheckbox:       "CHECKBOX",
	TypeDropdown:       "DROP_DOWN",
}

// NormalizeQuestion converts a QuestionSpec into the nested item schema the
// Forms API expects: questions wrapped under a questionItem container, grid
// questions under a questionGroupItem, media and section breaks as their
// own item kinds. Unsupported types degrade to the nearest supported kind
// and the conversion is returned alongside the item, never applied
// silently. Grading is included whenever present; the service rejects it on
// non-quiz forms, which the validator warns about up front.
func NormalizeQuestion(q QuestionSpec) (item *forms.Item, conv *Conversion, err error) {
	resolved, converted := ResolveQuestionType(string(q.Type))
	if converted {
		conv = &Conversion{From: string(q.Type), To: resolved}
	}

	item = &forms.Item{Title: q.Prompt}
	switch resolved {
	case TypeShortAnswer, TypeLongAnswer:
		item.QuestionItem = questionItem(q, &forms.Question{
			TextQuestion: &forms.TextQuestion{Paragraph: resolved == TypeLongAnswer},
		})

	case TypeMultipleChoice, TypeCheckbox, TypeDropdown:
		if len(q.Options) == 0 {
			return nil, conv, NewValidationError(fmt.Sprintf("%s question %q has no options", resolved, q.Prompt), nil)
		}
		item.QuestionItem = questionItem(q, &forms.Question{
			ChoiceQuestion: &forms.ChoiceQuestion{
				Type:    choiceKinds[resolved],
				Options: newOptions(q.Options),
				Shuffle: q.Shuffle,
			},
		})

	case TypeLinearScale:
		scale := ScaleSpec{Low: 1, High: 5}
		if q.Scale != nil {
			scale = *q.Scale
		}
		item.QuestionItem = questionItem(q, &forms.Question{
			ScaleQuestion: &forms.ScaleQuestion{
				Low:       scale.Low,
				High:      scale.High,
				LowLabel:  scale.LowLabel,
				HighLabel: scale.HighLabel,
			},
		})

	case TypeMultipleChoiceGrid, TypeCheckboxGrid:
		if q.Grid == nil || len(q.Grid.Rows) == 0 || len(q.Grid.Columns) == 0 {
			return nil, conv, NewValidationError(fmt.Sprintf("grid question %q needs rows and columns", q.Prompt), nil)
		}
		columnKind := "RADIO"
		if resolved == TypeCheckboxGrid {
			columnKind = "CHECKBOX"
		}
		group := &forms.QuestionGroupItem{
			Grid: &forms.Grid{
				Columns: &forms.ChoiceQuestion{
					Type:    columnKind,
					Options: newOptions(q.Grid.Columns),
				},
				ShuffleQuestions: q.Grid.Shuffle,
			},
		}
		for _, row := range q.Grid.Rows {
			group.Questions = append(group.Questions, &forms.Question{
				Required:    q.Required,
				RowQuestion: &forms.RowQuestion{Title: row},
			})
		}
		item.QuestionGroupItem = group

	case TypeDate:
		item.QuestionItem = questionItem(q, &forms.Question{
			DateQuestion: &forms.DateQuestion{IncludeYear: true},
		})

	case TypeTime:
		item.QuestionItem = questionItem(q, &forms.Question{
			TimeQuestion: &forms.TimeQuestion{},
		})

	case TypeFileUpload:
		upload := UploadSpec{MaxFiles: 1}
		if q.Upload != nil {
			upload = *q.Upload
		}
		item.QuestionItem = questionItem(q, &forms.Question{
			FileUploadQuestion: &forms.FileUploadQuestion{
				MaxFiles:    upload.MaxFiles,
				MaxFileSize: upload.MaxFileSize,
				Types:       upload.Types,
			},
		})

	case TypeImage:
		if q.Media == nil || q.Media.SourceURI == "" {
			return nil, conv, NewValidationError(fmt.Sprintf("image item %q needs a content URI", q.Prompt), nil)
		}
		// Dimensions are unsupported by the service and must be omitted.
		item.ImageItem = &forms.ImageItem{
			Image: &forms.Image{
				SourceUri:  q.Media.SourceURI,
				AltText:    q.Media.AltText,
				Properties: mediaProperties(q.Media.Alignment),
			},
		}

	case TypeVideo:
		if q.Media == nil || q.Media.YouTubeURI == "" {
			return nil, conv, NewValidationError(fmt.Sprintf("video item %q needs a YouTube URI", q.Prompt), nil)
		}
		item.VideoItem = &forms.VideoItem{
			Caption: q.Media.Caption,
			Video: &forms.Video{
				YoutubeUri: q.Media.YouTubeURI,
				Properties: mediaProperties(q.Media.Alignment),
			},
		}

	case TypeSection:
		item.PageBreakItem = &forms.PageBreakItem{}

	default:
		return nil, conv, NewValidationError(fmt.Sprintf("no schema mapping for type %q", resolved), ErrUnsupportedType)
	}

	return item, conv, nil
}

func questionItem(q QuestionSpec, question *forms.Question) *forms.QuestionItem {
	question.Required = q.Required
	if q.Grading != nil {
		question.Grading = newGrading(q.Grading)
	}
	return &forms.QuestionItem{Question: question}
}

func newOptions(values []string) []*forms.Option {
	options := make([]*forms.Option, 0, len(values))
	for _, v := range values {
		options = append(options, &forms.Option{Value: v})
	}
	return options
}

func newGrading(g *GradingSpec) *forms.Grading {
	grading := &forms.Grading{PointValue: g.PointValue}
	if len(g.CorrectAnswers) > 0 {
		answers := make([]*forms.CorrectAnswer, 0, len(g.CorrectAnswers))
		for _, a := range g.CorrectAnswers {
			answers = append(answers, &forms.CorrectAnswer{Value: a})
		}
		grading.CorrectAnswers = &forms.CorrectAnswers{Answers: answers}
	}
	if g.WhenRight != "" {
		grading.WhenRight = &forms.Feedback{Text: g.WhenRight}
	}
	if g.WhenWrong != "" {
		grading.WhenWrong = &forms.Feedback{Text: g.WhenWrong}
	}
	return grading
}

func mediaProperties(alignment string) *forms.MediaProperties {
	if alignment == "" {
		return nil
	}
	return &forms.MediaProperties{Alignment: alignment}
}

// UpdateMask derives the minimal field-path list for an updateItem request
// on the given question, so an edit only declares the paths its type
// actually writes and unrelated API-managed fields are left untouched.
func UpdateMask(q QuestionSpec) string {
	resolved, _ := ResolveQuestionType(string(q.Type))

	parts := []string{"title"}
	switch resolved {
	case TypeShortAnswer, TypeLongAnswer:
		parts = append(parts, "questionItem.question.required", "questionItem.question.textQuestion")
	case TypeMultipleChoice, TypeCheckbox, TypeDropdown:
		parts = append(parts, "questionItem.question.required", "questionItem.question.choiceQuestion")
	case TypeLinearScale:
		parts = append(parts, "questionItem.question.required", "questionItem.question.scaleQuestion")
	case TypeMultipleChoiceGrid, TypeCheckboxGrid:
		parts = append(parts, "questionGroupItem")
	case TypeDate:
		parts = append(parts, "questionItem.question.required", "questionItem.question.dateQuestion")
	case TypeTime:
		parts = append(parts, "questionItem.question.required", "questionItem.question.timeQuestion")
	case TypeFileUpload:
		parts = append(parts, "questionItem.question.required", "questionItem.question.fileUploadQuestion")
	case TypeImage:
		parts = append(parts, "description", "imageItem.image.sourceUri", "imageItem.image.altText", "imageItem.image.properties.alignment")
	case TypeVideo:
		parts = append(parts, "description", "videoItem.video.youtubeUri", "videoItem.caption")
	case TypeSection:
		parts = append(parts, "description")
	}
	if q.Grading != nil {
		parts = append(parts, "questionItem.question.grading")
	}
	return strings.Join(parts, ",")
}

// NormalizeSettings converts a SettingsSpec into updateSettings requests
// with field-path masks covering only the fields that are set. Fields the
// external service cannot store are returned in skipped instead of being
// sent.
func NormalizeSettings(s SettingsSpec) (reqs []*forms.Request, skipped []string) {
	if s.IsQuiz != nil {
		reqs = append(reqs, &forms.Request{
			UpdateSettings: &forms.UpdateSettingsRequest{
				Settings: &forms.FormSettings{
					QuizSettings: &forms.QuizSettings{
						IsQuiz:          *s.IsQuiz,
						ForceSendFields: []string{"IsQuiz"},
					},
				},
				UpdateMask: "quizSettings.isQuiz",
			},
		})
	}
	if s.CollectEmail != nil {
		collection := EmailCollectionTypeDoNotCollect
		if *s.CollectEmail {
			collection = EmailCollectionTypeVerified
		}
		reqs = append(reqs, &forms.Request{
			UpdateSettings: &forms.UpdateSettingsRequest{
				Settings: &forms.FormSettings{
					EmailCollectionType: string(collection),
				},
				UpdateMask: "emailCollectionType",
			},
		})
	}
	if s.AllowResponseEditing != nil {
		skipped = append(skipped, "allow_response_editing")
	}
	if s.ConfirmationMessage != nil {
		skipped = append(skipped, "confirmation_message")
	}
	return reqs, skipped
}

// NormalizeInfo builds updateFormInfo requests for the non-empty fields.
func NormalizeInfo(title, description string) (reqs []*forms.Request) {
	if title != "" {
		reqs = append(reqs, &forms.Request{
			UpdateFormInfo: &forms.UpdateFormInfoRequest{
				Info:       &forms.Info{Title: title},
				UpdateMask: "title",
			},
		})
	}
	if description != "" {
		reqs = append(reqs, &forms.Request{
			UpdateFormInfo: &forms.UpdateFormInfoRequest{
				Info:       &forms.Info{Description: description},
				UpdateMask: "description",
			},
		})
	}
	return reqs
}
