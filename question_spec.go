package formflow

// QuestionSpec describes one question in a caller-neutral shape, before it
// is normalized into the Forms API request schema. Which payload field is
// consulted depends on Type; the rest are ignored.
type QuestionSpec struct {
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"question"`
	Required bool         `json:"required"`

	Options []string     `json:"options,omitempty"`
	Shuffle bool         `json:"shuffle,omitempty"`
	Scale   *ScaleSpec   `json:"scale,omitempty"`
	Grid    *GridSpec    `json:"grid,omitempty"`
	Upload  *UploadSpec  `json:"upload,omitempty"`
	Media   *MediaSpec   `json:"media,omitempty"`
	Grading *GradingSpec `json:"grading,omitempty"`
}

// ScaleSpec bounds a linear_scale question. A zero value normalizes to the
// service default of 1..5.
type ScaleSpec struct {
	Low       int64  `json:"low"`
	High      int64  `json:"high"`
	LowLabel  string `json:"low_label,omitempty"`
	HighLabel string `json:"high_label,omitempty"`
}

// GridSpec describes the rows and columns of a grid question.
type GridSpec struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Shuffle bool     `json:"shuffle,omitempty"`
}

// UploadSpec limits a file_upload question.
type UploadSpec struct {
	MaxFiles    int64    `json:"max_files,omitempty"`
	MaxFileSize int64    `json:"max_file_size,omitempty"`
	Types       []string `json:"types,omitempty"`
}

// MediaSpec carries the media payload for image and video items.
// The external service rejects explicit dimensions on media, so width and
// height fields do not exist here.
type MediaSpec struct {
	SourceURI  string `json:"content_uri,omitempty"`
	YouTubeURI string `json:"youtube_uri,omitempty"`
	AltText    string `json:"alt_text,omitempty"`
	Alignment  string `json:"alignment,omitempty"`
	Caption    string `json:"caption,omitempty"`
}

// GradingSpec attaches quiz grading to a question. It only takes effect on
// forms with quiz mode enabled.
type GradingSpec struct {
	PointValue     int64    `json:"pointValue"`
	CorrectAnswers []string `json:"correctAnswers,omitempty"`
	WhenRight      string   `json:"whenRight,omitempty"`
	WhenWrong      string   `json:"whenWrong,omitempty"`
}
