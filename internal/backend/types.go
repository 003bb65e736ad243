package backend

// ContentKind is the kind of an addressable course item.
type ContentKind string

const (
	KindVideo      ContentKind = "video"
	KindDocument   ContentKind = "document"
	KindQuiz       ContentKind = "quiz"
	KindAssignment ContentKind = "assignment"
)

// ContentItem is one entry of a course section as listed in navigation.
type ContentItem struct {
	ID        string      `json:"_id" yaml:"id"`
	Title     string      `json:"title" yaml:"title"`
	Kind      ContentKind `json:"type" yaml:"type"`
	Completed bool        `json:"isCompleted,omitempty" yaml:"completed,omitempty"`
	Locked    bool        `json:"isLocked,omitempty" yaml:"locked,omitempty"`
}

// Section is an ordered group of content items.
type Section struct {
	ID    string        `json:"_id" yaml:"id"`
	Title string        `json:"title" yaml:"title"`
	Items []ContentItem `json:"content" yaml:"content"`
}

// Content is the full body of a content item.
type Content struct {
	ID       string      `json:"_id" yaml:"id"`
	Title    string      `json:"title" yaml:"title"`
	Kind     ContentKind `json:"type" yaml:"type"`
	Body     string      `json:"content" yaml:"body"`
	VideoURL string      `json:"video_url,omitempty" yaml:"video_url,omitempty"`
	// Duration is free-form ("12:30", "750"); empty means unknown and the
	// media source is probed instead.
	Duration   string `json:"duration,omitempty" yaml:"duration,omitempty"`
	NextID     string `json:"next_content_id,omitempty" yaml:"next,omitempty"`
	PreviousID string `json:"previous_content_id,omitempty" yaml:"previous,omitempty"`
}

// Question is a single multiple-choice question. CorrectOption is only
// ever shown to the learner after grading.
type Question struct {
	ID            string   `json:"_id" yaml:"id"`
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectOption int      `json:"correct_option" yaml:"correct"`
}

// QuizDefinition is a quiz as returned by the quiz collaborator.
type QuizDefinition struct {
	ID               string     `json:"_id" yaml:"id"`
	Title            string     `json:"title" yaml:"title"`
	Description      string     `json:"description" yaml:"description"`
	Questions        []Question `json:"questions" yaml:"questions"`
	TimeLimitMinutes *int       `json:"time_limit,omitempty" yaml:"time_limit,omitempty"`
	// PassingScore is a percentage (0-100).
	PassingScore float64 `json:"passing_score" yaml:"passing_score"`
}

// ReviewItem is the graded view of one question.
type ReviewItem struct {
	ID            string   `json:"_id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	UserAnswer    int      `json:"user_answer"`
}

// Correct reports whether the learner chose the correct option.
func (r ReviewItem) Correct() bool {
	return r.UserAnswer >= 0 && r.UserAnswer == r.CorrectOption
}

// QuizResult is the grading summary for a submission.
type QuizResult struct {
	Score          float64      `json:"score"`
	TotalQuestions int          `json:"total_questions"`
	CorrectAnswers int          `json:"correct_answers"`
	TimeTaken      float64      `json:"time_taken"` // seconds
	Review         []ReviewItem `json:"questions"`
}

// ChatRequest is one assistant turn.
type ChatRequest struct {
	UserID    string   `json:"user_id"`
	Message   string   `json:"message"`
	CourseID  string   `json:"course_id,omitempty"`
	ContentID string   `json:"content_id,omitempty"`
	Context   []string `json:"context"`
}

// ChatReply is the assistant's answer.
type ChatReply struct {
	Message string   `json:"message"`
	Sources []string `json:"sources,omitempty"`
}

// FindItem locates a content item by id across sections.
func FindItem(sections []Section, id string) (ContentItem, bool) {
	for _, s := range sections {
		for _, it := range s.Items {
			if it.ID == id {
				return it, true
			}
		}
	}
	return ContentItem{}, false
}
