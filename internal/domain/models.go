package domain

// Status is the lifecycle phase of a quiz night.
type Status string

const (
	StatusSetup    Status = "setup"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// QuestionType discriminates the question variants.
type QuestionType string

const (
	QuestionTypeText           QuestionType = "text"
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypePicture        QuestionType = "picture"
)

// Question is a tagged union over the text, multiple-choice and picture
// variants. Type decides which of the variant fields are meaningful.
type Question struct {
	ID             string       `json:"id" yaml:"id"`
	CategoryID     string       `json:"categoryId" yaml:"categoryId"`
	QuestionNumber int          `json:"questionNumber" yaml:"questionNumber"`
	Type           QuestionType `json:"type" yaml:"type"`
	QuestionText   string       `json:"questionText" yaml:"questionText"`
	Answer         string       `json:"answer" yaml:"answer"`
	Points         int          `json:"points" yaml:"points"`
	Hint           string       `json:"hint,omitempty" yaml:"hint,omitempty"`
	FunFact        string       `json:"funFact,omitempty" yaml:"funFact,omitempty"`
	SourceURL      string       `json:"sourceUrl,omitempty" yaml:"sourceUrl,omitempty"`

	// text variant
	AcceptableAnswers []string `json:"acceptableAnswers,omitempty" yaml:"acceptableAnswers,omitempty"`

	// multiple-choice variant
	Options            []string `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectOptionIndex int      `json:"correctOptionIndex" yaml:"correctOptionIndex"`

	// picture variant
	ImageURL string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	ImageAlt string `json:"imageAlt,omitempty" yaml:"imageAlt,omitempty"`
}

// Category groups an ordered run of questions within a question set.
type Category struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty"`
	Icon          string     `json:"icon" yaml:"icon"`
	Color         string     `json:"color" yaml:"color"`
	QuestionCount int        `json:"questionCount" yaml:"questionCount"`
	Questions     []Question `json:"questions" yaml:"questions"`
}

// QuestionSet is a complete, independently selectable quiz content bundle.
// Sets are immutable once loaded from the catalog.
type QuestionSet struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Icon        string     `json:"icon" yaml:"icon"`
	Categories  []Category `json:"categories" yaml:"categories"`
}

// TotalQuestions sums question counts across all categories.
func (s QuestionSet) TotalQuestions() int {
	total := 0
	for _, cat := range s.Categories {
		total += len(cat.Questions)
	}
	return total
}

// Team is a scoring unit created by the host during setup.
type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TeamColors is the palette assigned round-robin as teams are added,
// indexed by the team count at creation time.
var TeamColors = []string{
	"#ef4444", // red
	"#3b82f6", // blue
	"#22c55e", // green
	"#f59e0b", // amber
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#06b6d4", // cyan
	"#f97316", // orange
}

// TeamScore tracks a team's per-category totals. TotalScore is always
// recomputed from CategoryScores, never stored independently.
type TeamScore struct {
	TeamID         string         `json:"teamId"`
	CategoryScores map[string]int `json:"categoryScores"`
	TotalScore     int            `json:"totalScore"`
}

// Award records that a team was credited points for one question. The
// recorded amount is what gets reversed when the award is toggled off.
type Award struct {
	TeamID string `json:"teamId"`
	Points int    `json:"points"`
}

// LeaderboardEntry pairs a team with its derived total score.
type LeaderboardEntry struct {
	Team  Team `json:"team"`
	Score int  `json:"score"`
}

// ProgressionSnapshot is the persisted form of the progression engine state.
type ProgressionSnapshot struct {
	Status               Status `json:"status"`
	QuestionSetID        string `json:"questionSetId"`
	CurrentCategoryIndex int    `json:"currentCategoryIndex"`
	CurrentQuestionIndex int    `json:"currentQuestionIndex"`
	IsAnswerRevealed     bool   `json:"isAnswerRevealed"`
	ShowingSectionIntro  bool   `json:"showingSectionIntro"`
}

// ScoreSnapshot is the persisted form of the score ledger.
type ScoreSnapshot struct {
	Teams          []Team               `json:"teams"`
	Scores         map[string]TeamScore `json:"scores"`
	QuestionAwards map[string][]Award   `json:"questionAwards"`
}
