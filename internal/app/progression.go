package app

import "github.com/RobertYoung/quizmaster/internal/domain"

// Progression is the quiz traversal state machine: lifecycle status, the
// current (category, question) position, the answer-reveal flag, and the
// section-intro gate. It is a value type; every transition is a total
// function returning the next state, so unreachable or invalid inputs
// degrade to no-ops rather than errors.
type Progression struct {
	Set            domain.QuestionSet
	Status         domain.Status
	CategoryIndex  int
	QuestionIndex  int
	AnswerRevealed bool
	SectionIntro   bool
}

// NewProgression binds a fresh progression to a question set.
func NewProgression(set domain.QuestionSet) Progression {
	return Progression{
		Set:    set,
		Status: domain.StatusSetup,
	}
}

// Start moves setup -> playing and shows the first section intro.
func (p Progression) Start() Progression {
	if p.Status != domain.StatusSetup {
		return p
	}
	p.Status = domain.StatusPlaying
	p.SectionIntro = true
	return p
}

// DismissSectionIntro clears the intro gate. Only meaningful while playing.
func (p Progression) DismissSectionIntro() Progression {
	if p.Status != domain.StatusPlaying {
		return p
	}
	p.SectionIntro = false
	return p
}

// RevealAnswer shows the answer for the current question.
func (p Progression) RevealAnswer() Progression {
	p.AnswerRevealed = true
	return p
}

// HideAnswer hides the answer again.
func (p Progression) HideAnswer() Progression {
	p.AnswerRevealed = false
	return p
}

// NextQuestion advances one question, crossing into the next category (with
// its intro shown) at a boundary, or into finished after the very last one.
func (p Progression) NextQuestion() Progression {
	lastQuestion := p.QuestionIndex >= len(p.Set.Categories[p.CategoryIndex].Questions)-1
	lastCategory := p.CategoryIndex >= len(p.Set.Categories)-1

	p.AnswerRevealed = false
	switch {
	case lastQuestion && lastCategory:
		p.Status = domain.StatusFinished
	case lastQuestion:
		p.CategoryIndex++
		p.QuestionIndex = 0
		p.SectionIntro = true
	default:
		p.QuestionIndex++
	}
	return p
}

// PreviousQuestion steps one question back. From a section intro it returns
// to the last question of the previous category; the intro of the first
// category is the absolute start and going back from there is a no-op.
func (p Progression) PreviousQuestion() Progression {
	if p.SectionIntro {
		if p.CategoryIndex == 0 {
			return p
		}
		p.CategoryIndex--
		p.QuestionIndex = len(p.Set.Categories[p.CategoryIndex].Questions) - 1
		p.SectionIntro = false
		p.AnswerRevealed = false
		return p
	}

	switch {
	case p.QuestionIndex > 0:
		p.QuestionIndex--
		p.AnswerRevealed = false
	case p.CategoryIndex > 0:
		p.CategoryIndex--
		p.QuestionIndex = len(p.Set.Categories[p.CategoryIndex].Questions) - 1
		p.SectionIntro = true
		p.AnswerRevealed = false
	}
	return p
}

// GoToCategory jumps to the first question of a category and shows its
// intro. Out-of-range indices are the caller's bug; they are dropped here so
// the state machine stays total.
func (p Progression) GoToCategory(index int) Progression {
	if index < 0 || index >= len(p.Set.Categories) {
		return p
	}
	p.CategoryIndex = index
	p.QuestionIndex = 0
	p.AnswerRevealed = false
	p.SectionIntro = true
	return p
}

// Finish forces the finished status regardless of position.
func (p Progression) Finish() Progression {
	p.Status = domain.StatusFinished
	return p
}

// Reset returns the initial state for the currently bound set.
func (p Progression) Reset() Progression {
	return NewProgression(p.Set)
}

// CurrentCategory returns the category at the current position.
func (p Progression) CurrentCategory() domain.Category {
	return p.Set.Categories[p.CategoryIndex]
}

// CurrentQuestion returns the question at the current position.
func (p Progression) CurrentQuestion() domain.Question {
	return p.Set.Categories[p.CategoryIndex].Questions[p.QuestionIndex]
}

// TotalQuestions is the question count across every category of the set.
func (p Progression) TotalQuestions() int {
	return p.Set.TotalQuestions()
}

// QuestionOrdinal is the 1-based running number of the current question
// across category boundaries.
func (p Progression) QuestionOrdinal() int {
	ordinal := 0
	for i := 0; i < p.CategoryIndex; i++ {
		ordinal += len(p.Set.Categories[i].Questions)
	}
	return ordinal + p.QuestionIndex + 1
}

// Snapshot captures the persistable portion of the progression.
func (p Progression) Snapshot() domain.ProgressionSnapshot {
	return domain.ProgressionSnapshot{
		Status:               p.Status,
		QuestionSetID:        p.Set.ID,
		CurrentCategoryIndex: p.CategoryIndex,
		CurrentQuestionIndex: p.QuestionIndex,
		IsAnswerRevealed:     p.AnswerRevealed,
		ShowingSectionIntro:  p.SectionIntro,
	}
}

// RestoreProgression rebuilds a progression from a persisted snapshot bound
// to the given set, clamping indices against the set's current shape. A
// snapshot taken against older content therefore lands on the nearest valid
// position instead of out of bounds.
func RestoreProgression(set domain.QuestionSet, snap domain.ProgressionSnapshot) Progression {
	p := NewProgression(set)
	switch snap.Status {
	case domain.StatusSetup, domain.StatusPlaying, domain.StatusFinished:
		p.Status = snap.Status
	default:
		p.Status = domain.StatusSetup
	}
	p.CategoryIndex = clamp(snap.CurrentCategoryIndex, 0, len(set.Categories)-1)
	p.QuestionIndex = clamp(snap.CurrentQuestionIndex, 0, len(set.Categories[p.CategoryIndex].Questions)-1)
	p.AnswerRevealed = snap.IsAnswerRevealed
	p.SectionIntro = snap.ShowingSectionIntro
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
