package domain

import "fmt"

// Validate checks the content contract a question set must satisfy before it
// enters the catalog: at least one category, at least one question per
// category, consistent question counts, unique IDs within the set, positive
// points, and variant fields matching the declared question type. The core
// does not re-validate at runtime; loaders call this at the load boundary.
func (s QuestionSet) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("question set has empty id")
	}
	if len(s.Categories) == 0 {
		return fmt.Errorf("question set %q has no categories", s.ID)
	}

	categoryIDs := make(map[string]struct{}, len(s.Categories))
	questionIDs := make(map[string]struct{})
	for _, cat := range s.Categories {
		if cat.ID == "" {
			return fmt.Errorf("question set %q has a category with empty id", s.ID)
		}
		if _, dup := categoryIDs[cat.ID]; dup {
			return fmt.Errorf("question set %q has duplicate category %q", s.ID, cat.ID)
		}
		categoryIDs[cat.ID] = struct{}{}

		if len(cat.Questions) == 0 {
			return fmt.Errorf("category %q has no questions", cat.ID)
		}
		if cat.QuestionCount != len(cat.Questions) {
			return fmt.Errorf("category %q declares %d questions but contains %d", cat.ID, cat.QuestionCount, len(cat.Questions))
		}

		for _, q := range cat.Questions {
			if q.ID == "" {
				return fmt.Errorf("category %q has a question with empty id", cat.ID)
			}
			if _, dup := questionIDs[q.ID]; dup {
				return fmt.Errorf("question set %q has duplicate question %q", s.ID, q.ID)
			}
			questionIDs[q.ID] = struct{}{}

			if q.Points <= 0 {
				return fmt.Errorf("question %q has non-positive points %d", q.ID, q.Points)
			}
			if err := q.validateVariant(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (q Question) validateVariant() error {
	switch q.Type {
	case QuestionTypeText:
		return nil
	case QuestionTypeMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("question %q needs at least two options", q.ID)
		}
		if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
			return fmt.Errorf("question %q has correct option index %d out of range", q.ID, q.CorrectOptionIndex)
		}
		return nil
	case QuestionTypePicture:
		if q.ImageURL == "" {
			return fmt.Errorf("question %q has no image url", q.ID)
		}
		return nil
	default:
		return fmt.Errorf("question %q has unknown type %q", q.ID, q.Type)
	}
}

// ValidateSets validates each set and checks catalog-wide ID uniqueness.
func ValidateSets(sets []QuestionSet) error {
	seen := make(map[string]struct{}, len(sets))
	for _, set := range sets {
		if err := set.Validate(); err != nil {
			return err
		}
		if _, dup := seen[set.ID]; dup {
			return fmt.Errorf("duplicate question set id %q", set.ID)
		}
		seen[set.ID] = struct{}{}
	}
	return nil
}
