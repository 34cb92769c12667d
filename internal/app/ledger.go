package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/RobertYoung/quizmaster/internal/domain"
)

// Ledger owns teams, their per-category scores, and the per-question award
// records that make point toggling reversible. It is not goroutine-safe on
// its own; HostService serializes access.
type Ledger struct {
	teams  []domain.Team
	scores map[string]domain.TeamScore
	awards map[string][]domain.Award
	now    func() time.Time
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return NewLedgerWithClock(time.Now)
}

// NewLedgerWithClock allows deterministic team IDs in tests.
func NewLedgerWithClock(now func() time.Time) *Ledger {
	return &Ledger{
		scores: make(map[string]domain.TeamScore),
		awards: make(map[string][]domain.Award),
		now:    now,
	}
}

// AddTeam registers a team with a time-based ID and the next palette color,
// and creates its zeroed score record. Returns the new team's ID.
func (l *Ledger) AddTeam(name string) string {
	id := l.newTeamID()
	team := domain.Team{
		ID:    id,
		Name:  name,
		Color: domain.TeamColors[len(l.teams)%len(domain.TeamColors)],
	}
	l.teams = append(l.teams, team)
	l.scores[id] = domain.TeamScore{
		TeamID:         id,
		CategoryScores: make(map[string]int),
	}
	return id
}

func (l *Ledger) newTeamID() string {
	id := "team-" + strconv.FormatInt(l.now().UnixNano(), 10)
	for i := 1; ; i++ {
		if _, taken := l.scores[id]; !taken {
			return id
		}
		id = fmt.Sprintf("team-%d-%d", l.now().UnixNano(), i)
	}
}

// RemoveTeam drops a team and its score record. Award records referencing
// the team are kept; the leaderboard only enumerates current teams, so the
// dangling entries are harmless.
func (l *Ledger) RemoveTeam(teamID string) {
	for i, team := range l.teams {
		if team.ID == teamID {
			l.teams = append(l.teams[:i], l.teams[i+1:]...)
			break
		}
	}
	delete(l.scores, teamID)
}

// AwardCategoryPoints adds delta (positive or negative) to a team's category
// score and recomputes the total. Unknown teams are a silent no-op.
func (l *Ledger) AwardCategoryPoints(teamID, categoryID string, delta int) {
	score, ok := l.scores[teamID]
	if !ok {
		return
	}
	score.CategoryScores[categoryID] += delta
	score.TotalScore = sumScores(score.CategoryScores)
	l.scores[teamID] = score
}

// ToggleQuestionAward credits points to a team for a question, or revokes an
// existing credit. Revoking reverses the originally recorded amount, so a
// changed points configuration between award and revoke cannot skew totals.
func (l *Ledger) ToggleQuestionAward(teamID, questionID, categoryID string, points int) {
	if _, ok := l.scores[teamID]; !ok {
		return
	}

	for i, award := range l.awards[questionID] {
		if award.TeamID == teamID {
			l.awards[questionID] = append(l.awards[questionID][:i], l.awards[questionID][i+1:]...)
			if len(l.awards[questionID]) == 0 {
				delete(l.awards, questionID)
			}
			l.AwardCategoryPoints(teamID, categoryID, -award.Points)
			return
		}
	}

	l.awards[questionID] = append(l.awards[questionID], domain.Award{TeamID: teamID, Points: points})
	l.AwardCategoryPoints(teamID, categoryID, points)
}

// QuestionAwards lists the team IDs currently credited for a question.
func (l *Ledger) QuestionAwards(questionID string) []string {
	awards := l.awards[questionID]
	teamIDs := make([]string, 0, len(awards))
	for _, award := range awards {
		teamIDs = append(teamIDs, award.TeamID)
	}
	return teamIDs
}

// Teams returns the teams in creation order.
func (l *Ledger) Teams() []domain.Team {
	teams := make([]domain.Team, len(l.teams))
	copy(teams, l.teams)
	return teams
}

// Leaderboard derives the ranking on demand: descending by total score, ties
// kept in team creation order (the sort is stable by construction).
func (l *Ledger) Leaderboard() []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(l.teams))
	for _, team := range l.teams {
		entries = append(entries, domain.LeaderboardEntry{
			Team:  team,
			Score: l.scores[team.ID].TotalScore,
		})
	}
	// Insertion sort keeps equal scores in input order without a tiebreak key.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Score > entries[j-1].Score; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	return entries
}

// Reset clears teams, scores, and award records.
func (l *Ledger) Reset() {
	l.teams = nil
	l.scores = make(map[string]domain.TeamScore)
	l.awards = make(map[string][]domain.Award)
}

// Snapshot captures the ledger in its persistable form.
func (l *Ledger) Snapshot() domain.ScoreSnapshot {
	snap := domain.ScoreSnapshot{
		Teams:          make([]domain.Team, len(l.teams)),
		Scores:         make(map[string]domain.TeamScore, len(l.scores)),
		QuestionAwards: make(map[string][]domain.Award, len(l.awards)),
	}
	copy(snap.Teams, l.teams)
	for id, score := range l.scores {
		copied := domain.TeamScore{
			TeamID:         score.TeamID,
			CategoryScores: make(map[string]int, len(score.CategoryScores)),
			TotalScore:     score.TotalScore,
		}
		for cat, pts := range score.CategoryScores {
			copied.CategoryScores[cat] = pts
		}
		snap.Scores[id] = copied
	}
	for q, awards := range l.awards {
		snap.QuestionAwards[q] = append([]domain.Award(nil), awards...)
	}
	return snap
}

// RestoreLedger rebuilds a ledger from a persisted snapshot. Score records
// are re-derived where missing and totals recomputed, so a stale or
// partially written snapshot heals rather than corrupting the session.
func RestoreLedger(snap domain.ScoreSnapshot) *Ledger {
	l := NewLedger()
	for _, team := range snap.Teams {
		l.teams = append(l.teams, team)
		score := domain.TeamScore{TeamID: team.ID, CategoryScores: make(map[string]int)}
		if persisted, ok := snap.Scores[team.ID]; ok {
			for cat, pts := range persisted.CategoryScores {
				score.CategoryScores[cat] = pts
			}
		}
		score.TotalScore = sumScores(score.CategoryScores)
		l.scores[team.ID] = score
	}
	for q, awards := range snap.QuestionAwards {
		if len(awards) > 0 {
			l.awards[q] = append([]domain.Award(nil), awards...)
		}
	}
	return l
}

func sumScores(categoryScores map[string]int) int {
	total := 0
	for _, points := range categoryScores {
		total += points
	}
	return total
}
