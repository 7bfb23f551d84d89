package model

import "time"

// MatchType は試合種別。
type MatchType string

const (
	MatchTypeOfficial MatchType = "official"
	MatchTypePractice MatchType = "practice"
	MatchTypeCup      MatchType = "cup"
	MatchTypeFriendly MatchType = "friendly"
)

// MatchResult は試合結果を表す。
type MatchResult struct {
	ID            int64     `json:"id"`
	MatchDate     time.Time `json:"matchDate"`
	Opponent      string    `json:"opponent"`
	OurScore      int       `json:"ourScore"`
	OpponentScore int       `json:"opponentScore"`
	Venue         string    `json:"venue"`
	MatchType     MatchType `json:"matchType"`
	Grade         string    `json:"grade"`
	Scorers       string    `json:"scorers"`
	Notes         string    `json:"notes"`
	ImageURL      string    `json:"imageUrl"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Outcome は自チームから見た勝敗を返す。
func (m *MatchResult) Outcome() string {
	switch {
	case m.OurScore > m.OpponentScore:
		return "win"
	case m.OurScore < m.OpponentScore:
		return "loss"
	default:
		return "draw"
	}
}

// MatchResultFilter は試合結果一覧の絞り込み条件。
type MatchResultFilter struct {
	Grade     string
	MatchType MatchType
	Search    string // 対戦相手の部分一致
	StartDate *time.Time
	EndDate   *time.Time
}

// MatchResultInput は試合結果作成時の入力。
type MatchResultInput struct {
	MatchDate     time.Time
	Opponent      string
	OurScore      int
	OpponentScore int
	Venue         string
	MatchType     MatchType
	Grade         string
	Scorers       string
	Notes         string
	ImageURL      string
}

// MatchResultPatch は試合結果の部分更新内容。
type MatchResultPatch struct {
	MatchDate     *time.Time
	Opponent      *string
	OurScore      *int
	OpponentScore *int
	Venue         *string
	MatchType     *MatchType
	Grade         *string
	Scorers       *string
	Notes         *string
	ImageURL      *string
}

// MatchStatistics は試合結果の集計値。
type MatchStatistics struct {
	Total        int     `json:"total"`
	Wins         int     `json:"wins"`
	Draws        int     `json:"draws"`
	Losses       int     `json:"losses"`
	GoalsFor     int     `json:"goalsFor"`
	GoalsAgainst int     `json:"goalsAgainst"`
	WinRate      float64 `json:"winRate"`
}
