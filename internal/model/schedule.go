package model

import "time"

// EventType はスケジュールの予定種別。
type EventType string

const (
	EventTypePractice   EventType = "practice"
	EventTypeMatch      EventType = "match"
	EventTypeTournament EventType = "tournament"
	EventTypeEvent      EventType = "event"
)

// Schedule は練習・試合などの予定を表す。
// Gradesはカンマ区切りの保存形式のまま保持する（例: "U7,U8,U9"）。
type Schedule struct {
	ID        int64     `json:"id"`
	EventDate time.Time `json:"eventDate"`
	EventTime string    `json:"eventTime"`
	Opponent  string    `json:"opponent"`
	Venue     string    `json:"venue"`
	EventType EventType `json:"eventType"`
	Grades    string    `json:"grades"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ScheduleFilter はスケジュール一覧の絞り込み条件。全条件はANDで結合する。
type ScheduleFilter struct {
	Grade     string // 空またはallで絞り込みなし
	Search    string // 対戦相手の部分一致
	EventType EventType
	StartDate *time.Time
	EndDate   *time.Time
}

// ScheduleInput はスケジュール作成時の入力。
type ScheduleInput struct {
	EventDate time.Time
	EventTime string
	Opponent  string
	Venue     string
	EventType EventType
	Grades    GradeSet
	Notes     string
}

// SchedulePatch はスケジュールの部分更新内容。nilフィールドは変更しない。
type SchedulePatch struct {
	EventDate *time.Time
	EventTime *string
	Opponent  *string
	Venue     *string
	EventType *EventType
	Grades    GradeSet
	Notes     *string
}
