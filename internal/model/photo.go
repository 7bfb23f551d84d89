package model

import "time"

// Photo はギャラリーの写真を表す。
type Photo struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl"`
	FileKey     string     `json:"fileKey"`
	Category    string     `json:"category"`
	TakenAt     *time.Time `json:"takenAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// PhotoFilter は写真一覧の絞り込み条件。
type PhotoFilter struct {
	Category string
}
