package model

import "time"

// NewsCategory はお知らせの分類。
type NewsCategory string

const (
	NewsCategoryNotice NewsCategory = "notice"
	NewsCategoryMatch  NewsCategory = "match"
	NewsCategoryEvent  NewsCategory = "event"
	NewsCategoryOther  NewsCategory = "other"
)

// News はお知らせ記事を表す。
type News struct {
	ID        int64        `json:"id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Category  NewsCategory `json:"category"`
	Grade     string       `json:"grade"`
	ImageURL  string       `json:"imageUrl"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NewsFilter はお知らせ一覧の絞り込み条件。
type NewsFilter struct {
	Category NewsCategory
	Grade    string
	Search   string // タイトル・本文の部分一致
	Limit    int    // 0は無制限
}

// NewsInput はお知らせ作成時の入力。
type NewsInput struct {
	Title    string
	Content  string
	Category NewsCategory
	Grade    string
	ImageURL string
}

// NewsPatch はお知らせの部分更新内容。
type NewsPatch struct {
	Title    *string
	Content  *string
	Category *NewsCategory
	Grade    *string
	ImageURL *string
}
