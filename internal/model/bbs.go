package model

import "time"

// BbsPost は掲示板の投稿を表す。
type BbsPost struct {
	ID         int64     `json:"id"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BbsComment は掲示板投稿へのコメントを表す。
// PostIDは外部キー制約を持たず、投稿削除時にも同時には削除されない。
type BbsComment struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"postId"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
