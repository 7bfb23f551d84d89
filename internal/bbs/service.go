// Package bbs は掲示板（投稿とコメント）のドメインロジックを提供する。
//
// 削除は投稿者本人または管理者のみが行える。存在確認は権限確認より先に行い、
// 存在しないIDにはNOT_FOUND、他人の投稿にはFORBIDDENを返す。
// 書き込み前の存在確認はStrict系の読み取りで行い、ストア不在を「存在しない」と取り違えない。
package bbs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/repository"
	"github.com/hitoshi/kickoff/internal/security"
)

const (
	postResource    = "投稿"
	commentResource = "コメント"

	// anonymousName はユーザー名が未設定の場合の表示名。
	anonymousName = "名無しさん"
)

// Service は掲示板のサービス層。
type Service struct {
	posts     repository.BbsPostRepository
	comments  repository.BbsCommentRepository
	sanitizer security.ContentSanitizer
}

// NewService はServiceを生成する。
func NewService(
	posts repository.BbsPostRepository,
	comments repository.BbsCommentRepository,
	sanitizer security.ContentSanitizer,
) *Service {
	return &Service{
		posts:     posts,
		comments:  comments,
		sanitizer: sanitizer,
	}
}

// ListPosts は投稿を新しい順に返す。
func (s *Service) ListPosts(ctx context.Context) ([]*model.BbsPost, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return posts, nil
}

// CreatePost はログインユーザーを投稿者として投稿を作成する。
func (s *Service) CreatePost(ctx context.Context, user *model.User, title, content string) (*model.BbsPost, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError("")
	}
	content = s.sanitizer.Sanitize(content)
	title = strings.TrimSpace(s.sanitizer.PlainText(title))
	if title == "" || content == "" {
		return nil, model.NewValidationError(emptyFields(map[string]string{"title": title, "content": content}))
	}

	post := &model.BbsPost{
		AuthorID:   user.ID,
		AuthorName: displayName(user),
		Title:      title,
		Content:    content,
	}
	id, err := s.posts.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	post.ID = id
	return post, nil
}

// DeletePost は投稿を削除する。コメントは残り、孤立コメントとして後で整理される。
func (s *Service) DeletePost(ctx context.Context, user *model.User, id int64) error {
	posts, err := s.posts.ListStrict(ctx)
	if err != nil {
		return fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}

	// 件数が少ないため全件から線形探索する
	var target *model.BbsPost
	for _, p := range posts {
		if p.ID == id {
			target = p
			break
		}
	}
	if target == nil {
		return model.NewNotFoundError(postResource, id)
	}
	if !canDelete(user, target.AuthorID) {
		return model.NewForbiddenError("自分の投稿のみ削除できます。")
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(postResource, id)
		}
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	return nil
}

// ListComments は投稿に付いたコメントを新しい順に返す。
func (s *Service) ListComments(ctx context.Context, postID int64) ([]*model.BbsComment, error) {
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return comments, nil
}

// CreateComment は投稿にコメントする。投稿が存在しない場合はNOT_FOUNDとなる。
func (s *Service) CreateComment(ctx context.Context, user *model.User, postID int64, content string) (*model.BbsComment, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError("")
	}

	post, err := s.posts.FindByIDStrict(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewNotFoundError(postResource, postID)
	}

	content = s.sanitizer.Sanitize(content)
	if content == "" {
		return nil, model.NewValidationError(map[string]string{"content": "必須項目です。"})
	}

	comment := &model.BbsComment{
		PostID:     postID,
		AuthorID:   user.ID,
		AuthorName: displayName(user),
		Content:    content,
	}
	id, err := s.comments.Create(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	comment.ID = id
	return comment, nil
}

// DeleteComment はコメントを削除する。
func (s *Service) DeleteComment(ctx context.Context, user *model.User, id int64) error {
	comments, err := s.comments.ListStrict(ctx)
	if err != nil {
		return fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}

	var target *model.BbsComment
	for _, c := range comments {
		if c.ID == id {
			target = c
			break
		}
	}
	if target == nil {
		return model.NewNotFoundError(commentResource, id)
	}
	if !canDelete(user, target.AuthorID) {
		return model.NewForbiddenError("自分のコメントのみ削除できます。")
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(commentResource, id)
		}
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}

// canDelete は管理者または投稿者本人であるかを返す。
func canDelete(user *model.User, authorID int64) bool {
	if user == nil {
		return false
	}
	return user.IsAdmin() || user.ID == authorID
}

func displayName(user *model.User) string {
	if name := strings.TrimSpace(user.Name); name != "" {
		return name
	}
	return anonymousName
}

func emptyFields(values map[string]string) map[string]string {
	fields := make(map[string]string)
	for k, v := range values {
		if v == "" {
			fields[k] = "必須項目です。"
		}
	}
	return fields
}
