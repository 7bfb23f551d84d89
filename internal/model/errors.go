// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: auth, validation, content, system
	Action   string            // ユーザー向け対処方法
	Fields   map[string]string // 入力検証エラーのフィールド別詳細
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// HTTPStatus はエラーコードに対応するHTTPステータスコードを返す。
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeMethodNotSupported:
		return http.StatusMethodNotAllowed
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// 定義済みエラーコード
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotSupported = "METHOD_NOT_SUPPORTED"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternal           = "INTERNAL_SERVER_ERROR"
)

// NewBadRequestError は不正なリクエストのエラーを生成する。
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeBadRequest,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewValidationError はフィールド別の入力検証エラーを生成する。
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		Code:     ErrCodeBadRequest,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "各項目の入力内容を確認してください。",
		Fields:   fields,
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	if message == "" {
		message = "ログインが必要です。"
	}
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  message,
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError(message string) *APIError {
	if message == "" {
		message = "この操作を行う権限がありません。"
	}
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  message,
		Category: "auth",
		Action:   "管理者にお問い合わせください。",
	}
}

// NewNotFoundError は対象リソース未検出エラーを生成する。
func NewNotFoundError(resource string, id int64) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません: %d", resource, id),
		Category: "content",
		Action:   "一覧を再読み込みしてください。",
	}
}

// NewProcedureNotFoundError は未定義のプロシージャ呼び出しエラーを生成する。
func NewProcedureNotFoundError(path string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("プロシージャが見つかりません: %s", path),
		Category: "system",
		Action:   "クライアントのバージョンを確認してください。",
	}
}

// NewMethodNotSupportedError はHTTPメソッド不一致エラーを生成する。
func NewMethodNotSupportedError(method, path string) *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotSupported,
		Message:  fmt.Sprintf("%s は %s に対応していません。", path, method),
		Category: "system",
		Action:   "クライアントのバージョンを確認してください。",
	}
}

// NewTooManyRequestsError はレート制限超過エラーを生成する。
func NewTooManyRequestsError() *APIError {
	return &APIError{
		Code:     ErrCodeTooManyRequests,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録すること。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
