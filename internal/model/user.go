// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限種別を表す。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者。オーナーのOpenIDは自動的に管理者となる。
	RoleAdmin Role = "admin"
)

// User はサイト利用ユーザーを表す。
// 外部IdPのOpenIDで一意に識別され、システムからは削除されない。
type User struct {
	ID           int64     `json:"id"`
	OpenID       string    `json:"openId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	LoginMethod  string    `json:"loginMethod"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

// IsAdmin はユーザーが管理者かどうかを返す。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserUpsert はOpenIDをキーにしたユーザーのUPSERT内容を表す。
// nilフィールドは既存の値を維持する。
type UserUpsert struct {
	OpenID       string
	Name         *string
	Email        *string
	LoginMethod  *string
	Role         *Role
	LastSignedIn *time.Time
}
