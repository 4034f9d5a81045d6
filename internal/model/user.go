// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザー（認証主体）を表す。
// Emailは大文字小文字を区別して一意に扱う。
// PasswordHashは外部へ公開しない。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal はリクエスト単位で確定した認証済みユーザーを表す。
// ミドルウェアが1リクエストにつき1度だけ生成し、以降は読み取り専用で下流に渡す。
type Principal struct {
	UserID string
	Email  string
	Name   string
}

// NewPrincipal はUserからPrincipalを生成する。
func NewPrincipal(u *User) *Principal {
	return &Principal{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
	}
}
