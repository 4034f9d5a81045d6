package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost はBCRYPT_COST未指定時のコスト。
const DefaultBcryptCost = 10

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	// Hash は生パスワードをソルト付きハッシュに変換する。
	// 同じ入力でも呼び出しごとに異なる値を返す。
	Hash(raw string) (string, error)
	// Verify は生パスワードがハッシュに一致するかを返す。
	// 不正な形式のハッシュに対してはエラーではなくfalseを返す。
	Verify(raw, hash string) bool
}

// BcryptHasher はbcryptによるPasswordHasher実装。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はBcryptHasherを生成する。
// costがbcryptの許容範囲外の場合はDefaultBcryptCostを使用する。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash は生パスワードをbcryptハッシュに変換する。
// 72バイトを超える入力はbcryptが拒否するためエラーになる。
func (h *BcryptHasher) Hash(raw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は生パスワードがbcryptハッシュに一致するかを返す。
func (h *BcryptHasher) Verify(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// compile-time interface check
var _ PasswordHasher = (*BcryptHasher)(nil)
