package auth

import "github.com/hitoshi/taskman/internal/model"

// Authorize はprincipalがownerIDのリソースを操作できるかを判定する。
// 未認証の場合はUnauthenticated、所有者でない場合はForbiddenを返す。
func Authorize(p *model.Principal, ownerID string) error {
	if p == nil || p.UserID == "" {
		return model.NewUnauthenticatedError()
	}
	if p.UserID != ownerID {
		return model.NewForbiddenError()
	}
	return nil
}
