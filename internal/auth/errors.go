package auth

import "errors"

// Domain rejections. The HTTP boundary translates these into generic,
// non-enumerable responses; the precise reason is for logs only.
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidRole       = errors.New("invalid role")
	ErrSchoolNotFound    = errors.New("school not found")
	ErrSchoolInactive    = errors.New("school inactive")
	ErrAccountInactive   = errors.New("account inactive")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInvalidToken      = errors.New("invalid token")
)
