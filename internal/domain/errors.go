package domain

import "errors"

var (
	ErrRequestResolved = errors.New("request has already been responded to")

	ErrInviteUsed        = errors.New("invite token has already been used")
	ErrInviteExpired     = errors.New("invite token has expired")
	ErrInviteInactive    = errors.New("invite token is no longer valid")
	ErrInviteEmailScoped = errors.New("this invite was issued for a different email address")
)
