package domain

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUnauthorized        = errors.New("authentication required")
	ErrForbidden           = errors.New("not allowed")
	ErrOnboardingRequired  = errors.New("onboarding not completed")
	ErrInvalidRole         = errors.New("unknown professional role")
	ErrInvalidReferralCode = errors.New("referral code not found")
	ErrPostNotFound        = errors.New("post not found")
	ErrInvalidMedia        = errors.New("media missing, already attached or owned by another user")
	ErrMediaNotFound       = errors.New("media not found")
	ErrInvalidCursor       = errors.New("cursor does not reference a feed item")
	ErrAlreadyReported     = errors.New("post already reported by this user")
	ErrCannotReportOwnPost = errors.New("cannot report own post")
	ErrQueueEntryNotFound  = errors.New("moderation queue entry not found")
	ErrAlreadyResolved     = errors.New("moderation queue entry already resolved")
	ErrFileTooLarge        = errors.New("file exceeds upload size limit")
	ErrUnsupportedMedia    = errors.New("unsupported media type")
)
