package domain

import "time"

type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

type User struct {
	UserID        string     `json:"user_id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	PasswordHash  string     `json:"-"`
	Role          UserRole   `json:"role"`
	DisplayName   string     `json:"display_name"`
	Headline      string     `json:"headline"`
	Bio           string     `json:"bio"`
	Location      string     `json:"location"`
	Website       string     `json:"website"`
	AvatarURL     string     `json:"avatar_url"`
	ReferralCode  string     `json:"referral_code"`
	ReferralCount int        `json:"referral_count"`
	OnboardedAt   *time.Time `json:"onboarded_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Roles []ProfessionalRole `json:"roles"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

func (u *User) Onboarded() bool {
	return u.OnboardedAt != nil
}

// Summary is the public author card embedded in posts and referral lists.
func (u *User) Summary() UserSummary {
	return UserSummary{
		UserID:      u.UserID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Headline:    u.Headline,
		AvatarURL:   u.AvatarURL,
	}
}

type UserSummary struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Headline    string `json:"headline"`
	AvatarURL   string `json:"avatar_url"`
}

// Profile is the public view of a user.
type Profile struct {
	UserSummary
	Bio       string             `json:"bio"`
	Location  string             `json:"location"`
	Website   string             `json:"website"`
	Roles     []ProfessionalRole `json:"roles"`
	CreatedAt time.Time          `json:"created_at"`
}

// ProfileUpdate carries optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	Headline    *string `json:"headline,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Location    *string `json:"location,omitempty"`
	Website     *string `json:"website,omitempty"`
}

func (p ProfileUpdate) Empty() bool {
	return p.DisplayName == nil && p.Headline == nil && p.Bio == nil &&
		p.Location == nil && p.Website == nil
}
