package domain

import "time"

type Referral struct {
	ReferralID string      `json:"referral_id"`
	ReferrerID string      `json:"-"`
	Referee    UserSummary `json:"user"`
	Code       string      `json:"-"`
	CreatedAt  time.Time   `json:"created_at"`
}

type ReferralStats struct {
	Code      string      `json:"code"`
	Count     int         `json:"count"`
	Referrals []*Referral `json:"referrals"`
}
