package entity

// ReferralStats summarizes an account's referral activity
type ReferralStats struct {
	AccountID     uint64 `json:"accountId"`
	Code          string `json:"code"`
	ReferredCount int64  `json:"referredCount"`
	TotalEarned   int64  `json:"totalEarned"`
}
