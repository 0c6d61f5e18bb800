package domain

type Stats struct {
	TotalUsers      int64 `json:"total_users"`
	VerifiedUsers   int64 `json:"verified_users"`
	UnverifiedUsers int64 `json:"unverified_users"`
	StaffUsers      int64 `json:"staff_users"`
	Superusers      int64 `json:"superusers"`
	TotalProducts   int64 `json:"total_products"`
	ActiveTokens    int64 `json:"active_tokens"`
	ExpiredTokens   int64 `json:"expired_tokens"`
}
