package domain

import "time"

// Plan enumerates account tiers.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

const (
	FreePlanCredits = 3
	ProPlanCredits  = 400
)

// User is an account holder. PasswordHash is empty for accounts created
// through an external identity provider.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	AvatarURL    string
	Plan         Plan
	Credits      int
	Country      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanUpload reports whether an upload of the given size is allowed on the
// user's plan. Pro accounts are uncapped.
func (u *User) CanUpload(size, freeLimit int64) bool {
	if u.Plan == PlanPro {
		return true
	}
	return size <= freeLimit
}
