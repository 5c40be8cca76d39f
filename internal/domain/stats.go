package domain

import "time"

// Stats is a derived snapshot of registry counters. It is never persisted.
type Stats struct {
	TotalRegistrations  int64     `json:"total_registrations"`
	VerifiedIdentities  int64     `json:"verified_identities"`
	PendingReviews      int64     `json:"pending_reviews"`
	FlaggedProfiles     int64     `json:"flagged_profiles"`
	ActiveUsers         int64     `json:"active_users"`
	PendingUserRequests int64     `json:"pending_user_requests"`
	ComputedAt          time.Time `json:"computed_at"`
}

type DashboardOverview struct {
	Stats                Stats           `json:"stats"`
	RecentRegistrations  []Registration  `json:"recent_registrations"`
	RecentAccessRequests []AccessRequest `json:"recent_access_requests"`
}
