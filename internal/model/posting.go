package model

import "time"

// Status is the review state of a posting.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Arrangement is the work-location mode of a role.
type Arrangement string

const (
	ArrangementRemote Arrangement = "remote"
	ArrangementHybrid Arrangement = "hybrid"
	ArrangementOnsite Arrangement = "onsite"
)

// RoleType is the coarse role family inferred from matched categories.
type RoleType string

const (
	RoleMarTechEngineer  RoleType = "MarTech Engineer/Architect"
	RoleMarketingOps     RoleType = "Marketing Operations"
	RoleMarketingAnalyst RoleType = "Marketing Analyst"
	RoleTechnologist     RoleType = "Marketing Technologist"
)

// RawPosting is a job posting as yielded by a source adapter, before any
// normalization or screening.
type RawPosting struct {
	Title        string
	Company      string
	Location     string     // free-form
	Description  string     // HTML allowed
	ApplyURL     string
	IsRemoteHint bool
	PublishedAt  *time.Time // nil when the provider exposes no timestamp
	SourceTag    string     // adapter identifier, e.g. "greenhouse"
}

// Verdict is the screener's output for one posting.
type Verdict struct {
	Score      float64
	Status     Status
	Categories []string
	Stack      []string
	RoleType   RoleType
	Reason     string
}

// NormalizedLocation is the canonical location of a posting.
type NormalizedLocation struct {
	Text        string
	Arrangement Arrangement
}

// PersistedPosting is the record written to the store.
type PersistedPosting struct {
	ID          int64
	Title       string
	Company     string
	Location    string
	Arrangement Arrangement
	Description string
	ApplyURL    string // canonical
	PublishedAt *time.Time
	SourceTag   string

	Score      float64
	Status     Status
	Categories []string
	Stack      []string
	RoleType   RoleType
	Reason     string

	Slug       string
	LogoURL    string
	Tags       string
	IsActive   bool
	Pinned     bool
	Featured   bool
	ScreenedAt time.Time
	CreatedAt  time.Time
}
