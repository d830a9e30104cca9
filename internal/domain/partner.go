package domain

import "time"

// PermissionLevel is the slice of score data a partner may read.
type PermissionLevel string

const (
	PermissionScoreOnly PermissionLevel = "score_only"
	PermissionMetadata  PermissionLevel = "metadata"
	PermissionFullData  PermissionLevel = "full_data"
)

// PartnerAccessRecord describes an external platform's access to a
// borrower's score history. Owned by an external authorization service and
// passed through unchanged. Corresponds to the partner_access table.
type PartnerAccessRecord struct {
	BorrowerID     string
	PartnerID      string
	PartnerName    string
	Authorized     bool
	AccessCount    int
	LastAccessedAt *time.Time // nil if never accessed
	Permission     PermissionLevel
}
