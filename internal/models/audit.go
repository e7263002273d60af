package models

import "time"

// Audit actions recorded for privileged mutations.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionLogout            = "LOGOUT"
	AuditActionAdmissionApproved = "ADMISSION_APPROVED"
	AuditActionAdmissionRejected = "ADMISSION_REJECTED"
	AuditActionParentLinked      = "PARENT_LINKED"
	AuditActionParentUnlinked    = "PARENT_UNLINKED"
	AuditActionParentAutoLinked  = "PARENT_AUTO_LINKED"
	AuditActionLinkRepaired      = "LINK_REPAIRED"
	AuditActionEventCreated      = "EVENT_CREATED"
	AuditActionEventUpdated      = "EVENT_UPDATED"
	AuditActionEventDeleted      = "EVENT_DELETED"
	AuditActionNoticeCreated     = "NOTICE_CREATED"
	AuditActionNoticeDeleted     = "NOTICE_DELETED"
	AuditActionResourceCreated   = "RESOURCE_CREATED"
	AuditActionResourceDeleted   = "RESOURCE_DELETED"
)

// Identity used when the system itself performs a mutation (auto-linking).
const (
	SystemActorID   = "system"
	SystemActorName = "System"
)

// AuditLog is an append-only record of a privileged mutation. There is no
// update or delete path.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Action     string    `db:"action" json:"action"`
	TargetType string    `db:"target_type" json:"target_type"`
	TargetID   *string   `db:"target_id" json:"target_id,omitempty"`
	ActorID    string    `db:"actor_id" json:"actor_id"`
	ActorName  string    `db:"actor_name" json:"actor_name"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
