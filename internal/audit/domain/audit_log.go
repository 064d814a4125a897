package domain

import "time"

// Audit actions recorded by the services.
const (
	ActionLoginSuccess    = "login_success"
	ActionLoginFailure    = "login_failure"
	ActionLogout          = "logout"
	ActionRegister        = "register"
	ActionActivate        = "activate"
	ActionLink            = "link"
	ActionLinkFailure     = "link_failure"
	ActionUnlink          = "unlink"
	ActionRename          = "rename"
	ActionPasswordRotated = "password_rotated"
	ActionPasswordFailure = "password_failure"
	ActionProvision       = "provision"
)

// AuditLog represents an audit event. UserID is 0 when the caller is not authenticated.
type AuditLog struct {
	ID        string
	UserID    int64
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
