package db

import (
	"time"
)

// ServerPath is the site path of server level configuration
const ServerPath = "/"

// Feature records an installed web server feature
type Feature struct {
	Name      string    `gorm:"primarykey" json:"name"`
	Installed bool      `gorm:"not null;default:false" json:"installed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Feature) TableName() string {
	return "features"
}

// HandlerMapping is a handler mapping defined at a site path
type HandlerMapping struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SitePath        string `gorm:"index;not null" json:"site_path"`
	Name            string `gorm:"not null" json:"name"`
	Path            string `gorm:"index;not null" json:"path"` // e.g. "*.php"
	Modules         string `gorm:"not null" json:"modules"`
	ScriptProcessor string `json:"script_processor"`
	ResourceType    string `gorm:"not null;default:'File'" json:"resource_type"`
	Position        int    `gorm:"not null;default:0" json:"position"` // Lower positions match first
}

// TableName overrides the table name
func (HandlerMapping) TableName() string {
	return "handler_mappings"
}

// FastCgiApplication is a FastCGI process pool definition
type FastCgiApplication struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FullPath            string                `gorm:"uniqueIndex:idx_fastcgi_app;not null" json:"full_path"`
	Arguments           string                `gorm:"uniqueIndex:idx_fastcgi_app;not null;default:''" json:"arguments"`
	InstanceMaxRequests int64                 `gorm:"not null" json:"instance_max_requests"`
	MonitorChangesTo    string                `json:"monitor_changes_to"`
	MonitorSupported    bool                  `gorm:"not null" json:"monitor_supported"`
	EnvironmentVars     []EnvironmentVariable `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"environment_variables"`
}

// TableName overrides the table name
func (FastCgiApplication) TableName() string {
	return "fastcgi_applications"
}

// EnvironmentVariable is passed to the processes of a FastCGI application
type EnvironmentVariable struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	ApplicationID uint   `gorm:"index;not null" json:"application_id"`
	Name          string `gorm:"not null" json:"name"`
	Value         string `json:"value"`
	Position      int    `gorm:"not null;default:0" json:"position"`
}

// TableName overrides the table name
func (EnvironmentVariable) TableName() string {
	return "fastcgi_environment_variables"
}

// DefaultDocument is a default document entry defined at a site path
type DefaultDocument struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	SitePath string `gorm:"index;not null" json:"site_path"`
	Value    string `gorm:"not null" json:"value"`
	Position int    `gorm:"not null;default:0" json:"position"`
}

// TableName overrides the table name
func (DefaultDocument) TableName() string {
	return "default_documents"
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Actor     string `gorm:"index;not null" json:"actor"`           // "cli", "api" or an OS user
	Action    string `gorm:"index;not null" json:"action"`          // e.g., "issues.apply", "setting.update"
	Resource  string `gorm:"index" json:"resource,omitempty"`       // e.g., ini path, setting name
	Status    string `gorm:"index;not null" json:"status"`          // "success", "failure"
	Message   string `json:"message,omitempty"`                     // Human-readable message
	Details   string `gorm:"type:text" json:"details,omitempty"`    // JSON details
	IPAddress string `gorm:"index" json:"ip_address,omitempty"`     // Source IP
	Error     string `gorm:"type:text" json:"error,omitempty"`      // Error message if failed
	Duration  int64  `json:"duration_ms,omitempty"`                 // Duration in milliseconds
	TxID      string `gorm:"index" json:"transaction_id,omitempty"` // Transaction ID if applicable
}

// TableName overrides the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Transaction records one apply of recommended configuration
type Transaction struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TxID         string     `gorm:"uniqueIndex;not null" json:"transaction_id"`
	Actor        string     `gorm:"index;not null" json:"actor"`
	Action       string     `gorm:"index" json:"action"`
	Message      string     `gorm:"not null" json:"message"`
	Status       string     `gorm:"index;not null" json:"status"` // "in_progress", "completed", "failed", "rolledback"
	SnapshotID   string     `gorm:"index" json:"snapshot_id,omitempty"`
	IniPath      string     `json:"ini_path"`
	Issues       string     `gorm:"type:text" json:"issues"`  // JSON array of selected issue names
	Changes      string     `gorm:"type:text" json:"changes"` // JSON apply result
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	RolledBackAt *time.Time `json:"rolled_back_at,omitempty"`
	Error        string     `gorm:"type:text" json:"error,omitempty"`
}

// TableName overrides the table name
func (Transaction) TableName() string {
	return "transactions"
}

// APIKey grants access to the HTTP API. Only hashes of the key are stored.
type APIKey struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	KeyID      string     `gorm:"uniqueIndex;not null" json:"key_id"` // Public identifier (key_xxxxx)
	Name       string     `gorm:"index;not null" json:"name"`         // Recorded as the audit actor
	Key        string     `gorm:"not null" json:"-"`                  // bcrypt hash
	KeyHash    string     `gorm:"uniqueIndex;not null" json:"-"`      // SHA256 hash for lookup
	ReadOnly   bool       `json:"read_only"`
	ExpiresAt  *time.Time `gorm:"index" json:"expires_at,omitempty"`
	RevokedAt  *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// TableName overrides the table name
func (APIKey) TableName() string {
	return "api_keys"
}

// IsExpired checks if the API key has expired
func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}

// IsValid checks if the API key is neither revoked nor expired
func (k *APIKey) IsValid() bool {
	return k.RevokedAt == nil && !k.IsExpired()
}
