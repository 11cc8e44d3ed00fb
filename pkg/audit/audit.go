package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/thesabbir/phpmanager/pkg/db"
	"github.com/thesabbir/phpmanager/pkg/logger"
)

// Action represents an audit action
type Action string

const (
	// Reconciler actions
	ActionIssuesApply Action = "issues.apply"
	ActionRegister    Action = "php.register"

	// ini actions
	ActionSettingUpdate    Action = "setting.update"
	ActionSettingRemove    Action = "setting.remove"
	ActionExtensionEnable  Action = "extension.enable"
	ActionExtensionDisable Action = "extension.disable"

	// Transaction actions
	ActionTxStart    Action = "transaction.start"
	ActionTxCommit   Action = "transaction.commit"
	ActionTxRollback Action = "transaction.rollback"

	// Snapshot actions
	ActionSnapshotCreate  Action = "snapshot.create"
	ActionSnapshotRestore Action = "snapshot.restore"
	ActionSnapshotPrune   Action = "snapshot.prune"

	// API key actions
	ActionAPIKeyCreate Action = "apikey.create"
	ActionAPIKeyRevoke Action = "apikey.revoke"
)

// Status represents the status of an action
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

type contextKey string

// Context keys for audit logging
const (
	ContextKeyActor contextKey = "audit_actor"
	ContextKeyIP    contextKey = "audit_ip"
	ContextKeyTxID  contextKey = "audit_tx_id"
)

// Entry is one action to record
type Entry struct {
	Action   Action
	Status   Status
	Actor    string
	Resource string
	Message  string
	Details  interface{}
	Err      error
	Duration time.Duration
}

// Log creates an audit log entry
func Log(action Action, status Status, actor, resource, message string, details interface{}) error {
	return LogWithContext(context.Background(), Entry{
		Action:   action,
		Status:   status,
		Actor:    actor,
		Resource: resource,
		Message:  message,
		Details:  details,
	})
}

// LogWithContext creates an audit log entry, taking actor, IP address and
// transaction ID from ctx when present
func LogWithContext(ctx context.Context, e Entry) error {
	if actor, ok := ctx.Value(ContextKeyActor).(string); ok && actor != "" {
		e.Actor = actor
	}
	ipAddress, _ := ctx.Value(ContextKeyIP).(string)
	txID, _ := ctx.Value(ContextKeyTxID).(string)

	// Marshal details to JSON if provided
	var detailsJSON string
	if e.Details != nil {
		data, err := json.Marshal(e.Details)
		if err != nil {
			logger.Warn("Failed to marshal audit details", "error", err)
		} else {
			detailsJSON = string(data)
		}
	}

	var errorMsg string
	if e.Err != nil {
		errorMsg = e.Err.Error()
	}

	entry := &db.AuditLog{
		Actor:     e.Actor,
		Action:    string(e.Action),
		Resource:  e.Resource,
		Status:    string(e.Status),
		Message:   e.Message,
		Details:   detailsJSON,
		IPAddress: ipAddress,
		Error:     errorMsg,
		Duration:  e.Duration.Milliseconds(),
		TxID:      txID,
	}

	if err := db.CreateAuditLog(entry); err != nil {
		logger.Error("Failed to create audit log", "error", err)
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	// Also log to structured logger for immediate visibility
	logFields := []interface{}{
		"action", e.Action,
		"status", e.Status,
		"actor", e.Actor,
		"resource", e.Resource,
	}

	if e.Message != "" {
		logFields = append(logFields, "message", e.Message)
	}
	if ipAddress != "" {
		logFields = append(logFields, "ip", ipAddress)
	}
	if txID != "" {
		logFields = append(logFields, "tx_id", txID)
	}
	if e.Duration > 0 {
		logFields = append(logFields, "duration", e.Duration)
	}

	if e.Status == StatusSuccess {
		logger.Info("Audit", logFields...)
	} else {
		if e.Err != nil {
			logFields = append(logFields, "error", e.Err)
		}
		logger.Warn("Audit", logFields...)
	}

	return nil
}

// LogSuccess logs a successful action
func LogSuccess(ctx context.Context, action Action, resource, message string, details interface{}) error {
	return LogWithContext(ctx, Entry{
		Action:   action,
		Status:   StatusSuccess,
		Resource: resource,
		Message:  message,
		Details:  details,
	})
}

// LogFailure logs a failed action
func LogFailure(ctx context.Context, action Action, resource, message string, err error) error {
	return LogWithContext(ctx, Entry{
		Action:   action,
		Status:   StatusFailure,
		Resource: resource,
		Message:  message,
		Err:      err,
	})
}

// LogResult logs action as a success when err is nil and a failure otherwise
func LogResult(ctx context.Context, action Action, resource, message string, details interface{}, err error) {
	var logErr error
	if err != nil {
		logErr = LogWithContext(ctx, Entry{
			Action: action, Status: StatusFailure, Resource: resource, Message: message, Details: details, Err: err,
		})
	} else {
		logErr = LogSuccess(ctx, action, resource, message, details)
	}
	if logErr != nil {
		logger.Debug("Audit entry dropped", "action", action, "error", logErr)
	}
}

// WithActor creates a context naming who performs the audited actions
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

// WithIP creates a context with IP address for audit logging
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyIP, ip)
}

// WithTransaction creates a context with transaction ID for audit logging
func WithTransaction(ctx context.Context, txID string) context.Context {
	return context.WithValue(ctx, ContextKeyTxID, txID)
}

// MeasuredLog logs an action with duration measurement
func MeasuredLog(ctx context.Context, action Action, status Status, resource, message string, duration time.Duration, details interface{}) error {
	return LogWithContext(ctx, Entry{
		Action:   action,
		Status:   status,
		Resource: resource,
		Message:  message,
		Details:  details,
		Duration: duration,
	})
}

// CleanupOldLogs removes audit logs older than the specified duration
func CleanupOldLogs(olderThan time.Duration) (int64, error) {
	if db.DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	cutoff := time.Now().Add(-olderThan)

	result := db.DB.Where("created_at < ?", cutoff).Delete(&db.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup old logs: %w", result.Error)
	}

	logger.Info("Cleaned up old audit logs",
		"count", result.RowsAffected,
		"older_than", olderThan)

	return result.RowsAffected, nil
}

// StartCleanupScheduler periodically removes audit logs past retention
// until ctx is done
func StartCleanupScheduler(ctx context.Context, retentionDays int, checkInterval time.Duration) {
	go func() {
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		logger.Info("Started audit log cleanup scheduler",
			"retention_days", retentionDays,
			"check_interval", checkInterval)

		// Run cleanup immediately on start
		retention := time.Duration(retentionDays) * 24 * time.Hour
		if _, err := CleanupOldLogs(retention); err != nil {
			logger.Error("Failed to cleanup old audit logs", "error", err)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := CleanupOldLogs(retention); err != nil {
					logger.Error("Failed to cleanup old audit logs", "error", err)
				}
			}
		}
	}()
}
