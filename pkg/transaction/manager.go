package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thesabbir/phpmanager/pkg/audit"
	"github.com/thesabbir/phpmanager/pkg/db"
	"github.com/thesabbir/phpmanager/pkg/ini"
	"github.com/thesabbir/phpmanager/pkg/logger"
	"github.com/thesabbir/phpmanager/pkg/phpconfig"
	"github.com/thesabbir/phpmanager/pkg/snapshot"
	"github.com/thesabbir/phpmanager/pkg/util"
)

// State represents the current transaction state
type State string

const (
	StateIdle       State = "idle"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateRolledBack State = "rolledback"
)

// ErrBusy is returned when another transaction is running
var ErrBusy = errors.New("transaction already in progress")

// Operation describes one change to run inside a transaction
type Operation struct {
	Action   audit.Action
	Resource string
	Message  string

	// Files are snapshotted before the change and restored if it fails
	Files []string

	// Issues names the selected issues, recorded with the transaction
	Issues []string
}

// Result identifies a finished transaction
type Result struct {
	TxID       string      `json:"transaction_id"`
	SnapshotID string      `json:"snapshot_id,omitempty"`
	Changes    interface{} `json:"changes,omitempty"`
}

// Manager runs configuration changes one at a time, snapshotting the ini
// files first and restoring them when the change fails
type Manager struct {
	snapshotManager *snapshot.Manager

	mu    sync.Mutex
	state State
	actor string // Actor for audit logging
}

// NewManager creates a new transaction manager
func NewManager(snapshotManager *snapshot.Manager) *Manager {
	return &Manager{
		snapshotManager: snapshotManager,
		state:           StateIdle,
	}
}

// SetActor sets who is recorded as performing the transactions
func (m *Manager) SetActor(actor string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actor = actor
}

// GetState returns the state of the last transaction
func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run executes fn as a transaction
func (m *Manager) Run(ctx context.Context, op Operation, fn func(ctx context.Context) (interface{}, error)) (*Result, error) {
	if !m.mu.TryLock() {
		return nil, ErrBusy
	}
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.state = StateInProgress
	txID := util.GenerateUniqueID()
	ctx = audit.WithTransaction(ctx, txID)
	if m.actor != "" {
		if _, ok := ctx.Value(audit.ContextKeyActor).(string); !ok {
			ctx = audit.WithActor(ctx, m.actor)
		}
	}
	actor, _ := ctx.Value(audit.ContextKeyActor).(string)

	logger.Info("Starting transaction", "tx_id", txID, "action", op.Action, "message", op.Message)

	issuesJSON, _ := json.Marshal(op.Issues)
	record := &db.Transaction{
		TxID:    txID,
		Actor:   actor,
		Action:  string(op.Action),
		Message: op.Message,
		Status:  string(StateInProgress),
		Issues:  string(issuesJSON),
	}
	if len(op.Files) > 0 {
		record.IniPath = op.Files[0]
	}

	// Save transaction to database (if DB is available)
	if db.DB != nil {
		if err := db.CreateTransaction(record); err != nil {
			logger.Warn("Failed to create transaction record", "error", err)
		}
		audit.LogResult(ctx, audit.ActionTxStart, txID, op.Message, nil, nil)
	}

	result := &Result{TxID: txID}

	// Create snapshot before applying changes
	snap, err := m.snapshotManager.Create(op.Message, op.Files)
	if err != nil {
		m.fail(record, err)
		if db.DB != nil {
			audit.LogResult(ctx, audit.ActionSnapshotCreate, txID, "Failed to create snapshot", nil, err)
		}
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}
	result.SnapshotID = snap.ID
	record.SnapshotID = snap.ID
	m.updateRecord(record)

	start := time.Now()
	changes, err := fn(ctx)
	duration := time.Since(start)

	if err != nil {
		logger.Error("Transaction failed, restoring snapshot", "tx_id", txID, "error", err)
		m.fail(record, err)
		if db.DB != nil {
			_ = audit.LogWithContext(ctx, audit.Entry{
				Action:   op.Action,
				Status:   audit.StatusFailure,
				Resource: op.Resource,
				Message:  op.Message,
				Err:      err,
				Duration: duration,
			})
		}

		if restoreErr := m.restoreInternal(ctx, record, snap.ID); restoreErr != nil {
			return nil, fmt.Errorf("%w (restore failed: %v)", err, restoreErr)
		}
		return nil, err
	}

	result.Changes = changes
	m.state = StateCompleted

	if db.DB != nil {
		changesJSON, _ := json.Marshal(changes)
		now := time.Now()
		record.Status = string(StateCompleted)
		record.Changes = string(changesJSON)
		record.CompletedAt = &now
		m.updateRecord(record)

		_ = audit.LogWithContext(ctx, audit.Entry{
			Action:   op.Action,
			Status:   audit.StatusSuccess,
			Resource: op.Resource,
			Message:  op.Message,
			Details:  changes,
			Duration: duration,
		})
		audit.LogResult(ctx, audit.ActionTxCommit, txID, "Transaction completed successfully", nil, nil)
	}

	logger.Info("Transaction completed successfully", "tx_id", txID, "snapshot_id", snap.ID)
	return result, nil
}

// ApplyRecommended applies the remediation of the selected issues to the
// reconciler's ini file and host configuration
func (m *Manager) ApplyRecommended(ctx context.Context, r *phpconfig.Reconciler, selected []phpconfig.IssueIndex, message string) (*phpconfig.ApplyResult, *Result, error) {
	names := make([]string, 0, len(selected))
	for _, idx := range selected {
		names = append(names, idx.String())
	}
	if message == "" {
		message = "Apply recommended configuration"
	}

	var applied *phpconfig.ApplyResult
	res, err := m.Run(ctx, Operation{
		Action:   audit.ActionIssuesApply,
		Resource: r.IniPath(),
		Message:  message,
		Files:    []string{r.IniPath()},
		Issues:   names,
	}, func(context.Context) (interface{}, error) {
		doc, err := r.LoadDocument()
		if err != nil {
			return nil, err
		}
		applied, err = r.ApplyRecommended(doc, selected)
		return applied, err
	})
	if err != nil {
		return nil, nil, err
	}
	return applied, res, nil
}

// UpdateDocument loads the reconciler's ini file, passes it to fn and lets
// fn save it through the reconciler
func (m *Manager) UpdateDocument(ctx context.Context, r *phpconfig.Reconciler, op Operation, fn func(doc *ini.Document) (bool, error)) (bool, *Result, error) {
	if op.Resource == "" {
		op.Resource = r.IniPath()
	}
	op.Files = []string{r.IniPath()}

	var changed bool
	res, err := m.Run(ctx, op, func(context.Context) (interface{}, error) {
		doc, err := r.LoadDocument()
		if err != nil {
			return nil, err
		}
		changed, err = fn(doc)
		return map[string]bool{"changed": changed}, err
	})
	if err != nil {
		return false, nil, err
	}
	return changed, res, nil
}

// Restore copies a snapshot back over the files it was taken from
func (m *Manager) Restore(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	if !m.mu.TryLock() {
		return nil, ErrBusy
	}
	defer m.mu.Unlock()

	if m.actor != "" {
		if _, ok := ctx.Value(audit.ContextKeyActor).(string); !ok {
			ctx = audit.WithActor(ctx, m.actor)
		}
	}

	snap, err := m.snapshotManager.Restore(id)
	if db.DB != nil {
		audit.LogResult(ctx, audit.ActionSnapshotRestore, id, "Snapshot restored", nil, err)
	}
	if err != nil {
		return nil, err
	}

	m.state = StateRolledBack
	return snap, nil
}

// restoreInternal restores the transaction's snapshot (must be called with lock held)
func (m *Manager) restoreInternal(ctx context.Context, record *db.Transaction, snapshotID string) error {
	if _, err := m.snapshotManager.Restore(snapshotID); err != nil {
		if db.DB != nil {
			audit.LogResult(ctx, audit.ActionTxRollback, record.TxID, "Rollback failed", nil, err)
		}
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}

	m.state = StateRolledBack
	if db.DB != nil {
		now := time.Now()
		record.Status = string(StateRolledBack)
		record.RolledBackAt = &now
		m.updateRecord(record)
		audit.LogResult(ctx, audit.ActionTxRollback, record.TxID, "Rollback completed successfully", nil, nil)
	}

	logger.Info("Rollback completed successfully", "tx_id", record.TxID, "snapshot_id", snapshotID)
	return nil
}

func (m *Manager) fail(record *db.Transaction, err error) {
	m.state = StateFailed
	if db.DB == nil {
		return
	}
	record.Status = string(StateFailed)
	record.Error = err.Error()
	m.updateRecord(record)
}

func (m *Manager) updateRecord(record *db.Transaction) {
	if db.DB == nil || record.ID == 0 {
		return
	}
	if err := db.UpdateTransaction(record); err != nil {
		logger.Warn("Failed to update transaction record", "tx_id", record.TxID, "error", err)
	}
}
