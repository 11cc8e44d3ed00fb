package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

var errNotInitialized = fmt.Errorf("database not initialized")

// AuditFilter narrows ListAuditLogs. Empty fields match everything.
type AuditFilter struct {
	Actor    string
	Action   string
	Status   string
	Resource string
	TxID     string
	From     time.Time
	To       time.Time
}

func (f AuditFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Actor != "" {
		q = q.Where("actor = ?", f.Actor)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	// Resources are ini paths, setting names and extension files
	if f.Resource != "" {
		q = q.Where("lower(resource) = lower(?)", f.Resource)
	}
	if f.TxID != "" {
		q = q.Where("tx_id = ?", f.TxID)
	}
	return inRange(q, f.From, f.To)
}

// TransactionFilter narrows ListTransactions. Empty fields match everything.
type TransactionFilter struct {
	Actor  string
	Action string
	Status string

	// IniPath compares as a Windows path, ignoring case
	IniPath string

	// Issue matches transactions that selected the named issue
	Issue string

	From time.Time
	To   time.Time
}

func (f TransactionFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Actor != "" {
		q = q.Where("actor = ?", f.Actor)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.IniPath != "" {
		q = q.Where("replace(lower(ini_path), '/', '\\') = replace(lower(?), '/', '\\')", f.IniPath)
	}
	if f.Issue != "" {
		q = q.Where("issues LIKE ?", `%"`+f.Issue+`"%`)
	}
	return inRange(q, f.From, f.To)
}

func inRange(q *gorm.DB, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at <= ?", to)
	}
	return q
}

// CreateAuditLog records an audit entry
func CreateAuditLog(log *AuditLog) error {
	if DB == nil {
		return errNotInitialized
	}
	return DB.Create(log).Error
}

// ListAuditLogs returns a page of matching entries, newest first, and the
// number of entries matching in total
func ListAuditLogs(filter AuditFilter, limit, offset int) ([]AuditLog, int64, error) {
	if DB == nil {
		return nil, 0, errNotInitialized
	}

	var logs []AuditLog
	var count int64

	query := filter.apply(DB.Model(&AuditLog{}))
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, count, nil
}

// GetAuditLogsByTransaction returns the entries of a transaction in the
// order they were written
func GetAuditLogsByTransaction(txID string) ([]AuditLog, error) {
	if DB == nil {
		return nil, errNotInitialized
	}

	var logs []AuditLog
	if err := DB.Where("tx_id = ?", txID).Order("created_at ASC").Order("id ASC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// CreateTransaction records a transaction when it starts
func CreateTransaction(tx *Transaction) error {
	if DB == nil {
		return errNotInitialized
	}
	return DB.Create(tx).Error
}

// GetTransactionByID returns the transaction with TxID txID
func GetTransactionByID(txID string) (*Transaction, error) {
	if DB == nil {
		return nil, errNotInitialized
	}

	var tx Transaction
	if err := DB.Where("tx_id = ?", txID).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTransactionBySnapshot returns the transaction that took a snapshot.
// Restores run without one, so a missing record is not an error.
func GetTransactionBySnapshot(snapshotID string) (*Transaction, error) {
	if DB == nil {
		return nil, errNotInitialized
	}

	var txs []Transaction
	if err := DB.Where("snapshot_id = ?", snapshotID).Order("id ASC").Limit(1).Find(&txs).Error; err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return &txs[0], nil
}

// UpdateTransaction saves the final state of a transaction
func UpdateTransaction(tx *Transaction) error {
	if DB == nil {
		return errNotInitialized
	}
	return DB.Save(tx).Error
}

// ListTransactions returns a page of matching transactions, newest first,
// and the number matching in total
func ListTransactions(filter TransactionFilter, limit, offset int) ([]Transaction, int64, error) {
	if DB == nil {
		return nil, 0, errNotInitialized
	}

	var transactions []Transaction
	var count int64

	query := filter.apply(DB.Model(&Transaction{}))
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, count, nil
}
