package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/thesabbir/phpmanager/pkg/audit"
	"github.com/thesabbir/phpmanager/pkg/db"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View audit logs",
	Long:  "View and filter audit logs and transactions",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit logs",
	RunE:  runAuditList,
}

var auditShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show detailed audit log entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditShow,
}

var auditTransactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "List configuration transactions",
	RunE:  runAuditTransactions,
}

var auditCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Clean up old audit logs",
	RunE:  runAuditCleanup,
}

func init() {
	// Audit list flags
	auditListCmd.Flags().String("actor", "", "Filter by actor")
	auditListCmd.Flags().String("action", "", "Filter by action")
	auditListCmd.Flags().String("status", "", "Filter by status (success/failure)")
	auditListCmd.Flags().String("resource", "", "Filter by resource")
	auditListCmd.Flags().String("from", "", "Filter from date (YYYY-MM-DD)")
	auditListCmd.Flags().String("to", "", "Filter to date (YYYY-MM-DD)")
	auditListCmd.Flags().Int("limit", 50, "Maximum number of logs to show")
	auditListCmd.Flags().Int("offset", 0, "Offset for pagination")

	auditListCmd.Flags().String("transaction", "", "Filter by transaction ID")

	auditTransactionsCmd.Flags().String("actor", "", "Filter by actor")
	auditTransactionsCmd.Flags().String("action", "", "Filter by action (e.g. issues.apply, setting.update)")
	auditTransactionsCmd.Flags().String("status", "", "Filter by status")
	auditTransactionsCmd.Flags().String("ini", "", "Filter by php.ini path")
	auditTransactionsCmd.Flags().String("issue", "", "Filter by selected issue name")
	auditTransactionsCmd.Flags().String("from", "", "Filter from date (YYYY-MM-DD)")
	auditTransactionsCmd.Flags().String("to", "", "Filter to date (YYYY-MM-DD)")
	auditTransactionsCmd.Flags().Int("limit", 20, "Maximum number of transactions to show")

	// Audit cleanup flags
	auditCleanupCmd.Flags().Int("days", 0, "Delete logs older than N days (default: configured retention)")
	auditCleanupCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	// Add subcommands
	auditCmd.AddCommand(
		auditListCmd,
		auditShowCmd,
		auditTransactionsCmd,
		auditCleanupCmd,
	)
}

func dateRange(cmd *cobra.Command) (from, to time.Time, err error) {
	if fromStr, _ := cmd.Flags().GetString("from"); fromStr != "" {
		if from, err = time.Parse("2006-01-02", fromStr); err != nil {
			return from, to, fmt.Errorf("invalid from date: %w", err)
		}
	}

	if toStr, _ := cmd.Flags().GetString("to"); toStr != "" {
		if to, err = time.Parse("2006-01-02", toStr); err != nil {
			return from, to, fmt.Errorf("invalid to date: %w", err)
		}
		// Set to end of day
		to = to.Add(24*time.Hour - time.Second)
	}
	return from, to, nil
}

func runAuditList(cmd *cobra.Command, args []string) error {
	var filter db.AuditFilter
	filter.Actor, _ = cmd.Flags().GetString("actor")
	filter.Action, _ = cmd.Flags().GetString("action")
	filter.Status, _ = cmd.Flags().GetString("status")
	filter.Resource, _ = cmd.Flags().GetString("resource")
	filter.TxID, _ = cmd.Flags().GetString("transaction")

	var err error
	if filter.From, filter.To, err = dateRange(cmd); err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	logs, total, err := db.ListAuditLogs(filter, limit, offset)
	if err != nil {
		return fmt.Errorf("failed to list audit logs: %w", err)
	}

	if len(logs) == 0 {
		fmt.Println("No audit logs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tACTOR\tACTION\tRESOURCE\tSTATUS\tMESSAGE")
	fmt.Fprintln(w, "--\t----\t-----\t------\t--------\t------\t-------")

	for _, log := range logs {
		message := log.Message
		if len(message) > 40 {
			message = message[:37] + "..."
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			log.ID,
			log.CreatedAt.Format("2006-01-02 15:04:05"),
			log.Actor,
			log.Action,
			log.Resource,
			log.Status,
			message,
		)
	}

	w.Flush()

	fmt.Printf("\nShowing %d-%d of %d total logs\n", offset+1, offset+len(logs), total)
	if offset+len(logs) < int(total) {
		fmt.Printf("Use --offset=%d to see more\n", offset+len(logs))
	}

	return nil
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid log ID: %w", err)
	}

	var log db.AuditLog
	if err := db.DB.First(&log, id).Error; err != nil {
		return fmt.Errorf("audit log not found: %w", err)
	}

	fmt.Printf("Audit Log #%d\n\n", log.ID)
	fmt.Printf("Timestamp:  %s\n", log.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Actor:      %s\n", log.Actor)
	fmt.Printf("Action:     %s\n", log.Action)
	fmt.Printf("Status:     %s\n", log.Status)

	if log.Resource != "" {
		fmt.Printf("Resource:   %s\n", log.Resource)
	}
	if log.Message != "" {
		fmt.Printf("Message:    %s\n", log.Message)
	}
	if log.IPAddress != "" {
		fmt.Printf("IP Address: %s\n", log.IPAddress)
	}
	if log.TxID != "" {
		fmt.Printf("Transaction: %s\n", log.TxID)
	}
	if log.Duration > 0 {
		fmt.Printf("Duration:   %dms\n", log.Duration)
	}
	if log.Error != "" {
		fmt.Printf("\nError:\n%s\n", log.Error)
	}
	if log.Details != "" {
		fmt.Printf("\nDetails:\n%s\n", log.Details)
	}

	return nil
}

func runAuditTransactions(cmd *cobra.Command, args []string) error {
	var filter db.TransactionFilter
	filter.Actor, _ = cmd.Flags().GetString("actor")
	filter.Action, _ = cmd.Flags().GetString("action")
	filter.Status, _ = cmd.Flags().GetString("status")
	filter.IniPath, _ = cmd.Flags().GetString("ini")
	filter.Issue, _ = cmd.Flags().GetString("issue")

	var err error
	if filter.From, filter.To, err = dateRange(cmd); err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	txs, total, err := db.ListTransactions(filter, limit, 0)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	if len(txs) == 0 {
		fmt.Println("No transactions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRANSACTION\tTIME\tACTOR\tACTION\tSTATUS\tSNAPSHOT\tMESSAGE")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.TxID,
			tx.CreatedAt.Format("2006-01-02 15:04:05"),
			tx.Actor,
			tx.Action,
			tx.Status,
			tx.SnapshotID,
			tx.Message,
		)
	}
	w.Flush()

	fmt.Printf("\nShowing %d of %d transactions\n", len(txs), total)
	return nil
}

func runAuditCleanup(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	if days == 0 {
		days = cfg.Audit.RetentionDays
	}
	if days < 1 {
		return fmt.Errorf("days must be at least 1")
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		fmt.Printf("This will delete all audit logs older than %d days.\n", days)
		if !confirm("Are you sure?") {
			fmt.Println("Cleanup cancelled")
			return nil
		}
	}

	deleted, err := audit.CleanupOldLogs(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d audit log(s) older than %d days\n", deleted, days)
	return nil
}
