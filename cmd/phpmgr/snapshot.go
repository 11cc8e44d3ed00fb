package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thesabbir/phpmanager/pkg/audit"
	"github.com/thesabbir/phpmanager/pkg/db"
)

// Snapshot commands
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage php.ini snapshots",
	Long:  "List, restore, and prune the ini file copies taken before every change",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshots, err := snapshotMgr.List()
		if err != nil {
			return err
		}

		if len(snapshots) == 0 {
			fmt.Println("No snapshots available")
			return nil
		}

		fmt.Println("Available snapshots:")
		for i, snap := range snapshots {
			fmt.Printf("%d. %s - %s\n", i+1, snap.ID, snap.Metadata.Message)
			fmt.Printf("   Time: %s\n", snap.Metadata.Timestamp.Format("2006-01-02 15:04:05"))
			for _, f := range snap.Metadata.Files {
				fmt.Printf("   File: %s\n", f.Source)
			}
			if tx, err := db.GetTransactionBySnapshot(snap.ID); err == nil && tx != nil {
				fmt.Printf("   Transaction: %s (%s by %s, %s)\n", tx.TxID, tx.Action, tx.Actor, tx.Status)
			}
			fmt.Println()
		}

		return nil
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore [id]",
	Short: "Restore a snapshot (the latest when no id is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id string
		if len(args) == 1 {
			id = args[0]
		} else {
			latest, err := snapshotMgr.GetLatest()
			if err != nil {
				return err
			}
			id = latest.ID
		}

		// Load and display snapshot info
		snap, err := snapshotMgr.Load(id)
		if err != nil {
			return err
		}

		fmt.Printf("Restoring snapshot: %s\n", snap.Metadata.Message)
		fmt.Printf("Created: %s\n", snap.Metadata.Timestamp.Format("2006-01-02 15:04:05"))

		if _, err := transactionMgr.Restore(context.Background(), id); err != nil {
			return err
		}

		fmt.Println("Snapshot restored successfully")
		fmt.Println("Note: host configuration changes are not part of snapshots")
		return nil
	},
}

var snapshotPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		if !cmd.Flags().Changed("keep") {
			keep = cfg.Snapshot.Keep
		}

		deleted, err := snapshotMgr.Prune(keep)
		audit.LogResult(audit.WithActor(context.Background(), currentActor()),
			audit.ActionSnapshotPrune, cfg.Snapshot.Dir, fmt.Sprintf("Keep %d snapshots", keep),
			map[string]interface{}{"deleted": deleted}, err)
		if err != nil {
			return err
		}

		if len(deleted) == 0 {
			fmt.Printf("No snapshots to prune (keeping last %d)\n", keep)
			return nil
		}

		fmt.Printf("Deleted %d snapshots:\n", len(deleted))
		for _, id := range deleted {
			fmt.Printf("  - %s\n", id)
		}

		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
	snapshotCmd.AddCommand(snapshotPruneCmd)

	snapshotPruneCmd.Flags().Int("keep", 30, "Number of snapshots to keep")
}
