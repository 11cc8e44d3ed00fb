package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/thesabbir/phpmanager/pkg/audit"
	"github.com/thesabbir/phpmanager/pkg/auth"
	"github.com/thesabbir/phpmanager/pkg/db"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
	Long:  "Create, list, and revoke the keys that authenticate API requests",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new API key",
	Long:  "Create a new API key. The name is recorded as the actor of every change made with the key.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyCreate,
}

var apikeyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	RunE:  runAPIKeyList,
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API key by Key ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyRevoke,
}

func init() {
	apikeyCreateCmd.Flags().Int("expires-days", 0, "Expiration in days (0 = no expiration)")
	apikeyCreateCmd.Flags().Bool("read-only", false, "Only allow GET requests")

	apikeyListCmd.Flags().Bool("all", false, "Include revoked keys")

	apikeyRevokeCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	apikeyCmd.AddCommand(
		apikeyCreateCmd,
		apikeyListCmd,
		apikeyRevokeCmd,
	)
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	expiresDays, _ := cmd.Flags().GetInt("expires-days")
	readOnly, _ := cmd.Flags().GetBool("read-only")
	if expiresDays < 0 {
		return fmt.Errorf("expires-days must not be negative")
	}

	ctx := audit.WithActor(context.Background(), currentActor())
	key, value, err := auth.CreateKey(auth.CreateOptions{
		Name:     name,
		ReadOnly: readOnly,
		TTL:      time.Duration(expiresDays) * 24 * time.Hour,
	})
	if err != nil {
		audit.LogResult(ctx, audit.ActionAPIKeyCreate, "apikey:"+name, "Failed to create API key", nil, err)
		return err
	}
	audit.LogResult(ctx, audit.ActionAPIKeyCreate, "apikey:"+key.KeyID,
		fmt.Sprintf("API key '%s' created", name), map[string]interface{}{"read_only": readOnly}, nil)

	// The plaintext key is shown once and cannot be retrieved later
	fmt.Printf("API key created\n\n")
	fmt.Printf("Save this key now, it cannot be shown again:\n\n")
	fmt.Printf("API Key: %s\n", value)
	fmt.Printf("Key ID:  %s\n\n", key.KeyID)
	fmt.Printf("  Name:      %s\n", key.Name)
	fmt.Printf("  Read-only: %t\n", key.ReadOnly)
	if key.ExpiresAt != nil {
		fmt.Printf("  Expires:   %s\n", key.ExpiresAt.Format("2006-01-02"))
	} else {
		fmt.Printf("  Expires:   never\n")
	}

	fmt.Printf("\nSend it in the %s header, or as \"Authorization: Bearer <key>\"\n", auth.HeaderAPIKey)
	return nil
}

func runAPIKeyList(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")

	keys, err := db.ListAPIKeys(all)
	if err != nil {
		return fmt.Errorf("failed to list API keys: %w", err)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY ID\tNAME\tACCESS\tSTATUS\tEXPIRES\tLAST USED")
	fmt.Fprintln(w, "------\t----\t------\t------\t-------\t---------")

	for _, key := range keys {
		access := "read-write"
		if key.ReadOnly {
			access = "read-only"
		}

		status := "active"
		switch {
		case key.RevokedAt != nil:
			status = "revoked"
		case key.IsExpired():
			status = "expired"
		}

		expires := "never"
		if key.ExpiresAt != nil {
			expires = key.ExpiresAt.Format("2006-01-02")
		}

		lastUsed := "never"
		if key.LastUsedAt != nil {
			lastUsed = key.LastUsedAt.Format("2006-01-02 15:04")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			key.KeyID,
			key.Name,
			access,
			status,
			expires,
			lastUsed,
		)
	}

	w.Flush()
	return nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	keyID := args[0]

	key, err := db.GetAPIKeyByKeyID(keyID)
	if err != nil {
		return fmt.Errorf("API key %s: %w", keyID, err)
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		if !confirm(fmt.Sprintf("Revoke API key '%s'?", key.Name)) {
			fmt.Println("Revoke cancelled")
			return nil
		}
	}

	ctx := audit.WithActor(context.Background(), currentActor())
	_, err = db.RevokeAPIKey(keyID)
	audit.LogResult(ctx, audit.ActionAPIKeyRevoke, "apikey:"+keyID,
		fmt.Sprintf("API key '%s' revoked", key.Name), nil, err)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}

	fmt.Printf("API key '%s' revoked\n", key.Name)
	return nil
}
