package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/thesabbir/phpmanager/pkg/db"
	"github.com/thesabbir/phpmanager/pkg/hoststore"
	"github.com/thesabbir/phpmanager/pkg/logger"
	"github.com/thesabbir/phpmanager/pkg/mgrconfig"
	"github.com/thesabbir/phpmanager/pkg/phpconfig"
	"github.com/thesabbir/phpmanager/pkg/snapshot"
	"github.com/thesabbir/phpmanager/pkg/transaction"
	"github.com/thesabbir/phpmanager/pkg/version"
)

var (
	configPath     string
	sitePath       string
	dbPath         string
	snapshotDir    string
	cfg            *mgrconfig.Config
	snapshotMgr    *snapshot.Manager
	transactionMgr *transaction.Manager
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "phpmgr",
		Short:   "phpmgr - PHP FastCGI configuration manager",
		Long:    "Checks the php.ini and FastCGI registration of a web server against the recommended setup and repairs them",
		Version: version.GetFullVersion(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Writing the config file needs neither the config nor the database
			if cmd == initConfigCmd {
				return nil
			}

			var err error
			cfg, err = mgrconfig.Load(configPath)
			if err != nil {
				return err
			}

			// Flags override the config file
			if cmd.Flags().Changed("site") {
				cfg.Host.SitePath = sitePath
			}
			if cmd.Flags().Changed("db") {
				cfg.Host.DatabasePath = dbPath
			}
			if cmd.Flags().Changed("snapshot-dir") {
				cfg.Snapshot.Dir = snapshotDir
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid phpmgr configuration: %w", err)
			}

			if cfg.Log.Format == "text" {
				logger.SetTextOutput()
			}
			logger.SetLevel(cfg.SlogLevel())

			if err := db.Initialize(&db.Config{Path: cfg.Host.DatabasePath}); err != nil {
				return fmt.Errorf("failed to open host database: %w", err)
			}

			snapshotMgr = snapshot.NewManager(cfg.Snapshot.Dir)
			snapshotMgr.SetKeep(cfg.Snapshot.Keep)

			transactionMgr = transaction.NewManager(snapshotMgr)
			transactionMgr.SetActor(currentActor())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			// Close database connection
			if db.DB != nil {
				_ = db.Close()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", mgrconfig.DefaultConfigPath, "phpmgr configuration file")
	rootCmd.PersistentFlags().StringVar(&sitePath, "site", "/", "Site path (\"/\" is server level)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", mgrconfig.DefaultDatabasePath, "Host configuration database")
	rootCmd.PersistentFlags().StringVar(&snapshotDir, "snapshot-dir", mgrconfig.DefaultSnapshotDir, "Snapshot directory")

	// PHP configuration commands
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(registerCmd)

	// ini file commands
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(unsetCmd)
	rootCmd.AddCommand(extensionsCmd)

	// History
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(auditCmd)

	// API server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(apikeyCmd)
	rootCmd.AddCommand(initConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newReconciler detects the PHP registration of the configured site
func newReconciler() (*phpconfig.Reconciler, error) {
	return phpconfig.NewReconciler(hoststore.New(db.DB, cfg.Host.SitePath), phpconfig.OSEnvironment{})
}

func currentActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "cli"
}
