package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thesabbir/phpmanager/pkg/audit"
	"github.com/thesabbir/phpmanager/pkg/ini"
	"github.com/thesabbir/phpmanager/pkg/transaction"
)

var getCmd = &cobra.Command{
	Use:   "get [name]",
	Short: "Print a php.ini setting, or every setting",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newReconciler()
		if err != nil {
			return err
		}
		doc, err := r.LoadDocument()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			s, ok := doc.GetSetting(args[0])
			if !ok {
				return fmt.Errorf("setting not found: %s", args[0])
			}
			fmt.Println(s.Value)
			return nil
		}

		section, _ := cmd.Flags().GetString("section")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, s := range doc.Settings() {
			if section != "" && s.Section != section {
				continue
			}
			fmt.Fprintf(w, "[%s]\t%s\t%s\n", s.Section, s.Name, s.Value)
		}
		return w.Flush()
	},
}

var setCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Add or update a php.ini setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, value := args[0], args[1]
		section, _ := cmd.Flags().GetString("section")

		r, err := newReconciler()
		if err != nil {
			return err
		}

		changed, res, err := transactionMgr.UpdateDocument(context.Background(), r, transaction.Operation{
			Action:  audit.ActionSettingUpdate,
			Message: fmt.Sprintf("Set %s = %s", name, value),
		}, func(doc *ini.Document) (bool, error) {
			return r.AddOrUpdateSettings(doc, ini.NewSetting(name, value, section))
		})
		if err != nil {
			return err
		}

		if !changed {
			fmt.Printf("%s is already %s\n", name, value)
			return nil
		}
		fmt.Printf("Set %s = %s (transaction %s)\n", name, value, res.TxID)
		return nil
	},
}

var unsetCmd = &cobra.Command{
	Use:   "unset <name>",
	Short: "Remove a php.ini setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		r, err := newReconciler()
		if err != nil {
			return err
		}

		changed, _, err := transactionMgr.UpdateDocument(context.Background(), r, transaction.Operation{
			Action:  audit.ActionSettingRemove,
			Message: "Remove " + name,
		}, func(doc *ini.Document) (bool, error) {
			return r.RemoveSetting(doc, name)
		})
		if err != nil {
			return err
		}

		if !changed {
			fmt.Printf("%s is not set\n", name)
			return nil
		}
		fmt.Printf("Removed %s\n", name)
		return nil
	},
}

// Extension commands
var extensionsCmd = &cobra.Command{
	Use:     "extensions",
	Aliases: []string{"ext"},
	Short:   "Manage PHP extensions",
}

var extensionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enabled and installed extensions",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newReconciler()
		if err != nil {
			return err
		}
		doc, err := r.LoadDocument()
		if err != nil {
			return err
		}

		exts := doc.Extensions()
		if len(exts) == 0 {
			fmt.Println("No extensions found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EXTENSION\tSTATE")
		for _, e := range exts {
			state := "disabled"
			if e.Enabled {
				state = "enabled"
			}
			fmt.Fprintf(w, "%s\t%s\n", e.Name, state)
		}
		return w.Flush()
	},
}

func extensionCommand(use, short string, enable bool, action audit.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newReconciler()
			if err != nil {
				return err
			}

			exts := make([]*ini.Extension, 0, len(args))
			for _, name := range args {
				exts = append(exts, ini.NewExtension(name, enable))
			}

			changed, _, err := transactionMgr.UpdateDocument(context.Background(), r, transaction.Operation{
				Action:  action,
				Message: fmt.Sprintf("%s %v", use, args),
			}, func(doc *ini.Document) (bool, error) {
				return r.UpdateExtensions(doc, exts...)
			})
			if err != nil {
				return err
			}

			if !changed {
				fmt.Println("No changes were needed")
				return nil
			}
			fmt.Printf("%sd: %v\n", use, args)
			return nil
		},
	}
}

func init() {
	getCmd.Flags().String("section", "", "Only list settings of this section")
	setCmd.Flags().String("section", "", "Section for a new setting (default PHP)")

	extensionsCmd.AddCommand(
		extensionsListCmd,
		extensionCommand("enable", "Enable extensions", true, audit.ActionExtensionEnable),
		extensionCommand("disable", "Disable extensions", false, audit.ActionExtensionDisable),
	)
}
