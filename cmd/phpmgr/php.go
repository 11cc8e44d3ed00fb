package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/thesabbir/phpmanager/pkg/audit"
	"github.com/thesabbir/phpmanager/pkg/db"
	"github.com/thesabbir/phpmanager/pkg/hoststore"
	"github.com/thesabbir/phpmanager/pkg/phpconfig"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the PHP registration of the site",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newReconciler()
		if err != nil {
			return err
		}

		if r.Registration() != phpconfig.RegistrationFastCgi {
			fmt.Printf("Registration: %s\n", r.Registration())
			fmt.Println("Run 'phpmgr register <php-cgi.exe>' to register PHP with FastCGI")
			return nil
		}

		doc, err := r.LoadDocument()
		if err != nil {
			return err
		}
		info, err := r.Info(doc)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(info)
		}

		fmt.Printf("Registration: %s\n", info.Registration)
		fmt.Printf("Handler:      %s\n", info.HandlerName)
		fmt.Printf("Executable:   %s\n", info.Executable)
		if info.Version != "" {
			fmt.Printf("Version:      %s\n", info.Version)
		}
		fmt.Printf("php.ini:      %s\n", info.IniPath)
		if info.ErrorLog != "" {
			fmt.Printf("Error log:    %s\n", info.ErrorLog)
		}
		fmt.Printf("Extensions:   %d enabled, %d installed\n", info.EnabledExtensions, info.InstalledExtensions)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "List deviations from the recommended PHP configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newReconciler()
		if err != nil {
			return err
		}
		doc, err := r.LoadDocument()
		if err != nil {
			return err
		}
		issues, err := r.Validate(doc)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(issues)
		}

		if len(issues) == 0 {
			fmt.Println("PHP configuration matches the recommended setup")
			return nil
		}

		printIssues(issues)
		fmt.Printf("\n%d issue(s). Run 'phpmgr apply --all' or 'phpmgr apply --issue <name>' to fix them\n", len(issues))
		return nil
	},
}

func printIssues(issues []phpconfig.ConfigIssue) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tISSUE\tSETTING\tCURRENT\tRECOMMENDED")
	fmt.Fprintln(w, "-\t-----\t-------\t-------\t-----------")
	for _, issue := range issues {
		current := issue.CurrentValue
		if current == "" {
			current = "(not set)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			issue.Index,
			issue.Index,
			issue.SettingKey,
			current,
			issue.RecommendedValue,
		)
	}
	w.Flush()

	if verbose {
		fmt.Println()
		for _, issue := range issues {
			fmt.Printf("%s\n  %s\n  %s\n", issue.Index, issue.Description(), issue.Recommendation())
		}
	}
}

var verbose bool

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the recommended configuration",
	Long:  "Apply the remediation of the selected issues. The ini file is snapshotted first and restored if anything fails.",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		names, _ := cmd.Flags().GetStringSlice("issue")
		yes, _ := cmd.Flags().GetBool("yes")
		message, _ := cmd.Flags().GetString("message")

		if all == (len(names) > 0) {
			return fmt.Errorf("specify either --all or --issue")
		}

		r, err := newReconciler()
		if err != nil {
			return err
		}
		doc, err := r.LoadDocument()
		if err != nil {
			return err
		}
		issues, err := r.Validate(doc)
		if err != nil {
			return err
		}

		var selected []phpconfig.IssueIndex
		var pending []phpconfig.ConfigIssue
		if all {
			for _, issue := range issues {
				selected = append(selected, issue.Index)
			}
			pending = issues
		} else {
			open := make(map[phpconfig.IssueIndex]phpconfig.ConfigIssue, len(issues))
			for _, issue := range issues {
				open[issue.Index] = issue
			}
			for _, name := range names {
				idx, err := phpconfig.ParseIssueIndex(name)
				if err != nil {
					return err
				}
				selected = append(selected, idx)
				if issue, ok := open[idx]; ok {
					pending = append(pending, issue)
				}
			}
		}

		if len(pending) == 0 {
			fmt.Println("Nothing to apply")
			return nil
		}

		printIssues(pending)
		if !yes {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("refusing to apply without a terminal; pass --yes")
			}
			if !confirm("Apply these changes?") {
				fmt.Println("Cancelled")
				return nil
			}
		}

		applied, res, err := transactionMgr.ApplyRecommended(context.Background(), r, selected, message)
		if err != nil {
			return err
		}

		if !applied.Changed() {
			fmt.Println("No changes were needed")
			return nil
		}
		for _, idx := range applied.HostChanges {
			fmt.Printf("  host: %s\n", idx)
		}
		for _, idx := range applied.IniChanges {
			fmt.Printf("  php.ini: %s\n", idx)
		}
		fmt.Printf("Applied in transaction %s (snapshot %s)\n", res.TxID, res.SnapshotID)
		return nil
	},
}

func confirm(prompt string) bool {
	fmt.Printf("%s (yes/no): ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "yes" || answer == "y"
}

var registerCmd = &cobra.Command{
	Use:   "register <php-cgi.exe> [arguments]",
	Short: "Register a PHP executable as the FastCGI handler for *.php",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		executable := args[0]
		arguments := ""
		if len(args) > 1 {
			arguments = args[1]
		}

		if _, err := os.Stat(executable); err != nil {
			return &phpconfig.FileError{Path: executable, Err: err}
		}

		ctx := audit.WithActor(context.Background(), currentActor())
		store := hoststore.New(db.DB, cfg.Host.SitePath)
		r, err := phpconfig.NewReconciler(store, phpconfig.OSEnvironment{})
		if err != nil {
			return err
		}

		err = store.Register(executable, arguments)
		audit.LogResult(ctx, audit.ActionRegister, executable, "Register PHP with FastCGI",
			map[string]string{"site": store.SitePath(), "arguments": arguments}, err)
		if err != nil {
			return err
		}

		if err := r.Redetect(); err != nil {
			return err
		}

		fmt.Printf("Registered %s for *.php at %s\n", executable, store.SitePath())
		fmt.Printf("Registration: %s\n", r.Registration())
		if r.Registration() == phpconfig.RegistrationFastCgi {
			fmt.Printf("php.ini:      %s\n", r.IniPath())
		}
		fmt.Println("Run 'phpmgr check' to review the configuration")
		return nil
	},
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	infoCmd.Flags().Bool("json", false, "Print as JSON")

	checkCmd.Flags().Bool("json", false, "Print as JSON")
	checkCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Explain each issue")

	applyCmd.Flags().Bool("all", false, "Apply every reported issue")
	applyCmd.Flags().StringSlice("issue", nil, "Issue name or number (repeatable)")
	applyCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	applyCmd.Flags().StringP("message", "m", "", "Transaction message")
}
