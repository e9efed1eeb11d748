package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "duewatch",
		Short: "Due-date reminders for GitHub project issues",
		Long: `A batch tool that scans a GitHub project for issues that are overdue,
due soon, or missing a due date, and notifies the assignees by issue
comment or email.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotify(cmd, opts)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add notify flags to root command so `duewatch` and `duewatch notify`
	// work identically
	addNotifyFlags(rootCmd, opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdNotify(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())
	rootCmd.AddCommand(NewCmdRateLimit())

	return rootCmd
}
