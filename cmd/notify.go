package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spiffcs/duewatch/config"
	"github.com/spiffcs/duewatch/internal/ghclient"
	"github.com/spiffcs/duewatch/internal/log"
	"github.com/spiffcs/duewatch/internal/model"
	"github.com/spiffcs/duewatch/internal/notify"
	"github.com/spiffcs/duewatch/internal/output"
	"github.com/spiffcs/duewatch/internal/runner"
)

// NewCmdNotify creates the notify command.
func NewCmdNotify(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Scan the project and send due-date notifications (same as root duewatch)",
		Long: `Scans the configured GitHub project for issues matching the run mode
and notifies assignees over the configured channel.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNotify(cmd, opts)
		},
	}

	addNotifyFlags(cmd, opts)
	return cmd
}

// addNotifyFlags adds the notify-specific flags to a command.
func addNotifyFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", string(model.ModeOverdue),
		"Run mode (overdue_issues, expiring_issues, missing_duedate)")
	cmd.Flags().StringVarP(&opts.Channel, "channel", "c", "",
		"Notification channel (comment, email); overrides config")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false,
		"Compose and log notifications without sending them")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v",
		"Increase verbosity (-v info, -vv debug, -vvv trace)")

	// Scope overrides
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "Project owner login; overrides config")
	cmd.Flags().StringVar(&opts.Repository, "repo", "", "Repository to scan; overrides config")
	cmd.Flags().IntVar(&opts.ProjectNumber, "project", 0, "Project number; overrides config")
	cmd.Flags().BoolVar(&opts.Enterprise, "enterprise", false, "Use the enterprise project-items query")
	cmd.Flags().StringVar(&opts.DueDateField, "due-date-field", "", "Project field holding the due date; overrides config")
}

func runNotify(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	log.Initialize(opts.Verbosity, os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyOverrides(cfg, opts)

	if err := cfg.Validate(); err != nil {
		return err
	}

	mode := model.RunMode(opts.Mode)
	if !mode.Valid() {
		return fmt.Errorf("invalid mode %q (must be one of %v)", opts.Mode, model.AllRunModes)
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		return fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	client, err := ghclient.NewClient(ctx, token, cfg.GetGraphQLEndpoint())
	if err != nil {
		return err
	}

	dispatcher, err := buildDispatcher(cfg, client, opts.DryRun)
	if err != nil {
		return err
	}

	run := runner.New(runner.Config{
		Owner:           cfg.Owner,
		OwnerType:       model.OwnerType(cfg.OwnerType),
		Repository:      cfg.Repository,
		ProjectNumber:   cfg.ProjectNumber,
		Enterprise:      cfg.Enterprise,
		DueDateField:    cfg.DueDateField,
		AllowedStatuses: cfg.AllowedStatuses,
		Channel:         model.Channel(cfg.Channel),
	}, client, dispatcher)

	if opts.DryRun {
		output.DryRunBanner(os.Stdout)
	}

	sum, err := run.Run(ctx, mode)
	if err != nil {
		return err
	}

	output.RunSummary(os.Stdout, mode, model.Channel(cfg.Channel), sum)
	return nil
}

// applyOverrides layers command-line flags on top of the loaded config.
func applyOverrides(cfg *config.Config, opts *Options) {
	if opts.Channel != "" {
		cfg.Channel = opts.Channel
	}
	if opts.Owner != "" {
		cfg.Owner = opts.Owner
	}
	if opts.Repository != "" {
		cfg.Repository = opts.Repository
	}
	if opts.ProjectNumber != 0 {
		cfg.ProjectNumber = opts.ProjectNumber
	}
	if opts.Enterprise {
		cfg.Enterprise = true
	}
	if opts.DueDateField != "" {
		cfg.DueDateField = opts.DueDateField
	}
}

// buildDispatcher wires the configured channel's collaborators. The mailer
// is only constructed for the email channel so comment runs never require
// SMTP settings.
func buildDispatcher(cfg *config.Config, client *ghclient.Client, dryRun bool) (*notify.Dispatcher, error) {
	d := &notify.Dispatcher{
		DryRun:   dryRun,
		Comments: client,
	}

	if model.Channel(cfg.Channel) == model.ChannelEmail {
		password := cfg.GetSMTPPassword()
		if password == "" && !dryRun {
			return nil, fmt.Errorf("SMTP password not configured. Set the DUEWATCH_SMTP_PASSWORD environment variable")
		}
		d.Mail = &notify.Mailer{
			Host:     cfg.SMTP.Host,
			Username: cfg.SMTP.Username,
			Password: password,
			From:     cfg.SMTP.From,
		}
		d.FallbackCC = cfg.SMTP.FallbackCC
	}

	return d, nil
}
