package cmd

// Options holds the shared command-line options for the duewatch CLI.
type Options struct {
	Mode      string
	Channel   string
	DryRun    bool
	Verbosity int

	// Scope overrides applied on top of the config file
	Owner         string
	OwnerType     string
	Repository    string
	ProjectNumber int
	Enterprise    bool
	DueDateField  string
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMode sets the run mode (overdue_issues, expiring_issues, missing_duedate).
func WithMode(mode string) Option {
	return func(o *Options) {
		o.Mode = mode
	}
}

// WithChannel sets the notification channel (comment, email).
func WithChannel(channel string) Option {
	return func(o *Options) {
		o.Channel = channel
	}
}

// WithDryRun suppresses sending while still composing and logging.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithOwner sets the project owner login.
func WithOwner(owner string) Option {
	return func(o *Options) {
		o.Owner = owner
	}
}

// WithRepository sets the repository to scan.
func WithRepository(repo string) Option {
	return func(o *Options) {
		o.Repository = repo
	}
}

// WithProjectNumber sets the project number.
func WithProjectNumber(n int) Option {
	return func(o *Options) {
		o.ProjectNumber = n
	}
}
