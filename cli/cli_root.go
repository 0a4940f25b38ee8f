package cli

import (
	"bufio"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lxc/incus/v6/shared/ask"
	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/R3dM0nk3y360/kiauh/internal/components"
	"github.com/R3dM0nk3y360/kiauh/internal/settings"
	"github.com/R3dM0nk3y360/kiauh/internal/tui"
)

// Global flags shared by every command.
type cmdGlobal struct {
	args *Args

	flagHome       string
	flagSystemdDir string
	flagConfig     string
	flagYes        bool
	flagBackup     bool
	flagNoBackup   bool
	flagVerbose    bool

	asker components.Prompter
}

func (c *cmdGlobal) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("kiauh")
	cmd.Short = "Manage Klipper companion software"
	cmd.Long = cli.FormatSection("Description",
		"Manage Klipper companion software\n\nThis tool installs, updates and removes Mobileraker's companion, OctoEverywhere and the web UI client configs.")
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}
	cmd.SetIn(c.args.Stdin)
	cmd.SetOut(c.args.Stdout)
	cmd.SetErr(c.args.Stderr)

	home, _ := os.UserHomeDir()

	cmd.PersistentFlags().StringVar(&c.flagHome, "home", home, "Home directory holding the printer data and companions``")
	cmd.PersistentFlags().StringVar(&c.flagSystemdDir, "systemd-dir", "/etc/systemd/system", "Directory holding the service units``")
	cmd.PersistentFlags().StringVar(&c.flagConfig, "config", "", "Settings file (default: <home>/"+settings.Filename+")``")
	cmd.PersistentFlags().BoolVarP(&c.flagYes, "yes", "y", false, "Answer yes to every confirmation")
	cmd.PersistentFlags().BoolVar(&c.flagBackup, "backup", false, "Back up before updating")
	cmd.PersistentFlags().BoolVar(&c.flagNoBackup, "no-backup", false, "Don't back up before updating")
	cmd.PersistentFlags().BoolVarP(&c.flagVerbose, "verbose", "v", false, "Show debug messages")
	cmd.MarkFlagsMutuallyExclusive("backup", "no-backup")

	cmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if c.args.SetLogger {
			slog.SetDefault(slog.New(tui.NewHandler(c.args.Stderr, c.flagVerbose)))
		}
	}

	// Actions.
	installCmd := cmdAction{global: c, action: "install", description: "Install a component"}
	cmd.AddCommand(installCmd.command())

	updateCmd := cmdAction{global: c, action: "update", description: "Update a component"}
	cmd.AddCommand(updateCmd.command())

	removeCmd := cmdAction{global: c, action: "remove", description: "Remove a component", confirm: "remove"}
	cmd.AddCommand(removeCmd.command())

	// List.
	listCmd := cmdList{global: c}
	cmd.AddCommand(listCmd.command())

	// Show.
	showCmd := cmdShow{global: c}
	cmd.AddCommand(showCmd.command())

	// Status.
	statusCmd := cmdStatus{global: c}
	cmd.AddCommand(statusCmd.command())

	// Help handling.
	cmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}

// settings loads the settings file and applies the flag overrides.
func (c *cmdGlobal) settings() (settings.Settings, error) {
	path := c.flagConfig
	if path == "" {
		path = filepath.Join(c.flagHome, settings.Filename)
	}

	if c.flagBackup && c.flagNoBackup {
		return settings.Settings{}, errors.New("--backup and --no-backup can't be used together")
	}

	s, err := settings.Load(path, c.flagHome)
	if err != nil {
		return s, err
	}

	if c.flagBackup {
		s.BackupBeforeUpdate = true
	}

	if c.flagNoBackup {
		s.BackupBeforeUpdate = false
	}

	return s, nil
}

func (c *cmdGlobal) prompter() components.Prompter {
	if c.flagYes {
		return components.AutoPrompter(true)
	}

	if nonInteractive(c.args.Stdin) {
		return defaultPrompter{}
	}

	if c.asker == nil {
		c.asker = components.AskPrompter{Asker: ask.NewAsker(bufio.NewReader(c.args.Stdin))}
	}

	return c.asker
}

func (c *cmdGlobal) env() (*components.Env, error) {
	if c.flagHome == "" {
		return nil, errors.New("unable to determine the home directory, use --home")
	}

	s, err := c.settings()
	if err != nil {
		return nil, err
	}

	return &components.Env{
		Home:       c.flagHome,
		SystemdDir: c.flagSystemdDir,
		Runner:     c.args.Runner,
		Prompter:   c.prompter(),
		Settings:   s,
		Output:     c.args.Stdout,
	}, nil
}

func (c *cmdGlobal) load(name string) (components.Component, error) {
	env, err := c.env()
	if err != nil {
		return nil, err
	}

	return components.Load(env, name)
}

// defaultPrompter takes the default answer, used when nobody can be asked.
type defaultPrompter struct{}

func (defaultPrompter) Confirm(_ string, defaultYes bool) (bool, error) {
	return defaultYes, nil
}
