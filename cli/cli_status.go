package cli

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/R3dM0nk3y360/kiauh/api"
	"github.com/R3dM0nk3y360/kiauh/internal/components"
	"github.com/R3dM0nk3y360/kiauh/internal/git"
)

// List.
type cmdList struct {
	global *cmdGlobal

	flagFormat string
}

func (c *cmdList) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("list")
	cmd.Aliases = []string{"ls"}
	cmd.Short = "List supported components"
	cmd.Long = cli.FormatSection("Description", "List supported components")
	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", c.global.args.DefaultListFormat, "Format (csv|json|table|yaml|compact|markdown), use suffix \",noheader\" to disable headers and \",header\" to enable it if missing, e.g. csv,header``")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return cli.ValidateFlagFormatForListOutput(cmd.Flag("format").Value.String())
	}

	cmd.RunE = c.run

	return cmd
}

func (c *cmdList) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	data := [][]string{}
	raw := []any{}

	for _, name := range components.ValidNames {
		comp, err := c.global.load(name)
		if err != nil {
			return err
		}

		descriptor := comp.Descriptor()
		displayName, repository, _ := describe(descriptor)

		raw = append(raw, descriptor)
		data = append(data, []string{name, displayName, repository})
	}

	sort.Sort(cli.SortColumnsNaturally(data))

	header := []string{"NAME", "DESCRIPTION", "REPOSITORY"}

	return cli.RenderTable(cmd.OutOrStdout(), c.flagFormat, header, data, raw)
}

// Status.
type cmdStatus struct {
	global *cmdGlobal

	flagFormat string
	flagRemote bool
}

func (c *cmdStatus) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("status", "[<component>]")
	cmd.Short = "Show the install status of components"
	cmd.Long = cli.FormatSection("Description", "Show the install status of components\n\nWithout an argument every supported component is listed.")
	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", c.global.args.DefaultListFormat, "Format (csv|json|table|yaml|compact|markdown), use suffix \",noheader\" to disable headers and \",header\" to enable it if missing, e.g. csv,header``")
	cmd.Flags().BoolVar(&c.flagRemote, "remote", false, "Look up the latest upstream commit on GitHub")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return cli.ValidateFlagFormatForListOutput(cmd.Flag("format").Value.String())
	}

	cmd.RunE = c.run

	return cmd
}

func (c *cmdStatus) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 1)
	if exit {
		return err
	}

	names := components.ValidNames
	if len(args) == 1 {
		names = []string{args[0]}
	}

	data := [][]string{}
	raw := []api.ComponentStatus{}

	var remote *git.Remote
	if c.flagRemote {
		remote = git.NewRemote(c.global.args.GitHub)
	}

	for _, name := range names {
		comp, err := c.global.load(name)
		if err != nil {
			return fmt.Errorf("%w %q", err, name)
		}

		status := comp.Status(cmd.Context())

		if remote != nil {
			_, repository, branch := describe(comp.Descriptor())

			status.RemoteCommit, err = remote.Commit(cmd.Context(), repository, branch)
			if err != nil {
				slog.WarnContext(cmd.Context(), "Failed to look up the remote commit", "component", name, "err", err)
			}
		}

		raw = append(raw, status)
		data = append(data, []string{status.Name, string(status.State), strconv.Itoa(status.Instances), strconv.Itoa(status.Running), status.Repository, status.LocalCommit, status.RemoteCommit})
	}

	sort.Sort(cli.SortColumnsNaturally(data))

	header := []string{"NAME", "STATE", "INSTANCES", "RUNNING", "REPOSITORY", "COMMIT", "REMOTE"}

	return cli.RenderTable(cmd.OutOrStdout(), c.flagFormat, header, data, raw)
}

// Show.
type cmdShow struct {
	global *cmdGlobal
}

func (c *cmdShow) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("show", "<component>")
	cmd.Short = "Show component details"
	cmd.Long = cli.FormatSection("Description", "Show component details")
	cmd.ValidArgs = components.ValidNames
	cmd.RunE = c.run

	return cmd
}

func (c *cmdShow) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	comp, err := c.global.load(args[0])
	if err != nil {
		return fmt.Errorf("%w %q", err, args[0])
	}

	data, err := yaml.Marshal(comp.Descriptor())
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))

	return err
}

// describe returns the display name, repository and branch of a component descriptor.
func describe(descriptor any) (string, string, string) {
	switch d := descriptor.(type) {
	case api.ComponentDescriptor:
		return d.DisplayName, d.Repository, d.Branch
	case api.ClientConfigData:
		return d.DisplayName, d.URL, d.Branch
	default:
		return "", "", ""
	}
}
