package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/R3dM0nk3y360/kiauh/api"
	"github.com/R3dM0nk3y360/kiauh/internal/components"
)

// Install, update or remove a component.
type cmdAction struct {
	action      string
	description string
	confirm     string

	global *cmdGlobal
}

func (c *cmdAction) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage(c.action, "<component>")
	cmd.Short = c.description
	cmd.Long = cli.FormatSection("Description", c.description+"\n\nSupported components: "+strings.Join(components.ValidNames, ", "))
	cmd.Example = cli.FormatSection("", `kiauh `+c.action+` mobileraker
    `+c.description+`, here Mobileraker's companion.`)
	cmd.ValidArgs = components.ValidNames
	cmd.RunE = c.run

	return cmd
}

func (c *cmdAction) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	comp, err := c.global.load(args[0])
	if err != nil {
		return fmt.Errorf("%w %q, supported components are: %s", err, args[0], strings.Join(components.ValidNames, ", "))
	}

	ctx := cmd.Context()

	// Ask for confirmation if needed.
	if c.confirm != "" {
		ok, err := c.global.prompter().Confirm(fmt.Sprintf("Are you sure you want to %s %s?", c.confirm, args[0]), false)
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}
	}

	switch c.action {
	case "install":
		err = comp.Install(ctx)
	case "update":
		err = comp.Update(ctx)
	case "remove":
		var report *api.Report

		report, err = comp.Remove(ctx)
		if report != nil {
			renderErr := renderReport(cmd, report)
			if renderErr != nil {
				return renderErr
			}
		}
	default:
		return errors.New("unknown action " + c.action)
	}

	if components.IsWarning(err) {
		slog.WarnContext(ctx, "Nothing done", "component", args[0], "reason", err.Error())

		return nil
	}

	return err
}

// renderReport prints one row per step of a report.
func renderReport(cmd *cobra.Command, report *api.Report) error {
	data := make([][]string, 0, len(report.Steps))
	for _, s := range report.Steps {
		data = append(data, []string{s.Step, string(s.Status), s.Message})
	}

	header := []string{"STEP", "STATUS", "MESSAGE"}

	err := cli.RenderTable(cmd.OutOrStdout(), "table", header, data, report)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), report.Summary())

	return err
}
