package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/ashwinyue/tool-search/internal/service"
)

func newToolkitCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toolkit",
		Short: "Inspect or remove the tools of a toolkit",
	}
	cmd.AddCommand(newToolkitGetCmd(opts), newToolkitDeleteCmd(opts))
	return cmd
}

func newToolkitGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <toolkit-id>",
		Short: "List the indexed tools of a toolkit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseToolkitID(args[0])
			if err != nil {
				return err
			}

			return opts.withServices(cmd, func(ctx context.Context, svcs *service.Services) error {
				tools, err := svcs.ToolSearch.GetToolkitTools(ctx, id, opts.namespace)
				if err != nil {
					return err
				}
				if opts.format == FormatJSON {
					return printJSON(cmd.OutOrStdout(), tools)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ACTION_ID\tTOOL\tPARAMS")
				for _, t := range tools {
					fmt.Fprintf(w, "%d\t%s\t%d\n", t.ActionID, t.ToolName, len(t.Parameters))
				}
				return w.Flush()
			})
		},
	}
}

func newToolkitDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <toolkit-id>",
		Short: "Delete every indexed tool of a toolkit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseToolkitID(args[0])
			if err != nil {
				return err
			}

			return opts.withServices(cmd, func(ctx context.Context, svcs *service.Services) error {
				n, err := svcs.ToolSearch.DeleteToolkit(ctx, id, opts.namespace)
				if err != nil {
					return err
				}
				if opts.format == FormatJSON {
					return printJSON(cmd.OutOrStdout(), map[string]any{"toolkit_id": id, "deleted": n})
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d tools from toolkit %d\n", n, id)
				return err
			})
		},
	}
}

func parseToolkitID(s string) (int64, error) {
	id, err := cast.ToInt64E(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid toolkit id %q", s)
	}
	return id, nil
}
