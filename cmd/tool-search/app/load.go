package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/service"
	"github.com/ashwinyue/tool-search/internal/service/toolsearch"
)

func newLoadCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load tool definitions from JSON files into the index",
	}
	cmd.AddCommand(newLoadToolsCmd(opts), newLoadToolkitCmd(opts))
	return cmd
}

func newLoadToolsCmd(opts *rootOptions) *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "tools <file>",
		Short: "Upsert a JSON array of tools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := toolsearch.LoadToolsFromJSON(args[0])
			if err != nil {
				return err
			}

			return opts.withServices(cmd, func(ctx context.Context, svcs *service.Services) error {
				ids, err := svcs.ToolSearch.UpsertTools(ctx, tools, opts.namespace, batchSize)
				if err != nil {
					if committed := toolsearch.CommittedIDs(err); len(committed) > 0 {
						fmt.Fprintf(cmd.ErrOrStderr(), "Committed %d of %d tools before the failure\n", len(committed), len(tools))
					}
					return err
				}
				return printUpsert(cmd, opts, ids)
			})
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Tools per embedding/index call (defaults to search.batchSize)")
	return cmd
}

func newLoadToolkitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toolkit <file>",
		Short: "Upsert every tool of a JSON toolkit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolkit, err := toolsearch.LoadToolkitFromJSON(args[0])
			if err != nil {
				return err
			}

			return opts.withServices(cmd, func(ctx context.Context, svcs *service.Services) error {
				ids, err := svcs.ToolSearch.UpsertToolkit(ctx, *toolkit, opts.namespace)
				if err != nil {
					return err
				}
				return printUpsert(cmd, opts, ids)
			})
		},
	}
}

func printUpsert(cmd *cobra.Command, opts *rootOptions, ids []string) error {
	if opts.format == FormatJSON {
		return printJSON(cmd.OutOrStdout(), model.UpsertResult{IDs: ids, Count: len(ids)})
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Upserted %d tools\n", len(ids))
	return err
}
