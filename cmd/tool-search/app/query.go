package app

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/service"
)

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var (
		topK     int
		filters  []string
		toolkits bool
	)

	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Search tools (or toolkits) by natural-language query and filters",
		Example: `  tool-search query "swap tokens on a dex" --top-k 3
  tool-search query --filter toolkit_id=79
  tool-search query "liquidity" --filter toolkit_id=79,80 --toolkits`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseFilters(filters)
			if err != nil {
				return err
			}
			req := model.ToolSearchRequest{Filters: parsed}
			if cmd.Flags().Changed("top-k") {
				req.TopK = &topK
			}
			if len(args) == 1 {
				req.Query = args[0]
			}

			return opts.withServices(cmd, func(ctx context.Context, svcs *service.Services) error {
				if toolkits {
					results, err := svcs.ToolSearch.SearchToolkits(ctx, req, opts.namespace)
					if err != nil {
						return err
					}
					return printToolkitResults(cmd, opts, results)
				}

				results, err := svcs.ToolSearch.QueryTools(ctx, req, opts.namespace)
				if err != nil {
					return err
				}
				return printToolResults(cmd, opts, results)
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&topK, "top-k", 0, "Maximum number of results (defaults to search.defaultTopK)")
	flags.StringArrayVarP(&filters, "filter", "f", nil, "Metadata filter as key=value; comma separated values match any")
	flags.BoolVar(&toolkits, "toolkits", false, "Aggregate results by toolkit")
	return cmd
}

// parseFilters 解析 key=value 过滤条件；逗号分隔的值视为列表，整数按 int64 处理
func parseFilters(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	filters := make(map[string]any, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", kv)
		}

		parts := strings.Split(value, ",")
		if len(parts) == 1 {
			filters[key] = filterScalar(parts[0])
			continue
		}
		list := make([]any, 0, len(parts))
		for _, p := range parts {
			list = append(list, filterScalar(p))
		}
		filters[key] = list
	}
	return filters, nil
}

func filterScalar(s string) any {
	s = strings.TrimSpace(s)
	if n, err := cast.ToInt64E(s); err == nil {
		return n
	}
	return s
}

func printToolResults(cmd *cobra.Command, opts *rootOptions, results []model.ToolSearchResponse) error {
	if opts.format == FormatJSON {
		return printJSON(cmd.OutOrStdout(), results)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tACTION_ID\tTOOLKIT_ID\tTOOL")
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%d\t%d\t%s\n", r.Score, r.ActionID, r.ToolkitID, r.ToolName)
	}
	return w.Flush()
}

func printToolkitResults(cmd *cobra.Command, opts *rootOptions, results []model.ToolkitSearchResponse) error {
	if opts.format == FormatJSON {
		return printJSON(cmd.OutOrStdout(), results)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTOOLKIT_ID\tNAME\tTOOLS\tSAMPLE")
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%d\t%s\t%d\t%s\n", r.Score, r.ToolkitID, r.Name, r.ToolsCount, strings.Join(r.SampleTools, ", "))
	}
	return w.Flush()
}
