package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/ashwinyue/tool-search/internal/middleware"
	"github.com/ashwinyue/tool-search/internal/service"
)

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the index and the embedding provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withServices(cmd, func(ctx context.Context, svcs *service.Services) error {
				status := svcs.ToolSearch.HealthCheck(ctx)
				if opts.format == FormatJSON {
					if err := printJSON(cmd.OutOrStdout(), status); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", status.Status)
					if status.Healthy() {
						fmt.Fprintf(cmd.OutOrStdout(), "Index: %s\nEmbedding: %s (dim %d)\n",
							status.IndexName, status.EmbeddingModel, status.EmbeddingDimension)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "Error: %s\n", status.Error)
					}
				}

				if !status.Healthy() {
					return errors.New("tool search is unhealthy")
				}
				return nil
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vector counts per namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withServices(cmd, func(ctx context.Context, svcs *service.Services) error {
				stats, err := svcs.ToolSearch.GetIndexStats(ctx)
				if err != nil {
					return err
				}
				if opts.format == FormatJSON {
					return printJSON(cmd.OutOrStdout(), stats)
				}

				namespaces := make([]string, 0, len(stats.Namespaces))
				for ns := range stats.Namespaces {
					namespaces = append(namespaces, ns)
				}
				sort.Strings(namespaces)

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "Dimension:\t%d\n", stats.Dimension)
				fmt.Fprintf(w, "Total vectors:\t%d\n", stats.TotalVectorCount)
				for _, ns := range namespaces {
					fmt.Fprintf(w, "  %s\t%d\n", ns, stats.Namespaces[ns].VectorCount)
				}
				return w.Flush()
			})
		},
	}
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an HS256 bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := opts.cfg.Auth.JWTSecret
			if secret == "" {
				return errors.New("auth.jwtSecret is not configured")
			}

			now := time.Now()
			claims := jwt.RegisteredClaims{
				Subject:  subject,
				IssuedAt: jwt.NewNumericDate(now),
			}
			if ttl > 0 {
				claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
			}

			token, err := middleware.IssueToken(secret, claims)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "cli", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime, 0 for no expiry")
	return cmd
}
