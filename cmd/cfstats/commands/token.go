package commands

import (
	"fmt"
	"time"

	"cf_stats/internal/common/security"
	"cf_stats/internal/domain/model"
	"cf_stats/internal/platform/config"

	"github.com/spf13/cobra"
)

// NewTokenCommand mints an admin token signed with JWT_SECRET, for scripts that
// call the admin endpoints.
func NewTokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.Load()
			if ttl <= 0 {
				ttl = config.AppConfig.JWTExp
			}
			token, err := security.IssueToken(security.NewTokenAuth(config.AppConfig.JWTKey), subject, model.RoleAdmin, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to JWT_EXPIRATION_HOURS")
	return cmd
}
