package cli

import (
	"fmt"

	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewTokenCmd mints a signed identity token for local development.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		id   string
		name string
		role string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development identity token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret not configured")
			}
			identity := domain.Identity{ID: id, Name: name, Role: domain.Role(role)}
			token, err := auth.NewTokens(cfg.Auth.JWTSecret).Issue(identity, tokenTTL(cfg))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleStudent), "teacher or student")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
