package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/services"
)

// newTokenCmd mints an admin JWT for operators and scripts.
func newTokenCmd(load configLoader) *cobra.Command {
	var (
		adminID string
		email   string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin token for the filter admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET environment variable not set")
			}
			switch role {
			case services.RoleSuperAdmin, services.RoleAdmin, services.RoleEditor:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			jwtSvc, err := services.NewJWTService(cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			token, err := jwtSvc.GenerateAdminJWT(adminID, email, role)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&adminID, "admin-id", "", "admin id placed in the token")
	cmd.Flags().StringVar(&email, "email", "", "admin email placed in the token")
	cmd.Flags().StringVar(&role, "role", services.RoleAdmin, "super_admin, admin or editor")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("admin-id")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
