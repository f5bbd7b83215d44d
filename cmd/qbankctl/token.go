package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashwinyue/next-qbank/internal/service/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token <reviewer-id>",
	Short: "Issue a reviewer access token signed with auth.jwtSecret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwtSecret is empty: a token signed with a random secret would never validate")
		}
		ttl, err := cmd.Flags().GetDuration("ttl")
		if err != nil {
			return err
		}
		if ttl <= 0 {
			return fmt.Errorf("--ttl must be positive, got %s", ttl)
		}

		svc, err := auth.NewService(cfg.Auth.JWTSecret)
		if err != nil {
			return err
		}
		token, err := svc.IssueToken(args[0], ttl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", auth.DefaultTokenTTL, "Token lifetime")
}
