package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/energy-insights/internal/config"
	"github.com/jonathan/energy-insights/internal/server"
)

func newTokenCmd() *cobra.Command {
	var clientName string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the query API",
		Long:  "Sign a token for --client with JWT_SECRET. The API only checks tokens when JWT_SECRET is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewJWTConfig()
			if err != nil {
				return err
			}
			token, err := server.NewJWTService(cfg).GenerateToken(clientName)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&clientName, "client", "", "Client name recorded as the token subject (required)")
	if err := cmd.MarkFlagRequired("client"); err != nil {
		panic(fmt.Sprintf("failed to mark client flag as required: %v", err))
	}
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a dashboard password read from stdin",
		Long:  "Print the bcrypt hash to use as DASHBOARD_PASSWORD_HASH. BCRYPT_COST and PASSWORD_PEPPER apply.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pc, err := config.NewPasswordConfig()
			if err != nil {
				return err
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				return fmt.Errorf("no password on stdin")
			}
			pw := strings.TrimRight(scanner.Text(), "\r")
			if pw == "" {
				return fmt.Errorf("password is empty")
			}

			hash, err := pc.HashPassword(pw)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}
