package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/access-gateway/internal/auth"
	"github.com/spec-kit/access-gateway/internal/config"
	"github.com/spec-kit/access-gateway/internal/domain"
	"github.com/spec-kit/access-gateway/internal/guard"
	"github.com/spec-kit/access-gateway/internal/persistence"
	"github.com/spec-kit/access-gateway/internal/repository"
)

type configLoader func() (*config.Config, error)

func newRootCmd(load configLoader) *cobra.Command {
	root := &cobra.Command{
		Use:           "gatewayctl",
		Short:         "Access gateway operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	tokenCmd := &cobra.Command{Use: "token", Short: "Session token utilities"}
	tokenCmd.AddCommand(newMintCmd(load), newRevokeCmd(load))

	routeCmd := &cobra.Command{Use: "route", Short: "Inspect access guard routing"}
	routeCmd.AddCommand(newCheckCmd(load))

	root.AddCommand(tokenCmd, routeCmd)
	return root
}

func newMintCmd(load configLoader) *cobra.Command {
	var (
		subject   string
		name      string
		email     string
		roleNames []string
		roleJSON  []string
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a signed session token for local development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			roles, err := parseRoles(roleNames, roleJSON)
			if err != nil {
				return err
			}
			tm, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
			if err != nil {
				return err
			}
			token, _, err := tm.GenerateToken(subject, name, email, roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "dev-user", "token subject")
	cmd.Flags().StringVar(&name, "name", "", "token display name claim")
	cmd.Flags().StringVar(&email, "email", "", "token email claim")
	cmd.Flags().StringArrayVar(&roleNames, "role", nil, "role name (repeatable)")
	cmd.Flags().StringArrayVar(&roleJSON, "role-json", nil, `role entry as JSON, e.g. '{"slug":"superadmin"}' (repeatable)`)
	return cmd
}

func newRevokeCmd(load configLoader) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "revoke <token-id>",
		Short: "Add a token id (jti) to the revocation list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			redis := persistence.NewRedis(ctx, cfg.Redis, zap.NewNop())
			defer redis.Close()

			if err := repository.NewRevocationRepository(redis.Client).Revoke(ctx, args[0], ttl); err != nil {
				return fmt.Errorf("revoke %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %s for %s\n", args[0], ttl)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "how long to keep the entry (default: token TTL)")
	return cmd
}

func newCheckCmd(load configLoader) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "check <path?query>",
		Short: "Show what the access guard would do with a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			target, err := url.ParseRequestURI(args[0])
			if err != nil {
				return fmt.Errorf("invalid path %q: %w", args[0], err)
			}

			path, err := guard.CanonicalPath(target.EscapedPath())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !guard.NewMatcher(cfg.Guard.Matcher).Match(path) {
				fmt.Fprintln(out, "bypass: path is outside the guard match list")
				return nil
			}

			tm, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
			if err != nil {
				return err
			}
			g, err := guard.New(cfg.Guard, auth.NewJWTProvider(tm, nil), zap.NewNop())
			if err != nil {
				return err
			}

			d := g.Evaluate(cmd.Context(), guard.Request{
				Path:        path,
				RawQuery:    target.RawQuery,
				Credentials: domain.Credentials{BearerToken: token},
			})
			if d.Outcome == guard.OutcomeRedirect {
				fmt.Fprintf(out, "redirect %s (%s, %s)\n", d.Location, d.Rule.Class, d.Reason)
				return nil
			}
			fmt.Fprintf(out, "forward (%s, %s)\n", d.Rule.Class, d.Reason)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "session JWT to evaluate with")
	return cmd
}

func parseRoles(names, raw []string) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(names)+len(raw))
	for _, name := range names {
		roles = append(roles, domain.NewNameRole(name))
	}
	for _, entry := range raw {
		var role domain.Role
		if err := json.Unmarshal([]byte(entry), &role); err != nil {
			return nil, fmt.Errorf("invalid --role-json %q: %w", entry, err)
		}
		roles = append(roles, role)
	}
	return roles, nil
}
