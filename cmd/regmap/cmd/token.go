package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KevinKickass/OpenRegMap/internal/auth"
)

var (
	tokenRole    string
	tokenSubject string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token signed with the configured secret",
	Long: `Issue a JWT for the REST API and websocket. The secret is read from the
environment variable named by auth.jwt_secret_env.

Examples:
  regmap token --role deployer --subject ci`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	roles := make([]string, 0, len(auth.Roles()))
	for _, r := range auth.Roles() {
		roles = append(roles, string(r))
	}
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(auth.RoleViewer), "role: "+strings.Join(roles, ", "))
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "regmap-cli", "token subject")
}

func runToken(cmd *cobra.Command, args []string) error {
	role, ok := auth.ParseRole(tokenRole)
	if !ok {
		return fmt.Errorf("unknown role %q", tokenRole)
	}

	if !cfg.Auth.IsProductionReady() {
		logger.Warn("JWT secret not set, signing with the development secret")
	}

	jwt := auth.NewJWTHandler(cfg.Auth.GetJWTSecret(), cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	token, err := jwt.GenerateToken(tokenSubject, role)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
