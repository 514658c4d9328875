package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benedict-erwin/detection-reporter/pkg/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API access tokens",
	Long:  `Issue and inspect JWT access tokens for the HTTP API`,
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a new access token",
	Long:  `Issue a signed JWT for the given subject and permissions`,
	RunE:  runTokenIssue,
}

var tokenVerifyCmd = &cobra.Command{
	Use:           "verify [token]",
	Short:         "Verify an access token",
	Long:          `Verify a JWT and print its claims`,
	Args:          cobra.ExactArgs(1),
	RunE:          runTokenVerify,
	SilenceErrors: true,
}

// Command flags
var (
	tokenSubject     string
	tokenPermissions string
)

func init() {
	tokenCmd.AddCommand(tokenIssueCmd)
	tokenCmd.AddCommand(tokenVerifyCmd)

	tokenIssueCmd.Flags().StringVarP(&tokenSubject, "subject", "s", "", "Token subject (required)")
	tokenIssueCmd.Flags().StringVarP(&tokenPermissions, "permissions", "p",
		"read:report,write:report,read:health", "Comma-separated permissions")
	tokenIssueCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(tokenCmd)
}

// runTokenIssue issues a signed JWT for API testing
func runTokenIssue(cmd *cobra.Command, args []string) error {
	if !auth.Enabled() {
		return fmt.Errorf("auth is disabled in config, no token needed")
	}

	permissions := strings.Split(tokenPermissions, ",")
	for i := range permissions {
		permissions[i] = strings.TrimSpace(permissions[i])
	}

	token, err := auth.IssueToken(tokenSubject, permissions)
	if err != nil {
		return fmt.Errorf("failed to issue token: %v", err)
	}

	fmt.Printf("✅ Token issued successfully!\n\n")
	fmt.Printf("Subject:      %s\n", tokenSubject)
	fmt.Printf("Permissions:  %s\n", strings.Join(permissions, ", "))
	fmt.Printf("\n🔑 Token: %s\n", token)
	fmt.Printf("\n📋 Ready-to-use curl command:\n")
	fmt.Printf("curl -s -H \"Authorization: Bearer %s\" \"http://localhost:3000/v1/health\"\n", token)

	return nil
}

// runTokenVerify validates a JWT and prints its claims
func runTokenVerify(cmd *cobra.Command, args []string) error {
	claims, err := auth.VerifyJWT(args[0])
	if err != nil {
		fmt.Printf("❌ Token verification failed: %v\n", err)
		return err
	}

	fmt.Printf("✅ Token is valid!\n\n")
	fmt.Printf("Subject:      %s\n", claims.Subject)
	fmt.Printf("Issuer:       %s\n", claims.Issuer)
	fmt.Printf("Permissions:  %s\n", strings.Join(claims.Permissions, ", "))
	if claims.ExpiresAt != nil {
		fmt.Printf("Expires:      %s\n", claims.ExpiresAt.Time)
	}

	return nil
}
