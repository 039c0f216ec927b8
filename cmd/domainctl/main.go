package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hearthhq/hearth/internal/domain/handler"
	"github.com/hearthhq/hearth/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	apiURL  string
	token   string
	cfgFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "domainctl",
	Short: "Hearth custom-domain CLI",
	Long: `domainctl manages a community's custom domain on a Hearth deployment.

It claims domains, shows the DNS records to publish, re-runs verification,
probes TLS status, and recovers lost provisioning hand-offs.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.hearth")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if apiURL == "" {
			apiURL = viper.GetString("api_url")
		}
		if apiURL == "" {
			apiURL = "https://admin.hearth.network"
		}
		if token == "" {
			token = viper.GetString("token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.hearth/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Hearth admin API URL (default https://admin.hearth.network)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "tenant bearer token (or TOKEN env)")

	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(secureCmd)
	rootCmd.AddCommand(redispatchCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func apiClient() *client.Client {
	return client.New(apiURL, client.WithToken(token))
}

// ── claim ────────────────────────────────────────────────────────────────────

var claimJSON bool

var claimCmd = &cobra.Command{
	Use:   "claim <hostname>",
	Short: "Claim a custom domain for your community",
	Long: `claim registers a hostname and prints the DNS records you must publish.

Subdomains (forum.example.com) need a TXT ownership record plus a CNAME;
apex domains (example.com) need the TXT record plus an A record. Once the
records are live, run "domainctl check <claim-id>" to verify.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := apiClient().ClaimDomain(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("claim domain: %w", err)
		}
		if claimJSON {
			return printJSON(result)
		}

		fmt.Printf("✓ Domain claimed: %s\n\n", result.Claim.Hostname)
		fmt.Println("Publish these DNS records:")
		printRequirements(&result.Claim)
		fmt.Printf("\nThen run: domainctl check %s\n", result.Claim.ID)
		return nil
	},
}

func init() {
	claimCmd.Flags().BoolVar(&claimJSON, "json", false, "Output the raw claim as JSON")
}

// ── status ───────────────────────────────────────────────────────────────────

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show your community's current domain claim",
	RunE: func(cmd *cobra.Command, args []string) error {
		claim, err := apiClient().CurrentDomain(context.Background())
		if err != nil {
			return fmt.Errorf("fetch domain claim: %w", err)
		}
		if statusJSON {
			return printJSON(claim)
		}
		printClaim(claim)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output the raw claim as JSON")
}

// ── check ────────────────────────────────────────────────────────────────────

var checkCmd = &cobra.Command{
	Use:   "check <claim-id>",
	Short: "Re-run DNS verification for a claim",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claim, err := apiClient().Recheck(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("recheck domain: %w", err)
		}

		printClaim(claim)
		if !claim.Verified {
			fmt.Println("\nSome records are still missing. DNS changes can take a while")
			fmt.Println("to propagate; re-run this command in a few minutes.")
		}
		return nil
	},
}

// ── secure ───────────────────────────────────────────────────────────────────

var secureCmd = &cobra.Command{
	Use:   "secure <claim-id>",
	Short: "Probe whether the domain is serving HTTPS yet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := apiClient().ProbeTLS(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("probe tls: %w", err)
		}
		if result.Secure {
			fmt.Printf("✓ %s is serving a valid certificate\n", result.Hostname)
		} else {
			fmt.Printf("✗ %s is not serving HTTPS yet; certificate issuance can\n", result.Hostname)
			fmt.Println("  take a few minutes after verification. Try again shortly.")
		}
		return nil
	},
}

// ── redispatch ───────────────────────────────────────────────────────────────

var redispatchCmd = &cobra.Command{
	Use:   "redispatch <claim-id>",
	Short: "Re-enqueue provisioning for a verified domain",
	Long: `redispatch re-sends a verified claim to the provisioning queue.

Use this when a domain verified but never came online: the initial hand-off
is best-effort and can be lost if the queue was down at the moment of
verification.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claim, err := apiClient().Redispatch(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("redispatch: %w", err)
		}
		fmt.Printf("✓ Provisioning re-enqueued for %s\n", claim.Hostname)
		return nil
	},
}

// ── delete ───────────────────────────────────────────────────────────────────

var deleteCmd = &cobra.Command{
	Use:   "delete <claim-id>",
	Short: "Release a domain claim",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient().DeleteDomain(context.Background(), args[0]); err != nil {
			return fmt.Errorf("delete domain: %w", err)
		}
		fmt.Println("✓ Domain claim released")
		return nil
	},
}

// ── token ────────────────────────────────────────────────────────────────────

var (
	tokenSecret string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <tenant-id>",
	Short: "Mint a tenant bearer token (development only)",
	Long: `token signs a short-lived tenant token with the shared admin secret.

Production tokens come from the platform session service; this exists so a
local deployment can be exercised without one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid tenant ID %q: %w", args[0], err)
		}
		if tokenSecret == "" {
			tokenSecret = viper.GetString("auth_secret")
		}
		if tokenSecret == "" {
			return fmt.Errorf("--secret (or AUTH_SECRET) is required")
		}

		signed, err := handler.SignTenantToken([]byte(tokenSecret), tenantID, tokenTTL)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Println(signed)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "Shared HS256 admin secret")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the domainctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("domainctl", version)
	},
}

// ── output helpers ───────────────────────────────────────────────────────────

func printClaim(claim *client.DomainClaim) {
	fmt.Printf("Hostname:  %s\n", claim.Hostname)
	fmt.Printf("Claim ID:  %s\n", claim.ID)
	fmt.Printf("Verified:  %s\n", yesNo(claim.Verified))
	fmt.Printf("Secure:    %s\n", yesNo(claim.Secure))
	if claim.DispatchedAt != nil {
		fmt.Printf("Provisioned at: %s\n", claim.DispatchedAt.Format(time.RFC3339))
	}
	fmt.Println()
	printRequirements(claim)
}

func printRequirements(claim *client.DomainClaim) {
	rows := []struct {
		kind string
		req  *client.Requirement
	}{
		{"TXT", claim.TXT},
		{"CNAME", claim.CNAME},
		{"A", claim.A},
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNAME\tVALUE\tSTATUS")
	for _, row := range rows {
		if row.req == nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			row.kind, row.req.FQDN, row.req.ExpectedValue, reqStatus(row.req.Verified))
	}
	w.Flush() //nolint:errcheck
}

func reqStatus(verified bool) string {
	if verified {
		return "verified"
	}
	return "pending"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
