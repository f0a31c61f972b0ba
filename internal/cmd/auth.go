package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/auth"
	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/logging"
	"github.com/spf13/cobra"
)

var callbackPort int

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Strava authentication",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Strava, prompting for API credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd.Context(), func(storage *auth.Storage) error {
			_, err := ensureAuthenticated(cmd.Context(), storage, true)
			return err
		})
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete stored credentials and tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd.Context(), func(storage *auth.Storage) error {
			if err := storage.DeleteTokens(cmd.Context()); err != nil {
				return fmt.Errorf("deleting tokens: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		})
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a usable token is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd.Context(), func(storage *auth.Storage) error {
			tokens, err := storage.LoadTokens(cmd.Context())
			if errors.Is(err, auth.ErrNotAuthenticated) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeTokens(tokens, time.Now()))
			return nil
		})
	},
}

func init() {
	authLoginCmd.Flags().IntVar(&callbackPort, "callback-port", auth.DefaultCallbackPort, "local port for the OAuth redirect")
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)
}

func withStorage(ctx context.Context, fn func(*auth.Storage) error) error {
	sqlDB, err := openDatabase(ctx, dbPath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return fn(auth.NewStorage(db.New(sqlDB)))
}

func describeTokens(tokens *auth.StoredTokens, now time.Time) string {
	expires := time.Unix(tokens.ExpiresAt, 0)
	if !expires.After(now) {
		return fmt.Sprintf("Authenticated; access token expired %s (refreshed on next use).", expires.Format(time.RFC1123))
	}
	return fmt.Sprintf("Authenticated; access token expires %s (in %s).", expires.Format(time.RFC1123), expires.Sub(now).Round(time.Minute))
}

// ensureAuthenticated returns a valid access token, running the OAuth flow
// when none is stored or force is set
func ensureAuthenticated(ctx context.Context, storage *auth.Storage, force bool) (string, error) {
	log := logging.Logger

	if force {
		log.Info().Msg("force re-authentication requested, clearing existing credentials and tokens")
		if err := storage.DeleteTokens(ctx); err != nil {
			log.Debug().Err(err).Msg("failed to delete existing auth config (may not exist)")
		}
	}

	clientConfig, err := storage.LoadClientConfig(ctx)
	if err != nil || force {
		clientConfig, err = promptForCredentials(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("getting credentials: %w", err)
		}
	}

	if !force {
		accessToken, err := storage.GetValidAccessToken(ctx)
		if err == nil {
			log.Info().Msg("using existing authentication")
			return accessToken, nil
		}

		if errors.Is(err, auth.ErrNotAuthenticated) {
			log.Info().Msg("no valid authentication found, starting OAuth flow")
		} else {
			log.Warn().Err(err).Msg("token refresh failed, re-authentication required")
			fmt.Println("\n=== Token Refresh Failed ===")
			fmt.Println("Your Strava authentication has expired or been revoked.")
			fmt.Println("Re-authentication is required.")
		}
	}

	return runOAuthFlow(ctx, storage, clientConfig)
}

// promptForCredentials reads the Strava API client id and secret from r
func promptForCredentials(r io.Reader) (*auth.ClientConfig, error) {
	reader := bufio.NewReader(r)

	fmt.Println("\n=== Strava API Credentials Required ===")
	fmt.Println("Get your API credentials from: https://www.strava.com/settings/api")
	fmt.Println()

	fmt.Print("Enter your Client ID: ")
	clientID, err := readLine(reader)
	if err != nil {
		return nil, fmt.Errorf("reading client ID: %w", err)
	}
	if clientID == "" {
		return nil, errors.New("client ID is required")
	}

	fmt.Print("Enter your Client Secret: ")
	clientSecret, err := readLine(reader)
	if err != nil {
		return nil, fmt.Errorf("reading client secret: %w", err)
	}
	if clientSecret == "" {
		return nil, errors.New("client secret is required")
	}

	return &auth.ClientConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, nil
}

// readLine accepts a final line without a trailing newline
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// runOAuthFlow performs the OAuth authentication flow with Strava
func runOAuthFlow(ctx context.Context, storage *auth.Storage, clientConfig *auth.ClientConfig) (string, error) {
	log := logging.Logger

	port := callbackPort
	if port == 0 {
		port = auth.DefaultCallbackPort
	}

	fmt.Println("\n=== Strava Authentication Required ===")
	fmt.Println("A browser window will open for you to authorize this application.")

	tokens, err := auth.Authenticate(ctx, clientConfig.ClientID, clientConfig.ClientSecret, port)
	if err != nil {
		return "", fmt.Errorf("OAuth flow failed: %w", err)
	}

	log.Info().
		Str("expires_at", time.Unix(tokens.ExpiresAt, 0).Format(time.RFC3339)).
		Msg("OAuth authentication successful")

	if err := storage.SaveFullConfig(ctx, clientConfig.ClientID, clientConfig.ClientSecret, tokens); err != nil {
		return "", fmt.Errorf("saving tokens: %w", err)
	}

	fmt.Printf("\nAuthentication successful! Token expires: %s\n\n",
		time.Unix(tokens.ExpiresAt, 0).Format(time.RFC1123))

	return tokens.AccessToken, nil
}
