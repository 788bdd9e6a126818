package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/existflow/vibetrack/internal/app"
	"github.com/existflow/vibetrack/internal/auth"
	"github.com/existflow/vibetrack/internal/config"
	"github.com/existflow/vibetrack/internal/model"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Sign in, create an account, or sign out.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password, or with Google",
	Long: `Sign in with email and password, or with Google.

Examples:
  vibe auth login
  vibe auth login --email ada@example.com
  vibe auth login --google
  vibe auth login --google --id-token "$(gcloud auth print-identity-token)"`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

var (
	loginEmail   string
	loginGoogle  bool
	loginIDToken string
)

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email to sign in with")
	loginCmd.Flags().BoolVar(&loginGoogle, "google", false, "Sign in with Google")
	loginCmd.Flags().StringVar(&loginIDToken, "id-token", "", "Google ID token to use with --google")
	registerCmd.Flags().StringVar(&loginEmail, "email", "", "Email for the new account")
}

func runLogin(cmd *cobra.Command, args []string) error {
	var opts []app.Option
	if loginIDToken != "" {
		opts = append(opts, app.WithIDTokenSource(auth.StaticToken(loginIDToken)))
	}

	a, err := openApp(opts...)
	if err != nil {
		return err
	}
	defer closeApp(a)

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if loginGoogle {
		fmt.Fprintln(out, "🔄 Signing in with Google...")
		u, err := a.Auth.SignInWithFederatedProvider(ctx)
		if err != nil {
			return describeAuthError(err)
		}
		fmt.Fprintf(out, "✅ Signed in as %s\n", u.Label())
		return nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	email := loginEmail
	if email == "" {
		email = prompt(out, reader, "Email: ")
	}
	password, err := promptPassword(out, reader, "Password: ")
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "🔄 Signing in...")
	u, err := a.Auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Fprintf(out, "✅ Signed in as %s\n", u.Label())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	out := cmd.OutOrStdout()
	if _, ok := a.Auth.CurrentUser(); !ok {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}

	fmt.Fprintln(out, "🔄 Signing out...")
	if err := a.Auth.SignOut(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintln(out, "✅ Signed out.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	email := loginEmail
	if email == "" {
		email = prompt(out, reader, "Email: ")
	}
	password, err := promptPassword(out, reader, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(out, reader, "Confirm Password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	fmt.Fprintln(out, "🔄 Creating account...")
	u, err := a.Auth.RegisterWithPassword(cmd.Context(), email, password)
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Fprintf(out, "✅ Account created, signed in as %s\n", u.Label())
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	out := cmd.OutOrStdout()
	u, ok := a.Auth.CurrentUser()
	if !ok {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}

	fmt.Fprintf(out, "%s <%s>\n", u.Label(), u.Email)
	fmt.Fprintf(out, "  uid:     %s\n", u.UID)
	fmt.Fprintf(out, "  backend: %s\n", backendLabel())

	// The server is the authority on whether a stored session still works
	if r, ok := a.Auth.(*auth.Remote); ok {
		if _, err := r.Client().Me(cmd.Context()); err != nil {
			if errors.Is(err, model.ErrUnauthenticated) {
				fmt.Fprintln(out, "  ⚠️  session expired, run 'vibe auth login' again")
				return nil
			}
			fmt.Fprintf(out, "  ⚠️  could not verify session: %v\n", err)
		}
	}
	return nil
}

func backendLabel() string {
	if cfg.Backend == config.BackendRemote {
		return cfg.Backend + " (" + cfg.ServerURL + ")"
	}
	return cfg.Backend
}

func prompt(out io.Writer, reader *bufio.Reader, label string) string {
	fmt.Fprint(out, label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// promptPassword reads without echo when stdin is a terminal
func promptPassword(out io.Writer, reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(io.Discard, reader, ""), nil
	}

	passwordBytes, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(passwordBytes), nil
}

// describeAuthError turns provider failures into user-facing messages
func describeAuthError(err error) error {
	var authErr *model.AuthError
	if !errors.As(err, &authErr) {
		return err
	}
	if reason := auth.ServerReason(err); reason != "" {
		return fmt.Errorf("❌ %s: %w", strings.TrimSuffix(reason, "."), err)
	}

	switch authErr.Kind {
	case model.AuthInvalidCredentials:
		return fmt.Errorf("❌ Invalid email or password: %w", err)
	case model.AuthPopupBlocked:
		return fmt.Errorf("❌ Google sign-in is not available; pass --id-token or set id_token_command: %w", err)
	case model.AuthCancelled:
		return fmt.Errorf("❌ Google sign-in was cancelled: %w", err)
	case model.AuthNetwork:
		return fmt.Errorf("❌ Could not reach the server: %w", err)
	}
	return err
}
