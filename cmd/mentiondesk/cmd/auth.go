package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mentiondesk/mentiondesk/internal/domain/session"
	"github.com/mentiondesk/mentiondesk/internal/service"
)

var (
	authEmail         string
	authPassword      string
	authPasswordStdin bool
	authName          string
	authCode          string
	authState         string
	authToken         string
	whoamiVerify      bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Long: `Sign in with email and password. The session is stored in the cookie jar
configured by session.store_path and reused by later commands until it expires.

Examples:
  # Read the password from stdin
  echo "$PASSWORD" | mentiondesk login --email you@example.com --password-stdin`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE:  runRegister,
}

var oauthCmd = &cobra.Command{
	Use:   "oauth-callback <provider>",
	Short: "Complete an OAuth sign-in (google, github, reddit)",
	Args:  cobra.ExactArgs(1),
	RunE:  runOAuthCallback,
}

var verifyEmailCmd = &cobra.Command{
	Use:   "verify-email <token>",
	Short: "Confirm an email address and sign in",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyEmail,
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset email",
	RunE:  runForgotPassword,
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password with a reset token and sign in",
	RunE:  runResetPassword,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session and cache",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&authPassword, "password", "", "account password (prefer --password-stdin)")
	loginCmd.Flags().BoolVar(&authPasswordStdin, "password-stdin", false, "read the password from stdin")
	_ = loginCmd.MarkFlagRequired("email")

	registerCmd.Flags().StringVar(&authName, "name", "", "display name")
	registerCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&authPassword, "password", "", "account password (prefer --password-stdin)")
	registerCmd.Flags().BoolVar(&authPasswordStdin, "password-stdin", false, "read the password from stdin")
	_ = registerCmd.MarkFlagRequired("email")

	oauthCmd.Flags().StringVar(&authCode, "code", "", "authorization code from the provider redirect")
	oauthCmd.Flags().StringVar(&authState, "state", "", "state parameter from the provider redirect")
	_ = oauthCmd.MarkFlagRequired("code")

	forgotPasswordCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	_ = forgotPasswordCmd.MarkFlagRequired("email")

	resetPasswordCmd.Flags().StringVar(&authToken, "token", "", "reset token from the email")
	resetPasswordCmd.Flags().StringVar(&authPassword, "password", "", "new password (prefer --password-stdin)")
	resetPasswordCmd.Flags().BoolVar(&authPasswordStdin, "password-stdin", false, "read the new password from stdin")
	_ = resetPasswordCmd.MarkFlagRequired("token")

	whoamiCmd.Flags().BoolVar(&whoamiVerify, "verify", false, "ask the server instead of the stored record")

	rootCmd.AddCommand(loginCmd, registerCmd, oauthCmd, verifyEmailCmd,
		forgotPasswordCmd, resetPasswordCmd, logoutCmd, whoamiCmd)
}

// password returns --password or, with --password-stdin, the first line of stdin.
func password(cmd *cobra.Command) (string, error) {
	if !authPasswordStdin {
		return authPassword, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printSignedIn(cmd *cobra.Command, user *session.User) error {
	return printOutput(cmd.OutOrStdout(), user, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Signed in as %s <%s>\n", user.Name, user.Email)
	})
}

func runLogin(cmd *cobra.Command, args []string) error {
	pw, err := password(cmd)
	if err != nil {
		return err
	}
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	user, err := a.Auth.Login(cmd.Context(), service.LoginInput{Email: authEmail, Password: pw})
	if err != nil {
		return err
	}
	return printSignedIn(cmd, user)
}

func runRegister(cmd *cobra.Command, args []string) error {
	pw, err := password(cmd)
	if err != nil {
		return err
	}
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	res, err := a.Auth.Register(cmd.Context(), service.RegisterInput{Name: authName, Email: authEmail, Password: pw})
	if err != nil {
		return err
	}
	if res.SignedIn {
		return printSignedIn(cmd, &res.User)
	}
	return printOutput(cmd.OutOrStdout(), res.User, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Account created for %s. Check your inbox to verify the address.\n", res.User.Email)
	})
}

func runOAuthCallback(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	user, err := a.Auth.OAuthCallback(cmd.Context(), service.OAuthCallbackInput{
		Provider: args[0],
		Code:     authCode,
		State:    authState,
	})
	if err != nil {
		return err
	}
	return printSignedIn(cmd, user)
}

func runVerifyEmail(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	user, err := a.Auth.VerifyEmail(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printSignedIn(cmd, user)
}

func runForgotPassword(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Auth.RequestPasswordReset(cmd.Context(), authEmail); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "If the address is registered, a reset link is on its way.")
	return nil
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	pw, err := password(cmd)
	if err != nil {
		return err
	}
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	user, err := a.Auth.ResetPassword(cmd.Context(), service.ResetPasswordInput{Token: authToken, NewPassword: pw})
	if err != nil {
		return err
	}
	return printSignedIn(cmd, user)
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Auth.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, whoamiVerify)
	if err != nil {
		return err
	}
	defer closeApp(a)

	var user *session.User
	if whoamiVerify {
		if err := requireSession(a); err != nil {
			return err
		}
		_, user = a.Lifecycle.Current()
	} else {
		// Token settles an expired session without a server round trip.
		value, err := a.Lifecycle.Token(cmd.Context())
		if err != nil {
			return err
		}
		if value == "" {
			return errNotSignedIn
		}
		tok, err := a.Tokens.Load(cmd.Context())
		if err != nil {
			return err
		}
		user = &tok.User
	}
	return printOutput(cmd.OutOrStdout(), user, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "ID:\t%s\n", user.ID)
		fmt.Fprintf(tw, "Name:\t%s\n", user.Name)
		fmt.Fprintf(tw, "Email:\t%s\n", user.Email)
	})
}
