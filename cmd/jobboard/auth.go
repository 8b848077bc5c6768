package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-board-client/internal/config"
	"github.com/jonathan/job-board-client/internal/observability"
	"github.com/jonathan/job-board-client/internal/types"
)

var (
	loginUsername string
	loginPassword string

	registerFile string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and share the session with every other tab of the profile",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out of the profile everywhere",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user of the profile",
	RunE:  runWhoami,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a candidate or employer account",
	Long:  "Create an account from a JSON registration form (role, email, password, first_name, last_name, phone, and age or company_name).",
	RunE:  runRegister,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Account username or email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password (defaults to JOBBOARD_PASSWORD)")
	_ = loginCmd.MarkFlagRequired("username")

	registerCmd.Flags().StringVarP(&registerFile, "in", "i", "", "Path to the registration JSON")
	_ = registerCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, registerCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	password := loginPassword
	if password == "" {
		password = os.Getenv("JOBBOARD_PASSWORD")
	}
	if password == "" {
		return errors.New("password is required (use --password or set JOBBOARD_PASSWORD)")
	}

	ctx := contextOrBackground(cmd)
	return withApp(ctx, func(a *app) error {
		token, user, err := a.auth.SignIn(ctx, loginUsername, password)
		if err != nil {
			return err
		}
		s, err := a.session(ctx, nil)
		if err != nil {
			return err
		}
		if err := s.Login(ctx, token, user); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		if a.cfg.StorageBackend == config.BackendMemory {
			a.logger.Warn("memory storage ends with this process, set STORAGE_BACKEND=redis or postgres to keep the session")
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintUser(user)
		return nil
	})
}

func runLogout(cmd *cobra.Command, _ []string) error {
	ctx := contextOrBackground(cmd)
	return withApp(ctx, func(a *app) error {
		s, err := a.session(ctx, nil)
		if err != nil {
			return err
		}
		s.Logout(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	})
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	ctx := contextOrBackground(cmd)
	return withApp(ctx, func(a *app) error {
		s, err := a.session(ctx, nil)
		if err != nil {
			return err
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintUser(s.CurrentUser())
		return nil
	})
}

func runRegister(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(registerFile)
	if err != nil {
		return fmt.Errorf("failed to read registration form: %w", err)
	}
	var req types.RegisterRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("failed to parse registration form: %w", err)
	}

	ctx := contextOrBackground(cmd)
	return withApp(ctx, func(a *app) error {
		created, err := a.auth.Register(ctx, &req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s account %s\n%s\n", req.Role, req.Email, created)
		return nil
	})
}
