package admincli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/totymark/totymark/internal/common"
	"github.com/totymark/totymark/internal/server/auth"
	"github.com/totymark/totymark/internal/server/services"
)

func newUsersCmd(env *Env, cfgPath *string) *cobra.Command {
	c := &cobra.Command{Use: "users", Short: "Manage user accounts"}
	c.AddCommand(newUsersCreateCmd(env, cfgPath))
	c.AddCommand(newUsersSetActiveCmd(env, cfgPath, "activate", true))
	c.AddCommand(newUsersSetActiveCmd(env, cfgPath, "deactivate", false))
	return c
}

func newUsersCreateCmd(env *Env, cfgPath *string) *cobra.Command {
	var name, email, fullName string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an active user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" {
				return fmt.Errorf("--username and --email are required")
			}

			pw, err := readSecret(cmd, passwordStdin)
			if err != nil {
				return err
			}

			svc, release, err := env.Open(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer release()

			u, err := svc.Register(cmd.Context(), services.RegisterInput{
				UserName: name,
				Email:    email,
				FullName: fullName,
				Password: pw,
			})
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %s)\n", u.UserName, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "username", "", "User name")
	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.Flags().StringVar(&fullName, "full-name", "", "Display name")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin instead of prompting")
	return cmd
}

func newUsersSetActiveCmd(env *Env, cfgPath *string, verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <username>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := env.Open(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer release()

			if err := svc.SetActive(cmd.Context(), args[0], active); err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sd %s\n", verb, args[0])
			return nil
		},
	}
}

func newHashCmd(env *Env) *cobra.Command {
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the argon2id encoding of a password",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd, passwordStdin)
			if err != nil {
				return err
			}
			h, err := auth.NewHasher(auth.DefaultArgon)
			if err != nil {
				return err
			}
			enc, err := h.Hash(pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), enc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin instead of prompting")
	return cmd
}

func describe(err error) error {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		return errors.New(verr.Reason)
	case errors.Is(err, common.ErrDuplicateUsername):
		return errors.New("username already registered")
	case errors.Is(err, common.ErrorNotFound):
		return errors.New("no such user")
	default:
		return err
	}
}

func readSecret(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		return readLine(cmd.InOrStdin())
	}
	pw, err := GetPassword(cmd.ErrOrStderr(), "Password: ")
	if err != nil {
		return "", err
	}
	again, err := GetPassword(cmd.ErrOrStderr(), "Repeat password: ")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}
