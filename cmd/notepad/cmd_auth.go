package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"notepad/pkg/services"
)

var (
	registerEmail string

	// piped input is shared so consecutive prompts read consecutive lines
	stdinLines *bufio.Reader

	registerCmd = &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword(cmd, "Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			a := openCLI(cfg)
			defer a.Close()

			user, err := a.auth.Register(services.RegisterRequest{
				Username: args[0],
				Password: password,
				Email:    registerEmail,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", user.Username)
			return nil
		},
	}

	loginCmd = &cobra.Command{
		Use:   "login <username>",
		Short: "Check credentials and remember the user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}

			a := openCLI(cfg)
			defer a.Close()

			session, err := a.auth.Login(services.LoginRequest{Username: args[0], Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", session.Username)
			return nil
		},
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openCLI(cfg)
			defer a.Close()

			user, ok := a.auth.CurrentUser()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err := a.auth.ForgetCurrentUser(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", user)
			return nil
		},
	}
)

func init() {
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "optional email address")
}

// readPassword prompts without echo on a terminal and reads a plain line otherwise
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	if stdinLines == nil {
		stdinLines = bufio.NewReader(cmd.InOrStdin())
	}
	line, err := stdinLines.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
