package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlowdi/jobsearcher/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage API keys in the OS keychain",
}

var secretsSetCmd = &cobra.Command{
	Use:   "set <account>",
	Short: "Store a secret; the value is read from --value or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, _ := cmd.Flags().GetString("value")
		if value == "" {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no secret given on stdin")
			}
			value = strings.TrimSpace(line)
		}
		if err := secrets.Set(args[0], value); err != nil {
			return err
		}
		fmt.Printf("stored %q in keychain service %q\n", args[0], secrets.KeyringService)
		return nil
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete <account>",
	Short: "Remove a secret from the keychain",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := secrets.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %q\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(secretsCmd)
	secretsCmd.AddCommand(secretsSetCmd, secretsDeleteCmd)

	secretsSetCmd.Flags().String("value", "", "secret value (prefer stdin to keep it out of shell history)")
}
