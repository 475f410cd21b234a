package main

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/authutil"
)

// hashPasscodeCommand prints a bcrypt hash for COMANDO_PASSCODE_HASH. The
// passcode is read from the first line of stdin.
func hashPasscodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-passcode",
		Short: "Hash the command passcode read from stdin",
		// No config needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no passcode on stdin")
			}
			passcode := strings.TrimRight(line, "\r\n")
			if passcode == "" {
				return errors.New("passcode must not be empty")
			}
			hash, err := authutil.HashPasscode(passcode)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

// sessionKeyCommand prints a random key suitable for COMANDO_SESSION_KEY.
func sessionKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "session-key",
		Short:             "Generate a random session signing key",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			key := securecookie.GenerateRandomKey(32)
			if key == nil {
				return errors.New("could not read random bytes")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), base64.RawURLEncoding.EncodeToString(key))
			return err
		},
	}
}
