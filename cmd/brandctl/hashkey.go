package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YannKr/brandportal/internal/auth"
)

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [key]",
	Short: "Generate or hash an admin key for ADMIN_KEY_HASH",
	Long:  "Hashes the given admin key, or generates a new one when none is given, and prints the ADMIN_KEY_HASH line for the server's environment.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHashKey,
}

func init() {
	rootCmd.AddCommand(hashKeyCmd)
}

func runHashKey(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		var err error
		if key, err = auth.NewKey(); err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		fmt.Fprintf(w, "key: %s\n", key)
	}
	hash, err := auth.HashKey(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "ADMIN_KEY_HASH=%s\n", hash)
	return nil
}
