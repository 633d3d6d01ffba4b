package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YannKr/brandportal/internal/storage"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show where a stored path resolves on disk",
	Long:  "Prints every candidate location tried for a stored path, in order, marking the one that exists.",
	RunE:  runResolve,
}

var (
	resolvePath     string
	resolveCategory string
)

func init() {
	resolveCmd.Flags().StringVarP(&resolvePath, "path", "p", "", "Stored path, e.g. /uploads/resources/academic/x.pdf (required)")
	resolveCmd.Flags().StringVarP(&resolveCategory, "category", "c", "", "Resource category for the fallback location")

	if err := resolveCmd.MarkFlagRequired("path"); err != nil {
		panic(fmt.Sprintf("failed to mark path flag as required: %v", err))
	}

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	resolver, err := storage.NewResolver(loadConfig().DataDir)
	if err != nil {
		return err
	}
	found, resolveErr := resolver.Resolve(resolvePath, resolveCategory)

	fmt.Fprintf(cmd.ErrOrStderr(), "root: %s\n", resolver.Root())
	w := cmd.OutOrStdout()
	for _, c := range resolver.Candidates(resolvePath, resolveCategory) {
		mark := " "
		if c == found {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s\n", mark, c)
	}
	return resolveErr
}
