package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Write a preview of a resource",
	Long:  "Like brand, but a missing or unreadable source yields a placeholder image showing where each block would be drawn.",
	RunE:  runPreview,
}

var (
	previewResource string
	previewSchool   string
	previewOutput   string
)

func init() {
	previewCmd.Flags().StringVarP(&previewResource, "resource", "r", "", "Resource id (required)")
	previewCmd.Flags().StringVarP(&previewSchool, "school", "s", "", "School id to brand the preview for")
	previewCmd.Flags().StringVarP(&previewOutput, "out", "o", "", "Output file (defaults to the resource name)")

	if err := previewCmd.MarkFlagRequired("resource"); err != nil {
		panic(fmt.Sprintf("failed to mark resource flag as required: %v", err))
	}

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, _ []string) error {
	h, err := openPortal()
	if err != nil {
		return err
	}
	defer h.DB.Close()

	res, school, err := lookup(h, previewResource, previewSchool)
	if err != nil {
		return err
	}
	art, err := brandOne(cmd, h, res, school, true)
	if err != nil {
		return err
	}
	defer art.Close()

	out, err := writeArtifact(art, previewOutput, res.Name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (placeholder=%t)\n", out, art.Placeholder)
	return nil
}
