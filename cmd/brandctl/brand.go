package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YannKr/brandportal/internal/db"
	"github.com/YannKr/brandportal/internal/handler"
	"github.com/YannKr/brandportal/internal/model"
	"github.com/YannKr/brandportal/internal/watermark"
)

var brandCmd = &cobra.Command{
	Use:   "brand",
	Short: "Write a branded copy of a resource for one school",
	Long:  "Brands a stored resource with a school's logo and identity using the school's effective layout (its own, the resource template, or the default).",
	RunE:  runBrand,
}

var (
	brandResource string
	brandSchool   string
	brandOutput   string
)

func init() {
	brandCmd.Flags().StringVarP(&brandResource, "resource", "r", "", "Resource id (required)")
	brandCmd.Flags().StringVarP(&brandSchool, "school", "s", "", "School id (required)")
	brandCmd.Flags().StringVarP(&brandOutput, "out", "o", "", "Output file (defaults to the resource name)")

	if err := brandCmd.MarkFlagRequired("resource"); err != nil {
		panic(fmt.Sprintf("failed to mark resource flag as required: %v", err))
	}
	if err := brandCmd.MarkFlagRequired("school"); err != nil {
		panic(fmt.Sprintf("failed to mark school flag as required: %v", err))
	}

	rootCmd.AddCommand(brandCmd)
}

func runBrand(cmd *cobra.Command, _ []string) error {
	h, err := openPortal()
	if err != nil {
		return err
	}
	defer h.DB.Close()

	res, school, err := lookup(h, brandResource, brandSchool)
	if err != nil {
		return err
	}
	art, err := brandOne(cmd, h, res, school, false)
	if err != nil {
		return err
	}
	defer art.Close()

	out, err := writeArtifact(art, brandOutput, res.Name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (branded=%t)\n", out, art.Branded)
	return nil
}

// lookup loads a resource and, when schoolID is set, a school.
func lookup(h *handler.Handler, resourceID, schoolID string) (*model.Resource, *model.School, error) {
	res, err := db.GetResource(h.DB, resourceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load resource: %w", err)
	}
	if res == nil {
		return nil, nil, fmt.Errorf("resource %q not found", resourceID)
	}
	if schoolID == "" {
		return res, nil, nil
	}
	school, err := db.GetSchool(h.DB, schoolID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load school: %w", err)
	}
	if school == nil {
		return nil, nil, fmt.Errorf("school %q not found", schoolID)
	}
	return res, school, nil
}

func brandOne(cmd *cobra.Command, h *handler.Handler, res *model.Resource, school *model.School, preview bool) (*watermark.Artifact, error) {
	req := watermark.Request{
		Source: watermark.SourceAsset{
			StoredPath: res.FilePath,
			Category:   res.Category,
			MediaType:  res.FileType,
			Name:       res.Name,
			Size:       res.FileSize,
		},
		Preview: preview,
	}
	schoolID := ""
	if school != nil {
		schoolID = school.ID
		req.Context = watermark.BrandingContext{
			DisplayName: school.Name,
			ContactLine: watermark.ContactLine(school.Email, school.ContactNumber),
			LogoPath:    school.LogoPath,
		}
	}
	p, _, err := db.EffectiveLayout(h.DB, schoolID, res.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}
	req.Profile = p
	return h.Engine.Brand(cmd.Context(), req)
}
