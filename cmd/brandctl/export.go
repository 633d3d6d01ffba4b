package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/YannKr/brandportal/internal/db"
	"github.com/YannKr/brandportal/internal/export"
	"github.com/YannKr/brandportal/internal/model"
	"github.com/YannKr/brandportal/internal/watermark"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a zip of branded copies for many schools",
	Long:  "Brands a resource once per school and packs the copies into one archive, one folder per school. Schools that fail are reported and left out.",
	RunE:  runExport,
}

var (
	exportResource string
	exportSchools  []string
	exportOutput   string
)

func init() {
	exportCmd.Flags().StringVarP(&exportResource, "resource", "r", "", "Resource id (required)")
	exportCmd.Flags().StringSliceVarP(&exportSchools, "school", "s", nil, "School ids (repeatable; all schools when omitted)")
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", "", "Output zip file (required)")

	if err := exportCmd.MarkFlagRequired("resource"); err != nil {
		panic(fmt.Sprintf("failed to mark resource flag as required: %v", err))
	}
	if err := exportCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	h, err := openPortal()
	if err != nil {
		return err
	}
	defer h.DB.Close()

	res, _, err := lookup(h, exportResource, "")
	if err != nil {
		return err
	}

	var schools []model.School
	if len(exportSchools) == 0 {
		schools, err = db.ListSchools(h.DB)
	} else {
		var missing []string
		schools, missing, err = db.GetSchools(h.DB, exportSchools)
		if err == nil && len(missing) > 0 {
			return fmt.Errorf("unknown schools: %v", missing)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to load schools: %w", err)
	}
	if len(schools) == 0 {
		return fmt.Errorf("no schools to export for")
	}

	recipients := make([]export.Recipient, 0, len(schools))
	for _, s := range schools {
		p, _, err := db.EffectiveLayout(h.DB, s.ID, res.ID)
		if err != nil {
			return fmt.Errorf("failed to load layout for %s: %w", s.ID, err)
		}
		recipients = append(recipients, export.Recipient{
			ID:   s.ID,
			Name: s.Name,
			Context: watermark.BrandingContext{
				DisplayName: s.Name,
				ContactLine: watermark.ContactLine(s.Email, s.ContactNumber),
				LogoPath:    s.LogoPath,
			},
			Profile: p,
		})
	}

	src := watermark.SourceAsset{
		StoredPath: res.FilePath,
		Category:   res.Category,
		MediaType:  res.FileType,
		Name:       res.Name,
		Size:       res.FileSize,
	}
	result, err := h.Exporter.Export(cmd.Context(), src, recipients)
	if err != nil {
		return err
	}
	defer result.Archive.Close()

	out, err := writeArtifact(result.Archive, exportOutput, res.Name)
	if err != nil {
		return err
	}
	size, _ := result.Archive.Size()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %d entries, %s\n", out, len(result.Entries), humanize.Bytes(uint64(size)))
	for _, s := range result.Skipped {
		fmt.Fprintf(w, "skipped %s (%s): %s\n", s.Name, s.RecipientID, s.Reason)
	}
	return nil
}
