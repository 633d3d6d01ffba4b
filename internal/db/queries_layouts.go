package db

import (
	"database/sql"
	"time"

	"github.com/YannKr/brandportal/internal/layout"
)

// LayoutSource tells where an effective profile came from.
type LayoutSource string

const (
	LayoutOwn      LayoutSource = "school"
	LayoutTemplate LayoutSource = "template"
	LayoutDefault  LayoutSource = "default"
)

// UpsertLayout stores p for (recipientID, resourceID), replacing any previous
// profile. Callers validate p first.
func UpsertLayout(database *sql.DB, recipientID, resourceID string, p layout.Profile) error {
	_, err := database.Exec(
		`INSERT INTO layout_profiles (recipient_id, resource_id,
			logo_x, logo_y, logo_width, logo_opacity,
			school_name_x, school_name_y, school_name_size, school_name_opacity,
			contact_x, contact_y, contact_size, contact_opacity, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (recipient_id, resource_id) DO UPDATE SET
			logo_x = excluded.logo_x, logo_y = excluded.logo_y,
			logo_width = excluded.logo_width, logo_opacity = excluded.logo_opacity,
			school_name_x = excluded.school_name_x, school_name_y = excluded.school_name_y,
			school_name_size = excluded.school_name_size, school_name_opacity = excluded.school_name_opacity,
			contact_x = excluded.contact_x, contact_y = excluded.contact_y,
			contact_size = excluded.contact_size, contact_opacity = excluded.contact_opacity,
			updated_at = excluded.updated_at`,
		recipientID, resourceID,
		p.Logo.X, p.Logo.Y, p.Logo.Width, p.Logo.Opacity,
		p.Identity.X, p.Identity.Y, p.Identity.FontSize, p.Identity.Opacity,
		p.Contact.X, p.Contact.Y, p.Contact.FontSize, p.Contact.Opacity,
		time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
	)
	return err
}

// GetLayout returns the stored profile for exactly (recipientID, resourceID),
// or nil when none was saved.
func GetLayout(database *sql.DB, recipientID, resourceID string) (*layout.Profile, error) {
	var p layout.Profile
	err := database.QueryRow(
		`SELECT logo_x, logo_y, logo_width, logo_opacity,
			school_name_x, school_name_y, school_name_size, school_name_opacity,
			contact_x, contact_y, contact_size, contact_opacity
		 FROM layout_profiles WHERE recipient_id = ? AND resource_id = ?`,
		recipientID, resourceID,
	).Scan(
		&p.Logo.X, &p.Logo.Y, &p.Logo.Width, &p.Logo.Opacity,
		&p.Identity.X, &p.Identity.Y, &p.Identity.FontSize, &p.Identity.Opacity,
		&p.Contact.X, &p.Contact.Y, &p.Contact.FontSize, &p.Contact.Opacity,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EffectiveLayout returns the profile a school sees for a resource: its own,
// then the resource template, then the default. Absence is never an error.
func EffectiveLayout(database *sql.DB, schoolID, resourceID string) (layout.Profile, LayoutSource, error) {
	if schoolID != "" && schoolID != layout.TemplateRecipient {
		p, err := GetLayout(database, schoolID, resourceID)
		if err != nil {
			return layout.Profile{}, "", err
		}
		if p != nil {
			return *p, LayoutOwn, nil
		}
	}
	p, err := GetLayout(database, layout.TemplateRecipient, resourceID)
	if err != nil {
		return layout.Profile{}, "", err
	}
	if p != nil {
		return *p, LayoutTemplate, nil
	}
	return layout.Default(), LayoutDefault, nil
}

// DeleteLayout resets (recipientID, resourceID) to whatever applies next.
func DeleteLayout(database *sql.DB, recipientID, resourceID string) error {
	_, err := database.Exec(
		`DELETE FROM layout_profiles WHERE recipient_id = ? AND resource_id = ?`,
		recipientID, resourceID,
	)
	return err
}

// PruneOrphanLayouts removes profiles of schools that no longer exist. The
// template rows are kept.
func PruneOrphanLayouts(database *sql.DB) (int64, error) {
	res, err := database.Exec(
		`DELETE FROM layout_profiles
		 WHERE recipient_id != ? AND recipient_id NOT IN (SELECT id FROM schools)`,
		layout.TemplateRecipient,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
