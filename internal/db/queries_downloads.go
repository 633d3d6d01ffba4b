package db

import (
	"database/sql"

	"github.com/YannKr/brandportal/internal/model"
)

// RecordDownload logs a school download and bumps the resource counter in
// one transaction.
func RecordDownload(database *sql.DB, d *model.Download) error {
	tx, err := database.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO resource_downloads (id, resource_id, school_id, school_name, branded) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.ResourceID, d.SchoolID, d.SchoolName, d.Branded,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`UPDATE resources SET download_count = download_count + 1 WHERE id = ?`, d.ResourceID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func ListDownloads(database *sql.DB, resourceID string) ([]model.Download, error) {
	rows, err := database.Query(
		`SELECT id, resource_id, school_id, school_name, branded, downloaded_at
		 FROM resource_downloads WHERE resource_id = ? ORDER BY downloaded_at DESC`,
		resourceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Download
	for rows.Next() {
		var d model.Download
		var at SQLiteTime
		if err := rows.Scan(&d.ID, &d.ResourceID, &d.SchoolID, &d.SchoolName, &d.Branded, &at); err != nil {
			return nil, err
		}
		d.DownloadedAt = at.Time
		out = append(out, d)
	}
	return out, rows.Err()
}
