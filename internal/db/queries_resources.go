package db

import (
	"database/sql"

	"github.com/YannKr/brandportal/internal/model"
)

const resourceColumns = `id, name, description, category, file_path, file_type, file_size,
	uploaded_by_type, approval_status, download_count, created_at`

func scanResource(row interface{ Scan(...any) error }) (*model.Resource, error) {
	r := &model.Resource{}
	var createdAt SQLiteTime
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Category, &r.FilePath, &r.FileType, &r.FileSize,
		&r.UploadedByType, &r.ApprovalStatus, &r.DownloadCount, &createdAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = createdAt.Time
	return r, nil
}

func CreateResource(database *sql.DB, r *model.Resource) error {
	if r.UploadedByType == "" {
		r.UploadedByType = "admin"
	}
	if r.ApprovalStatus == "" {
		r.ApprovalStatus = "approved"
	}
	_, err := database.Exec(
		`INSERT INTO resources (id, name, description, category, file_path, file_type, file_size, uploaded_by_type, approval_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Description, r.Category, r.FilePath, r.FileType, r.FileSize, r.UploadedByType, r.ApprovalStatus,
	)
	return err
}

// GetResource returns nil, nil when no resource has the id.
func GetResource(database *sql.DB, id string) (*model.Resource, error) {
	r, err := scanResource(database.QueryRow(`SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ListResources lists resources newest first. An empty category lists all.
func ListResources(database *sql.DB, category string) ([]model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := database.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func DeleteResource(database *sql.DB, id string) error {
	_, err := database.Exec(`DELETE FROM resources WHERE id = ?`, id)
	return err
}
