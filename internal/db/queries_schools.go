package db

import (
	"database/sql"

	"github.com/YannKr/brandportal/internal/model"
)

func CreateSchool(database *sql.DB, s *model.School) error {
	_, err := database.Exec(
		`INSERT INTO schools (id, name, email, contact_number, logo_path) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Email, s.ContactNumber, s.LogoPath,
	)
	return err
}

// GetSchool returns nil, nil when no school has the id.
func GetSchool(database *sql.DB, id string) (*model.School, error) {
	s := &model.School{}
	var createdAt SQLiteTime
	err := database.QueryRow(
		`SELECT id, name, email, contact_number, logo_path, created_at FROM schools WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Email, &s.ContactNumber, &s.LogoPath, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	s.CreatedAt = createdAt.Time
	return s, err
}

func ListSchools(database *sql.DB) ([]model.School, error) {
	rows, err := database.Query(
		`SELECT id, name, email, contact_number, logo_path, created_at
		 FROM schools ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schools []model.School
	for rows.Next() {
		var s model.School
		var createdAt SQLiteTime
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.ContactNumber, &s.LogoPath, &createdAt); err != nil {
			return nil, err
		}
		s.CreatedAt = createdAt.Time
		schools = append(schools, s)
	}
	return schools, rows.Err()
}

// GetSchools returns the schools with the given ids in the order given.
// Unknown ids are reported in missing.
func GetSchools(database *sql.DB, ids []string) (found []model.School, missing []string, err error) {
	for _, id := range ids {
		s, err := GetSchool(database, id)
		if err != nil {
			return nil, nil, err
		}
		if s == nil {
			missing = append(missing, id)
			continue
		}
		found = append(found, *s)
	}
	return found, missing, nil
}

func UpdateSchoolLogo(database *sql.DB, id, logoPath string) error {
	_, err := database.Exec(`UPDATE schools SET logo_path = ? WHERE id = ?`, logoPath, id)
	return err
}

func DeleteSchool(database *sql.DB, id string) error {
	_, err := database.Exec(`DELETE FROM schools WHERE id = ?`, id)
	return err
}
