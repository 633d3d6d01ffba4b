package db_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/brandportal"
	"github.com/YannKr/brandportal/internal/db"
	"github.com/YannKr/brandportal/internal/layout"
	"github.com/YannKr/brandportal/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database, brandportal.MigrationFS))
	return database
}

func seedResource(t *testing.T, database *sql.DB, id string) {
	t.Helper()
	require.NoError(t, db.CreateResource(database, &model.Resource{
		ID:       id,
		Name:     "Resource " + id,
		Category: model.CategoryAcademic,
		FilePath: "/uploads/resources/academic/" + id + ".pdf",
		FileType: "application/pdf",
		FileSize: 1024,
	}))
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, db.Migrate(database, brandportal.MigrationFS))

	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestResourceRoundTrip(t *testing.T) {
	database := openTestDB(t)
	seedResource(t, database, "r1")

	r, err := db.GetResource(database, "r1")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "admin", r.UploadedByType)
	assert.Equal(t, "approved", r.ApprovalStatus)
	assert.False(t, r.CreatedAt.IsZero())

	missing, err := db.GetResource(database, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := db.ListResources(database, model.CategoryMarketing)
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = db.ListResources(database, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEffectiveLayoutFallbacks(t *testing.T) {
	database := openTestDB(t)
	seedResource(t, database, "r1")

	p, src, err := db.EffectiveLayout(database, "s1", "r1")
	require.NoError(t, err)
	assert.Equal(t, db.LayoutDefault, src)
	assert.Equal(t, layout.Default(), p)

	tmpl := layout.Default()
	tmpl.Logo.X = 10
	require.NoError(t, db.UpsertLayout(database, layout.TemplateRecipient, "r1", tmpl))
	p, src, err = db.EffectiveLayout(database, "s1", "r1")
	require.NoError(t, err)
	assert.Equal(t, db.LayoutTemplate, src)
	assert.Equal(t, tmpl, p)

	own := layout.Default()
	own.Contact.FontSize = 18
	require.NoError(t, db.UpsertLayout(database, "s1", "r1", own))
	p, src, err = db.EffectiveLayout(database, "s1", "r1")
	require.NoError(t, err)
	assert.Equal(t, db.LayoutOwn, src)
	assert.Equal(t, own, p)

	own.Contact.FontSize = 9
	require.NoError(t, db.UpsertLayout(database, "s1", "r1", own))
	p, _, err = db.EffectiveLayout(database, "s1", "r1")
	require.NoError(t, err)
	assert.Equal(t, 9.0, p.Contact.FontSize, "last write wins")

	require.NoError(t, db.DeleteLayout(database, "s1", "r1"))
	_, src, err = db.EffectiveLayout(database, "s1", "r1")
	require.NoError(t, err)
	assert.Equal(t, db.LayoutTemplate, src)
}

func TestRecordDownloadIncrementsCount(t *testing.T) {
	database := openTestDB(t)
	seedResource(t, database, "r1")

	for _, id := range []string{"d1", "d2"} {
		require.NoError(t, db.RecordDownload(database, &model.Download{
			ID: id, ResourceID: "r1", SchoolID: "s1", SchoolName: "Alpha", Branded: true,
		}))
	}

	r, err := db.GetResource(database, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, r.DownloadCount)

	ds, err := db.ListDownloads(database, "r1")
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.True(t, ds[0].Branded)
}

func TestGetSchoolsReportsMissing(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, db.CreateSchool(database, &model.School{ID: "s2", Name: "Beta"}))
	require.NoError(t, db.CreateSchool(database, &model.School{ID: "s1", Name: "Alpha", Email: "a@x.org"}))

	found, missing, err := db.GetSchools(database, []string{"s2", "zz", "s1"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "s2", found[0].ID)
	assert.Equal(t, []string{"zz"}, missing)

	all, err := db.ListSchools(database)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", all[0].Name)
}
