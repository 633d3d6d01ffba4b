package model

import "time"

// Resource categories.
const (
	CategoryAcademic       = "academic"
	CategoryMarketing      = "marketing"
	CategoryAdministrative = "administrative"
	CategoryTraining       = "training"
	CategoryEvent          = "event"
	CategoryMultimedia     = "multimedia"
)

var Categories = []string{
	CategoryAcademic,
	CategoryMarketing,
	CategoryAdministrative,
	CategoryTraining,
	CategoryEvent,
	CategoryMultimedia,
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type Resource struct {
	ID             string
	Name           string
	Description    string
	Category       string
	FilePath       string // stored path, e.g. /uploads/resources/academic/<id>.pdf
	FileType       string // declared media type
	FileSize       int64
	UploadedByType string // admin or school
	ApprovalStatus string
	DownloadCount  int
	CreatedAt      time.Time
}

type School struct {
	ID            string
	Name          string
	Email         string
	ContactNumber string
	LogoPath      string
	CreatedAt     time.Time
}

type Download struct {
	ID           string
	ResourceID   string
	SchoolID     string
	SchoolName   string
	Branded      bool
	DownloadedAt time.Time
}
