package entities

import "time"

// FetchStatus represents the state of a fetch request. Pending requests are
// still running; every other status is terminal.
type FetchStatus string

const (
	FetchStatusPending   FetchStatus = "pending"
	FetchStatusCompleted FetchStatus = "completed"
	FetchStatusNoScene   FetchStatus = "no_scene"
	FetchStatusNoAssets  FetchStatus = "no_assets"
	FetchStatusFailed    FetchStatus = "failed"
)

// FetchRequest is the persisted record of one locate-and-download run
type FetchRequest struct {
	ID            string      `json:"id" db:"id"`
	Collection    Collection  `json:"collection" db:"collection"`
	Longitude     float64     `json:"lon" db:"lon"`
	Latitude      float64     `json:"lat" db:"lat"`
	QueryDate     time.Time   `json:"query_date" db:"query_date"`
	WindowDays    int         `json:"window_days" db:"window_days"`
	MaxCloudCover *float64    `json:"max_cloud_cover,omitempty" db:"max_cloud_cover"`
	SceneID       *string     `json:"scene_id,omitempty" db:"scene_id"`
	Status        FetchStatus `json:"status" db:"status"`
	Report        string      `json:"report" db:"report"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
}
