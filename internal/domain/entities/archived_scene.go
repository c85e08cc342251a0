package entities

// ArchivedScene is the search-index projection of a scene that produced at
// least one successful download. Acquired and DownloadedAt are unix seconds;
// Location is [lat, lon] as the index's geopoint type expects.
type ArchivedScene struct {
	ID           string    `json:"id"`
	SceneID      string    `json:"scene_id"`
	Collection   string    `json:"collection"`
	Mission      string    `json:"mission"`
	Acquired     int64     `json:"acquired"`
	CloudCover   float64   `json:"cloud_cover"`
	Location     []float64 `json:"location"`
	Roles        []string  `json:"roles"`
	Paths        []string  `json:"paths"`
	DownloadedAt int64     `json:"downloaded_at"`
}
