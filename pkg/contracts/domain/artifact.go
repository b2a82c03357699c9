package domain

// ChartArtifact identifies one rendered chart on disk. Regenerating a
// unit of work overwrites its artifact in place.
type ChartArtifact struct {
	LocationID string `json:"location_id"`
	Year       int    `json:"year"`
	Sensor     string `json:"sensor"`
	Path       string `json:"path"`
	Points     int    `json:"points"`
}
