package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// DownloadEventType represents the type of download progress event
type DownloadEventType string

const (
	DownloadEventSceneSelected DownloadEventType = "scene_selected"
	DownloadEventSceneMissing  DownloadEventType = "scene_missing"
	DownloadEventAssetQueued   DownloadEventType = "asset_queued"
	DownloadEventAssetDone     DownloadEventType = "asset_done"
	DownloadEventAssetFailed   DownloadEventType = "asset_failed"
)

// DownloadEvent is a real-time progress update for one fetch request
type DownloadEvent struct {
	ID        string                 `json:"id"`
	RequestID string                 `json:"request_id"`
	SceneID   string                 `json:"scene_id,omitempty"`
	Role      string                 `json:"role,omitempty"`
	EventType DownloadEventType      `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Detail    map[string]interface{} `json:"detail,omitempty"`
}

// NewDownloadEvent creates a new download progress event
func NewDownloadEvent(requestID, sceneID, role string, eventType DownloadEventType, detail map[string]interface{}) *DownloadEvent {
	return &DownloadEvent{
		ID:        generateEventID(),
		RequestID: requestID,
		SceneID:   sceneID,
		Role:      role,
		EventType: eventType,
		Timestamp: time.Now(),
		Detail:    detail,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
