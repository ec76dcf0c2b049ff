package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// SyncEventType represents a schedule synchronization lifecycle step
type SyncEventType string

const (
	SyncEventLoading    SyncEventType = "loading"
	SyncEventRefreshing SyncEventType = "refreshing"
	SyncEventLoaded     SyncEventType = "loaded"
	SyncEventFailed     SyncEventType = "failed"
)

// SyncEvent is pushed to console subscribers whenever the snapshot state changes
type SyncEvent struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	EventType SyncEventType `json:"event_type"`
	Timestamp time.Time     `json:"timestamp"`
	Date      string        `json:"date"`
	Range     ScheduleRange `json:"range"`
	Version   uint64        `json:"version"`
	Error     string        `json:"error,omitempty"`
}

// NewSyncEvent creates a new sync event
func NewSyncEvent(sessionID string, eventType SyncEventType, query ScheduleQuery, version uint64) *SyncEvent {
	return &SyncEvent{
		ID:        generateEventID(),
		SessionID: sessionID,
		EventType: eventType,
		Timestamp: time.Now(),
		Date:      query.Date,
		Range:     query.Range,
		Version:   version,
	}
}

func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

func randomString(length int) string {
	b := make([]byte, length/2+1)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(b)[:length]
}
