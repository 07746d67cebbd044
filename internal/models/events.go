package models

import "time"

// Event types
const (
	EventTypeCatalogIngested = "CATALOG_INGESTED"
	EventTypeUserRegistered  = "USER_REGISTERED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CatalogIngestedEvent published after a product file has been persisted
type CatalogIngestedEvent struct {
	BaseEvent
	Source       string   `json:"source"`
	Checksum     string   `json:"checksum"`
	ProductCount int      `json:"product_count"`
	Categories   []string `json:"categories"`
}

// UserRegisteredEvent published when a new account is created
type UserRegisteredEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}
