package models

import "time"

// Change event types, named after the row operation that produced them.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// TableNotes is the only watched table.
const TableNotes = "notes"

// RowRef identifies a row that no longer exists.
type RowRef struct {
	ID string `json:"id"`
}

// ChangeEvent notifies subscribers that a row in a watched table changed.
type ChangeEvent struct {
	Table           string    `json:"table"`
	Type            string    `json:"type"`
	Record          *Note     `json:"record"`
	OldRecord       *RowRef   `json:"old_record"`
	CommitTimestamp time.Time `json:"commit_timestamp"`
}

