package models

import "time"

// Builder states.
const (
	BuilderStateOpen      = "OPEN"
	BuilderStateFinalized = "FINALIZED"
)

// BuilderRecord persists an in-progress transaction builder so that
// successive CLI invocations form one logical wallet session. Nothing
// leaves the machine until the builder is finalized and submitted;
// deleting the row is always safe while the state is open.
type BuilderRecord struct {
	Name  string `gorm:"primary_key"`
	State string

	SnapshotToken string

	// Ops is the JSON serialized slice of TransferOperations
	// accumulated so far.
	Ops []byte

	// TxID is set once the builder has been finalized.
	TxID string

	CreatedAt time.Time
}
