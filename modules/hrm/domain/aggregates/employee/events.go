package employee

import "github.com/google/uuid"

// ImportedEvent is published after one employee row was committed by a bulk import.
type ImportedEvent struct {
	RunID      uuid.UUID
	EmployeeID string
	Action     Action
	Row        int
}
