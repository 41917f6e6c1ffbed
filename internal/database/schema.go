package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobQueued    string = "QUEUED"
	JobRunning   string = "RUNNING"
	JobCompleted string = "COMPLETED"
	JobFailed    string = "FAILED"
)

// Invocation is one label-check run, whether submitted through the API or
// replayed from a storage notification.
type Invocation struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Bucket    string `gorm:"not null"`
	ObjectKey string `gorm:"not null"`

	Status string `gorm:"size:20;not null"`

	// Outcome of the check, populated on completion. Labels holds the raw
	// detected records as returned by the vision service.
	ResultStatus string
	MatchedLabel bool           `gorm:"default:false"`
	LabelCount   int            `gorm:"default:0"`
	Labels       datatypes.JSON `gorm:"type:jsonb"`

	Error sql.NullString

	CreationTime   time.Time
	CompletionTime sql.NullTime
}
