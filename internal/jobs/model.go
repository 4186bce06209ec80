package jobs

import "time"

const TypeMediaPurge = "MEDIA_PURGE"

const (
	StatusPending = "PENDING"
	StatusRunning = "RUNNING"
	StatusDone    = "DONE"
	StatusFailed  = "FAILED"
)

type Job struct {
	ID uint64 `gorm:"primaryKey"`

	Type    string `gorm:"type:text;not null"` // MEDIA_PURGE
	Payload []byte `gorm:"type:jsonb;not null"`

	RunAt  time.Time `gorm:"index;not null"`
	Status string    `gorm:"index;not null"` // PENDING/RUNNING/DONE/FAILED

	Attempts    int `gorm:"not null"`
	MaxAttempts int `gorm:"not null"`

	LockedBy *string
	LockedAt *time.Time

	LastError *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type purgePayload struct {
	Key string `json:"key"`
}
