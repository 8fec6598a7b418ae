package models

import "time"

const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// JobRecord tracks one submitted background job and its outcome.
type JobRecord struct {
	JobID      string     `json:"job_id" gorm:"primaryKey;type:varchar(36)"`
	Name       string     `json:"name" gorm:"type:varchar(64);not null;index"`
	Status     string     `json:"status" gorm:"type:varchar(16);not null"`
	Result     string     `json:"result" gorm:"type:text"`
	Error      string     `json:"error" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at" gorm:"default:null"`
}

func (JobRecord) TableName() string {
	return "job_records"
}

func (j *JobRecord) Finished() bool {
	return j.Status == JobDone || j.Status == JobFailed
}
