package models

import "time"

// JobRunLog 记录定时任务的每次执行结果，便于运维排查
type JobRunLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	JobName    string    `gorm:"type:varchar(50);index;not null" json:"job_name"` // access_code_scan, access_code_activation
	Processed  int       `gorm:"default:0" json:"processed"`
	Skipped    int       `gorm:"default:0" json:"skipped"`
	Failed     int       `gorm:"default:0" json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	CreatedAt  time.Time `json:"created_at"`
}
