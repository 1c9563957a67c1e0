package models

import "time"

const (
	ExportQueued     = "queued"
	ExportProcessing = "processing"
	ExportDone       = "done"
	ExportFailed     = "failed"
)

type ExportJob struct {
	JobID     string    `gorm:"column:job_id;primaryKey;size:36" json:"jobId"`
	Format    string    `gorm:"column:format;size:10;not null" json:"format"` // csv, xlsx
	DateFrom  string    `gorm:"column:date_from;size:10" json:"from,omitempty"`
	DateTo    string    `gorm:"column:date_to;size:10" json:"to,omitempty"`
	Status    string    `gorm:"column:status;size:20;default:'queued'" json:"status"`
	FilePath  *string   `gorm:"column:file_path;type:text" json:"-"`
	FileURL   *string   `gorm:"column:file_url;type:text" json:"url,omitempty"`
	ErrorMsg  *string   `gorm:"column:error_msg;type:text" json:"error,omitempty"`
	CreatedBy string    `gorm:"column:created_by;size:255" json:"createdBy"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (ExportJob) TableName() string {
	return "export_jobs"
}
