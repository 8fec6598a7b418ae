package repository

import (
	"context"
	"fmt"

	"parkingapp/models"

	"gorm.io/gorm"
)

type jobRepository struct {
	db *gorm.DB
}

func (r *jobRepository) Create(ctx context.Context, job *models.JobRecord) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create job %s: %w", job.JobID, translateError(err))
	}
	return nil
}

func (r *jobRepository) FindByID(ctx context.Context, id string) (*models.JobRecord, error) {
	var job models.JobRecord
	if err := r.db.WithContext(ctx).Where("job_id = ?", id).Take(&job).Error; err != nil {
		return nil, translateError(err)
	}
	return &job, nil
}

func (r *jobRepository) Update(ctx context.Context, job *models.JobRecord) error {
	res := r.db.WithContext(ctx).Model(&models.JobRecord{}).
		Where("job_id = ?", job.JobID).
		Updates(map[string]any{
			"status":      job.Status,
			"result":      job.Result,
			"error":       job.Error,
			"finished_at": job.FinishedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update job %s: %w", job.JobID, res.Error)
	}
	return nil
}
