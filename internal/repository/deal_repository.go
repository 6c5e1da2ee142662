package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormDealRepository is a GORM implementation of DealRepository
type GormDealRepository struct {
	db *gorm.DB
}

// NewDealRepository creates a new DealRepository
func NewDealRepository(db *gorm.DB) DealRepository {
	return &GormDealRepository{db: db}
}

// CreateStage creates a pipeline stage
func (r *GormDealRepository) CreateStage(stage *models.PipelineStage) error {
	return r.db.Create(stage).Error
}

// ListStages lists stages in position order
func (r *GormDealRepository) ListStages(businessID uint64) ([]models.PipelineStage, error) {
	var stages []models.PipelineStage
	if err := r.db.Where("business_id = ?", businessID).
		Order("position ASC").
		Find(&stages).Error; err != nil {
		return nil, err
	}
	return stages, nil
}

// FindStage finds a stage by ID
func (r *GormDealRepository) FindStage(businessID, id uint64) (*models.PipelineStage, error) {
	var stage models.PipelineStage
	if err := r.db.Where("business_id = ?", businessID).First(&stage, id).Error; err != nil {
		return nil, err
	}
	return &stage, nil
}

// UpdateStage updates a stage
func (r *GormDealRepository) UpdateStage(stage *models.PipelineStage) error {
	return r.db.Save(stage).Error
}

// DeleteStage removes a stage
func (r *GormDealRepository) DeleteStage(businessID, id uint64) error {
	return r.db.Where("business_id = ?", businessID).Delete(&models.PipelineStage{}, id).Error
}

// CountDealsInStage counts deals currently occupying a stage
func (r *GormDealRepository) CountDealsInStage(businessID, stageID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Deal{}).
		Where("business_id = ? AND stage_id = ?", businessID, stageID).
		Count(&count).Error
	return count, err
}

// Create inserts the deal and its first activity row atomically
func (r *GormDealRepository) Create(deal *models.Deal, activity *models.DealActivity) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(deal).Error; err != nil {
			return err
		}
		if activity != nil {
			activity.DealID = deal.ID
			if err := tx.Create(activity).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds a deal by ID with optional preloading
func (r *GormDealRepository) FindByID(businessID, id uint64, preload ...string) (*models.Deal, error) {
	var deal models.Deal
	query := r.db.Where("business_id = ?", businessID)
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&deal, id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// List retrieves deals with filtering and pagination
func (r *GormDealRepository) List(filter DealFilter) ([]models.Deal, int64, error) {
	var deals []models.Deal

	query := r.db.Model(&models.Deal{}).Scopes(database.TenantScope(filter.BusinessID))

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.StageID != nil {
		query = query.Where("stage_id = ?", *filter.StageID)
	}
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC").Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("Stage").Preload("Contact").Find(&deals).Error; err != nil {
		return nil, 0, err
	}

	return deals, total, nil
}

// UpdateWithActivity saves the deal and appends activity atomically.
// Associations are omitted from the save: a deal loaded with a preloaded
// Stage would otherwise write stage_id back from the stale association.
func (r *GormDealRepository) UpdateWithActivity(deal *models.Deal, activity []models.DealActivity) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(deal).Error; err != nil {
			return err
		}
		if len(activity) > 0 {
			if err := tx.Create(&activity).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a deal and its activity
func (r *GormDealRepository) Delete(businessID, id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deal_id = ?", id).Delete(&models.DealActivity{}).Error; err != nil {
			return err
		}
		return tx.Where("business_id = ?", businessID).Delete(&models.Deal{}, id).Error
	})
}

// ListActivity lists a deal's activity chronologically
func (r *GormDealRepository) ListActivity(dealID uint64) ([]models.DealActivity, error) {
	var activity []models.DealActivity
	if err := r.db.Preload("Actor").
		Where("deal_id = ?", dealID).
		Order("created_at ASC").
		Find(&activity).Error; err != nil {
		return nil, err
	}
	return activity, nil
}

// SumOpenValue sums the value of open deals
func (r *GormDealRepository) SumOpenValue(businessID uint64) (float64, error) {
	var sum float64
	err := r.db.Model(&models.Deal{}).
		Where("business_id = ? AND status = ?", businessID, models.DealStatusOpen).
		Select("COALESCE(SUM(value), 0)").
		Scan(&sum).Error
	return sum, err
}
