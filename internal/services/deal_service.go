package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

var (
	ErrStageNameEmpty        = errors.New("stage name is required")
	ErrStageInUse            = errors.New("stage still contains deals")
	ErrStageBothTerminal     = errors.New("a stage cannot be both closed-won and closed-lost")
	ErrDealTitleEmpty        = errors.New("deal title is required")
	ErrDealValueNegative     = errors.New("deal value cannot be negative")
	ErrProbabilityOutOfRange = errors.New("probability must be between 0 and 100")
	ErrDealNoteEmpty         = errors.New("note body is required")
)

// DealService handles pipeline stages, deals and the board view
type DealService struct {
	dealRepo repository.DealRepository
	cache    cache.Cache
}

// NewDealService creates a new DealService
func NewDealService(dealRepo repository.DealRepository, c cache.Cache) *DealService {
	return &DealService{dealRepo: dealRepo, cache: c}
}

// CreateStageInput represents input for creating a pipeline stage
type CreateStageInput struct {
	BusinessID   uint64
	Name         string
	Position     int
	IsClosedWon  bool
	IsClosedLost bool
}

// CreateStage adds a pipeline stage
func (s *DealService) CreateStage(ctx context.Context, input CreateStageInput) (*models.PipelineStage, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrStageNameEmpty
	}
	if input.IsClosedWon && input.IsClosedLost {
		return nil, ErrStageBothTerminal
	}

	stage := &models.PipelineStage{
		BusinessID:   input.BusinessID,
		Name:         strings.TrimSpace(input.Name),
		Position:     input.Position,
		IsClosedWon:  input.IsClosedWon,
		IsClosedLost: input.IsClosedLost,
	}
	if err := s.dealRepo.CreateStage(stage); err != nil {
		return nil, fmt.Errorf("failed to create stage: %w", err)
	}

	invalidate(ctx, s.cache, input.BusinessID, cache.EntityPipelineStages)
	return stage, nil
}

// ListStages lists stages in board order
func (s *DealService) ListStages(ctx context.Context, businessID uint64) ([]models.PipelineStage, error) {
	key := cache.Key(businessID, cache.EntityPipelineStages, "all")
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityPipelineStages},
		func() ([]models.PipelineStage, error) {
			return s.dealRepo.ListStages(businessID)
		})
}

// UpdateStageInput represents input for updating a pipeline stage
type UpdateStageInput struct {
	Name         *string
	Position     *int
	IsClosedWon  *bool
	IsClosedLost *bool
}

// UpdateStage edits a pipeline stage
func (s *DealService) UpdateStage(ctx context.Context, businessID, id uint64, input UpdateStageInput) (*models.PipelineStage, error) {
	stage, err := s.dealRepo.FindStage(businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find stage: %w", err)
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrStageNameEmpty
		}
		stage.Name = strings.TrimSpace(*input.Name)
	}
	if input.Position != nil {
		stage.Position = *input.Position
	}
	if input.IsClosedWon != nil {
		stage.IsClosedWon = *input.IsClosedWon
	}
	if input.IsClosedLost != nil {
		stage.IsClosedLost = *input.IsClosedLost
	}
	if stage.IsClosedWon && stage.IsClosedLost {
		return nil, ErrStageBothTerminal
	}

	if err := s.dealRepo.UpdateStage(stage); err != nil {
		return nil, fmt.Errorf("failed to update stage: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityPipelineStages)
	return stage, nil
}

// DeleteStage removes an empty pipeline stage
func (s *DealService) DeleteStage(ctx context.Context, businessID, id uint64) error {
	count, err := s.dealRepo.CountDealsInStage(businessID, id)
	if err != nil {
		return fmt.Errorf("failed to count deals in stage: %w", err)
	}
	if count > 0 {
		return ErrStageInUse
	}

	if err := s.dealRepo.DeleteStage(businessID, id); err != nil {
		return fmt.Errorf("failed to delete stage: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityPipelineStages)
	return nil
}

// CreateDealInput represents input for creating a deal
type CreateDealInput struct {
	BusinessID        uint64
	Title             string
	StageID           uint64
	Value             float64
	Probability       *int
	ContactID         *uint64
	ItemID            *uint64
	ExpectedCloseDate *time.Time
	CreatedBy         uint64
}

// Create creates a deal in the given stage with its first activity row
func (s *DealService) Create(ctx context.Context, input CreateDealInput) (*models.Deal, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrDealTitleEmpty
	}
	if input.Value < 0 {
		return nil, ErrDealValueNegative
	}
	if input.Probability != nil && (*input.Probability < 0 || *input.Probability > 100) {
		return nil, ErrProbabilityOutOfRange
	}

	stage, err := s.dealRepo.FindStage(input.BusinessID, input.StageID)
	if err != nil {
		return nil, fmt.Errorf("failed to find stage: %w", err)
	}

	deal := &models.Deal{
		BusinessID:        input.BusinessID,
		Title:             strings.TrimSpace(input.Title),
		StageID:           stage.ID,
		Status:            models.DealStatusOpen,
		Value:             input.Value,
		Probability:       input.Probability,
		ContactID:         input.ContactID,
		ItemID:            input.ItemID,
		ExpectedCloseDate: input.ExpectedCloseDate,
		CreatedBy:         input.CreatedBy,
	}
	activity := &models.DealActivity{
		ActorID: input.CreatedBy,
		Kind:    models.DealActivityStageChanged,
		Detail:  fmt.Sprintf("Created in %s", stage.Name),
	}

	if err := s.dealRepo.Create(deal, activity); err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}

	invalidate(ctx, s.cache, input.BusinessID, cache.EntityDeals, cache.EntityDealActivity)
	return deal, nil
}

// Get returns a deal with its relations
func (s *DealService) Get(businessID, id uint64) (*models.Deal, error) {
	return s.dealRepo.FindByID(businessID, id, "Stage", "Contact", "Item")
}

// List lists deals with filtering and pagination
func (s *DealService) List(ctx context.Context, filter repository.DealFilter) ([]models.Deal, int64, error) {
	key := cache.Key(filter.BusinessID, cache.EntityDeals, filter)

	type page struct {
		Deals []models.Deal `json:"deals"`
		Total int64         `json:"total"`
	}
	result, err := fetchCached(ctx, s.cache, filter.BusinessID, key,
		[]cache.Entity{cache.EntityDeals},
		func() (page, error) {
			deals, total, err := s.dealRepo.List(filter)
			return page{Deals: deals, Total: total}, err
		})
	if err != nil {
		return nil, 0, err
	}
	return result.Deals, result.Total, nil
}

// BoardColumn is one stage of the board with its open deals
type BoardColumn struct {
	Stage models.PipelineStage `json:"stage"`
	Deals []models.Deal        `json:"deals"`
	Value float64              `json:"value"`
}

// Board groups open deals by stage in board order
func (s *DealService) Board(ctx context.Context, businessID uint64) ([]BoardColumn, error) {
	key := cache.Key(businessID, cache.EntityDeals, "board")
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityDeals, cache.EntityPipelineStages},
		func() ([]BoardColumn, error) {
			stages, err := s.dealRepo.ListStages(businessID)
			if err != nil {
				return nil, err
			}

			open := models.DealStatusOpen
			deals, _, err := s.dealRepo.List(repository.DealFilter{
				BusinessID: businessID,
				Status:     &open,
			})
			if err != nil {
				return nil, err
			}

			byStage := make(map[uint64][]models.Deal, len(stages))
			for _, d := range deals {
				byStage[d.StageID] = append(byStage[d.StageID], d)
			}

			columns := make([]BoardColumn, 0, len(stages))
			for _, stage := range stages {
				col := BoardColumn{Stage: stage, Deals: byStage[stage.ID]}
				for _, d := range col.Deals {
					col.Value += d.Value
				}
				columns = append(columns, col)
			}
			return columns, nil
		})
}

// UpdateDealInput represents input for updating a deal
type UpdateDealInput struct {
	Title             *string
	Value             *float64
	Probability       *int
	ContactID         *uint64
	ItemID            *uint64
	ExpectedCloseDate *time.Time
}

// Update edits deal fields, recording value changes
func (s *DealService) Update(ctx context.Context, businessID, id, actorID uint64, input UpdateDealInput) (*models.Deal, error) {
	deal, err := s.dealRepo.FindByID(businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find deal: %w", err)
	}

	var activity []models.DealActivity

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrDealTitleEmpty
		}
		deal.Title = strings.TrimSpace(*input.Title)
	}
	if input.Value != nil && *input.Value != deal.Value {
		if *input.Value < 0 {
			return nil, ErrDealValueNegative
		}
		activity = append(activity, models.DealActivity{
			DealID:  deal.ID,
			ActorID: actorID,
			Kind:    models.DealActivityValueChanged,
			Detail:  fmt.Sprintf("%.2f -> %.2f", deal.Value, *input.Value),
		})
		deal.Value = *input.Value
	}
	if input.Probability != nil {
		if *input.Probability < 0 || *input.Probability > 100 {
			return nil, ErrProbabilityOutOfRange
		}
		deal.Probability = input.Probability
	}
	if input.ContactID != nil {
		deal.ContactID = input.ContactID
	}
	if input.ItemID != nil {
		deal.ItemID = input.ItemID
	}
	if input.ExpectedCloseDate != nil {
		deal.ExpectedCloseDate = input.ExpectedCloseDate
	}

	if err := s.dealRepo.UpdateWithActivity(deal, activity); err != nil {
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityDeals, cache.EntityDealActivity)
	return deal, nil
}

// MoveStage moves a deal to another stage. Landing on a closed-won stage
// marks the deal won and stamps the close date; closed-lost marks it lost;
// moving back to an open stage reopens it and clears the close date.
func (s *DealService) MoveStage(ctx context.Context, businessID, id, actorID, stageID uint64) (*models.Deal, error) {
	deal, err := s.dealRepo.FindByID(businessID, id, "Stage")
	if err != nil {
		return nil, fmt.Errorf("failed to find deal: %w", err)
	}
	stage, err := s.dealRepo.FindStage(businessID, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to find stage: %w", err)
	}
	if stage.ID == deal.StageID {
		return deal, nil
	}

	activity := []models.DealActivity{{
		DealID:  deal.ID,
		ActorID: actorID,
		Kind:    models.DealActivityStageChanged,
		Detail:  fmt.Sprintf("%s -> %s", deal.Stage.Name, stage.Name),
	}}

	deal.StageID = stage.ID
	switch {
	case stage.IsClosedWon:
		deal.Status = models.DealStatusWon
		now := time.Now()
		deal.ActualCloseDate = &now
	case stage.IsClosedLost:
		deal.Status = models.DealStatusLost
		now := time.Now()
		deal.ActualCloseDate = &now
	default:
		deal.Status = models.DealStatusOpen
		deal.ActualCloseDate = nil
	}

	if err := s.dealRepo.UpdateWithActivity(deal, activity); err != nil {
		return nil, fmt.Errorf("failed to move deal: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityDeals, cache.EntityDealActivity)
	return deal, nil
}

// AddNote appends a free-text activity note to a deal
func (s *DealService) AddNote(ctx context.Context, businessID, id, actorID uint64, note string) error {
	if strings.TrimSpace(note) == "" {
		return ErrDealNoteEmpty
	}
	deal, err := s.dealRepo.FindByID(businessID, id)
	if err != nil {
		return fmt.Errorf("failed to find deal: %w", err)
	}

	activity := []models.DealActivity{{
		DealID:  deal.ID,
		ActorID: actorID,
		Kind:    models.DealActivityNote,
		Detail:  note,
	}}
	if err := s.dealRepo.UpdateWithActivity(deal, activity); err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityDealActivity)
	return nil
}

// ListActivity lists a deal's activity chronologically
func (s *DealService) ListActivity(ctx context.Context, businessID, id uint64) ([]models.DealActivity, error) {
	if _, err := s.dealRepo.FindByID(businessID, id); err != nil {
		return nil, fmt.Errorf("failed to find deal: %w", err)
	}
	key := cache.Key(businessID, cache.EntityDealActivity, id)
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityDealActivity},
		func() ([]models.DealActivity, error) {
			return s.dealRepo.ListActivity(id)
		})
}

// Delete deletes a deal and its activity
func (s *DealService) Delete(ctx context.Context, businessID, id uint64) error {
	if err := s.dealRepo.Delete(businessID, id); err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityDeals, cache.EntityDealActivity)
	return nil
}
