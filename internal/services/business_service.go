package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

var (
	ErrCannotRemoveSelf   = errors.New("you cannot remove yourself from the business")
	ErrCannotDemoteOwner  = errors.New("the owner role cannot be changed")
	ErrMemberNotFound     = errors.New("member not found in this business")
	ErrBusinessNameNeeded = errors.New("business name cannot be empty")
)

// BusinessService handles business settings, team management and dashboard stats
type BusinessService struct {
	businessRepo  repository.BusinessRepository
	taskRepo      repository.TaskRepository
	dealRepo      repository.DealRepository
	invoiceRepo   repository.InvoiceRepository
	timeEntryRepo repository.TimeEntryRepository
	cache         cache.Cache
}

// NewBusinessService creates a new BusinessService
func NewBusinessService(
	businessRepo repository.BusinessRepository,
	taskRepo repository.TaskRepository,
	dealRepo repository.DealRepository,
	invoiceRepo repository.InvoiceRepository,
	timeEntryRepo repository.TimeEntryRepository,
	c cache.Cache,
) *BusinessService {
	return &BusinessService{
		businessRepo:  businessRepo,
		taskRepo:      taskRepo,
		dealRepo:      dealRepo,
		invoiceRepo:   invoiceRepo,
		timeEntryRepo: timeEntryRepo,
		cache:         c,
	}
}

// Get returns the business
func (s *BusinessService) Get(businessID uint64) (*models.Business, error) {
	return s.businessRepo.FindByID(businessID)
}

// UpdateInput represents editable business settings
type UpdateBusinessInput struct {
	Name          *string
	ItemsLabel    *string
	ContactsLabel *string
	DealsLabel    *string
}

// Update edits the business name and navigation labels
func (s *BusinessService) Update(ctx context.Context, businessID uint64, input UpdateBusinessInput) (*models.Business, error) {
	business, err := s.businessRepo.FindByID(businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to find business: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrBusinessNameNeeded
		}
		business.Name = *input.Name
	}
	if input.ItemsLabel != nil {
		business.ItemsLabel = *input.ItemsLabel
	}
	if input.ContactsLabel != nil {
		business.ContactsLabel = *input.ContactsLabel
	}
	if input.DealsLabel != nil {
		business.DealsLabel = *input.DealsLabel
	}

	if err := s.businessRepo.Update(business); err != nil {
		return nil, fmt.Errorf("failed to update business: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityBusinesses)
	return business, nil
}

// ListMembers lists member profiles with their users
func (s *BusinessService) ListMembers(ctx context.Context, businessID uint64) ([]models.Profile, error) {
	key := cache.Key(businessID, cache.EntityProfiles, "members")
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityProfiles},
		func() ([]models.Profile, error) {
			return s.businessRepo.ListProfiles(businessID)
		})
}

// ChangeRole changes a member's role. The owner role itself is immutable.
func (s *BusinessService) ChangeRole(ctx context.Context, businessID, userID uint64, role models.Role) error {
	profiles, err := s.businessRepo.ListProfiles(businessID)
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}

	var target *models.Profile
	for i := range profiles {
		if profiles[i].UserID == userID {
			target = &profiles[i]
			break
		}
	}
	if target == nil {
		return ErrMemberNotFound
	}
	if target.Role == models.RoleOwner || role == models.RoleOwner {
		return ErrCannotDemoteOwner
	}

	if err := s.businessRepo.UpdateProfileRole(businessID, userID, role); err != nil {
		return fmt.Errorf("failed to change role: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityProfiles)
	return nil
}

// RemoveMember removes a member from the business
func (s *BusinessService) RemoveMember(ctx context.Context, businessID, actorID, userID uint64) error {
	if actorID == userID {
		return ErrCannotRemoveSelf
	}

	if err := s.businessRepo.RemoveProfile(businessID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityProfiles)
	return nil
}

// DashboardStats are the four headline numbers on the dashboard
type DashboardStats struct {
	OpenTasks      int64   `json:"open_tasks"`
	OpenDealValue  float64 `json:"open_deal_value"`
	UnpaidInvoices float64 `json:"unpaid_invoices"`
	HoursThisWeek  float64 `json:"hours_this_week"`
}

// Dashboard runs the four stat queries concurrently and joins the results.
func (s *BusinessService) Dashboard(businessID uint64) (*DashboardStats, error) {
	var (
		stats DashboardStats
		wg    sync.WaitGroup
		mu    sync.Mutex
		errs  []error
	)

	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	now := time.Now()
	weekStart := now.AddDate(0, 0, -int(now.Weekday()))
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, now.Location())

	wg.Add(4)
	go func() {
		defer wg.Done()
		count, err := s.taskRepo.CountOpen(businessID)
		if err != nil {
			fail(err)
			return
		}
		stats.OpenTasks = count
	}()
	go func() {
		defer wg.Done()
		sum, err := s.dealRepo.SumOpenValue(businessID)
		if err != nil {
			fail(err)
			return
		}
		stats.OpenDealValue = sum
	}()
	go func() {
		defer wg.Done()
		sum, err := s.invoiceRepo.SumUnpaid(businessID)
		if err != nil {
			fail(err)
			return
		}
		stats.UnpaidInvoices = sum
	}()
	go func() {
		defer wg.Done()
		minutes, err := s.timeEntryRepo.MinutesSince(businessID, weekStart)
		if err != nil {
			fail(err)
			return
		}
		stats.HoursThisWeek = float64(minutes) / 60
	}()
	wg.Wait()

	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", errs[0])
	}
	return &stats, nil
}
