package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidStatus   = errors.New("listing: invalid status")
	ErrInvalidDecision = errors.New("listing: invalid decision")
	ErrInvalidInput    = errors.New("listing: invalid input")
)

type Service struct {
	repo        Repository
	logger      *zap.Logger
	idGenerator func() string
	now         func() time.Time
}

type CreateParams struct {
	Address       string
	Suburb        string
	Price         *int64
	Yield         *float64
	Status        Status
	AgentID       *string
	PosterName    *string
	ClientBriefID *string
	AuctionDate   *string
	ListedAt      *time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:        repo,
		logger:      zap.NewNop(),
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

func (s *Service) WithLogger(logger *zap.Logger) *Service {
	s.logger = logger
	return s
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Search(ctx context.Context, filters Filters) (SearchResult, error) {
	filters = NormalizeFilters(filters)
	res, err := s.repo.Search(ctx, filters)
	if err != nil {
		return SearchResult{}, err
	}
	s.logger.Debug("listing search",
		zap.String("text", filters.Text),
		zap.String("status", filters.Status),
		zap.Int("page", filters.Page),
		zap.Int("total", res.TotalCount))
	return res, nil
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, params CreateParams) (Record, error) {
	address := strings.TrimSpace(params.Address)
	if err := validateParams(address, params); err != nil {
		return Record{}, err
	}
	status := params.Status
	if status == "" {
		status = StatusActive
	}
	if !ValidStatus(status) || status == StatusDeleted {
		return Record{}, ErrInvalidStatus
	}

	listedAt := params.ListedAt
	if listedAt == nil {
		now := s.now().UTC()
		listedAt = &now
	}

	rec := Record{
		ID:            s.idGenerator(),
		Address:       address,
		Suburb:        strings.TrimSpace(params.Suburb),
		Price:         params.Price,
		Yield:         params.Yield,
		Status:        status,
		Decision:      DecisionUndecided,
		AgentID:       params.AgentID,
		PosterName:    params.PosterName,
		ClientBriefID: params.ClientBriefID,
		AuctionDate:   params.AuctionDate,
		ListedAt:      listedAt,
	}

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	s.logger.Info("listing created", zap.String("id", created.ID))
	return created, nil
}

func (s *Service) SoftDelete(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrNotFound
	}
	rec, err := s.repo.SetDeleted(ctx, id, true)
	if err != nil {
		return Record{}, err
	}
	s.logger.Info("listing soft-deleted", zap.String("id", id))
	return rec, nil
}

func (s *Service) Restore(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrNotFound
	}
	return s.repo.SetDeleted(ctx, id, false)
}

func (s *Service) SetDecision(ctx context.Context, id string, decision Decision) (Record, error) {
	if id == "" {
		return Record{}, ErrNotFound
	}
	decision = Decision(strings.ToLower(strings.TrimSpace(string(decision))))
	if !ValidDecision(decision) {
		return Record{}, ErrInvalidDecision
	}
	return s.repo.SetDecision(ctx, id, decision)
}

func (s *Service) Update(ctx context.Context, id string, params CreateParams) (Record, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	address := strings.TrimSpace(params.Address)
	if err := validateParams(address, params); err != nil {
		return Record{}, err
	}
	status := params.Status
	if status == "" {
		status = existing.Status
	}
	if !ValidStatus(status) {
		return Record{}, ErrInvalidStatus
	}

	existing.Address = address
	existing.Suburb = strings.TrimSpace(params.Suburb)
	existing.Price = params.Price
	existing.Yield = params.Yield
	existing.Status = status
	existing.AgentID = params.AgentID
	existing.PosterName = params.PosterName
	existing.ClientBriefID = params.ClientBriefID
	existing.AuctionDate = params.AuctionDate
	if params.ListedAt != nil {
		existing.ListedAt = params.ListedAt
	}
	return s.repo.Update(ctx, existing)
}

func validateParams(address string, params CreateParams) error {
	if address == "" {
		return fmt.Errorf("%w: address required", ErrInvalidInput)
	}
	if params.Price != nil && *params.Price < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidInput)
	}
	if params.Yield != nil && *params.Yield < 0 {
		return fmt.Errorf("%w: negative yield", ErrInvalidInput)
	}
	if params.AgentID != nil && uuid.Validate(*params.AgentID) != nil {
		return fmt.Errorf("%w: malformed agent id", ErrInvalidInput)
	}
	if params.ClientBriefID != nil && uuid.Validate(*params.ClientBriefID) != nil {
		return fmt.Errorf("%w: malformed client brief id", ErrInvalidInput)
	}
	return nil
}
