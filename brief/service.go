package brief

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput  = errors.New("brief: invalid input")
	ErrAlreadyClosed = errors.New("brief: already closed")
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	pool        TxBeginner
	repo        Repository
	logger      *zap.Logger
	idGenerator func() string
}

type CreateParams struct {
	ClientName   string
	Regions      []string
	PriceMin     int64
	PriceMax     int64
	PropertyType string
}

type ListResult struct {
	Items []Brief
	Total int
}

func NewService(pool TxBeginner, repo Repository) *Service {
	return &Service{
		pool:        pool,
		repo:        repo,
		logger:      zap.NewNop(),
		idGenerator: func() string { return uuid.NewString() },
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

func (s *Service) Create(ctx context.Context, params CreateParams) (Brief, error) {
	name := strings.TrimSpace(params.ClientName)
	if name == "" {
		return Brief{}, fmt.Errorf("%w: client name required", ErrInvalidInput)
	}
	regions := make([]string, 0, len(params.Regions))
	for _, r := range params.Regions {
		if r = strings.TrimSpace(r); r != "" {
			regions = append(regions, r)
		}
	}
	if len(regions) == 0 {
		return Brief{}, fmt.Errorf("%w: region required", ErrInvalidInput)
	}
	if params.PriceMin < 0 || params.PriceMax <= 0 || params.PriceMin >= params.PriceMax {
		return Brief{}, fmt.Errorf("%w: invalid price range", ErrInvalidInput)
	}

	created, err := s.repo.Create(ctx, Brief{
		ID:           s.idGenerator(),
		ClientName:   name,
		Regions:      regions,
		PriceMin:     params.PriceMin,
		PriceMax:     params.PriceMax,
		PropertyType: strings.TrimSpace(params.PropertyType),
		Status:       StatusOpen,
	})
	if err != nil {
		return Brief{}, err
	}
	s.logger.Info("brief created", zap.String("id", created.ID), zap.Strings("regions", created.Regions))
	return created, nil
}

func (s *Service) List(ctx context.Context, filters Filters) (ListResult, error) {
	if filters.Status != "" && !validStatus(filters.Status) {
		return ListResult{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filters.Status)
	}
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, id string) (Brief, error) {
	if strings.TrimSpace(id) == "" {
		return Brief{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Close marks an open or paused brief closed.
func (s *Service) Close(ctx context.Context, id string) (Brief, error) {
	if strings.TrimSpace(id) == "" {
		return Brief{}, ErrNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Brief{}, fmt.Errorf("brief: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return Brief{}, err
	}
	if current.Status == StatusClosed {
		return Brief{}, ErrAlreadyClosed
	}

	updated, err := s.repo.UpdateStatus(ctx, tx, id, StatusClosed)
	if err != nil {
		return Brief{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Brief{}, fmt.Errorf("brief: commit tx: %w", err)
	}
	s.logger.Info("brief closed", zap.String("id", id))
	return updated, nil
}
