package agent

import (
	"context"
	"strings"
)

// ProfileReader abstracts repository operations for the service.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (Profile, error)
	List(ctx context.Context, agency string, limit int) ([]Profile, error)
}

type Service struct {
	repo ProfileReader
}

func NewService(repo ProfileReader) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Profile{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List returns up to limit agents, optionally from one agency.
func (s *Service) List(ctx context.Context, agency string, limit int) ([]Profile, error) {
	return s.repo.List(ctx, strings.TrimSpace(agency), limit)
}
