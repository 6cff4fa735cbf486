package campus

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kampus/backend/core"
)

var (
	ErrCampusNotFound = errors.New("campus not found")
	ErrCardNotFound   = errors.New("card not found")
)

type (
	Repository interface {
		CreateCampus(ctx context.Context, c Campus, exec ...core.DBExecutor) (Campus, error)
		GetCampus(ctx context.Context, id int64, exec ...core.DBExecutor) (Campus, error)
		QueryCampuses(ctx context.Context, exec ...core.DBExecutor) ([]Campus, error)
		CreateCard(ctx context.Context, c Card, exec ...core.DBExecutor) (Card, error)
		GetCard(ctx context.Context, id int64, exec ...core.DBExecutor) (Card, error)
	}

	// Directory is the read-only campus lookup the folio allocator depends on.
	Directory interface {
		GetCampusPrefixLetter(ctx context.Context, id int64, exec ...core.DBExecutor) (string, error)
	}

	// CardRegistry is the read-only card lookup the folio allocator depends on.
	// found is false for unknown cards, which callers handle as "no card".
	CardRegistry interface {
		IsCardTaxExempt(ctx context.Context, id int64, exec ...core.DBExecutor) (exempt, found bool, err error)
	}

	Service struct {
		repo Repository
	}
)

var (
	_ Directory    = (*Service)(nil)
	_ CardRegistry = (*Service)(nil)
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateCampus(ctx context.Context, name string) (Campus, error) {
	name = core.CleanString(name)
	if name == "" {
		return Campus{}, core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field is required"})
	}
	return svc.repo.CreateCampus(ctx, Campus{Name: name, IsActive: true, CreatedAt: time.Now().UTC()})
}

func (svc *Service) CreateCard(ctx context.Context, name string, sat bool) (Card, error) {
	name = core.CleanString(name)
	if name == "" {
		return Card{}, core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field is required"})
	}
	return svc.repo.CreateCard(ctx, Card{Name: name, Sat: sat, IsActive: true})
}

func (svc *Service) GetCampus(ctx context.Context, id int64) (Campus, error) {
	return svc.repo.GetCampus(ctx, id)
}

func (svc *Service) QueryCampuses(ctx context.Context) ([]Campus, error) {
	return svc.repo.QueryCampuses(ctx)
}

// GetCampusPrefixLetter fails with ErrCampusNotFound for unknown campuses.
func (svc *Service) GetCampusPrefixLetter(ctx context.Context, id int64, exec ...core.DBExecutor) (string, error) {
	c, err := svc.repo.GetCampus(ctx, id, exec...)
	if err != nil {
		return "", err
	}
	return c.PrefixLetter(), nil
}

// IsCardTaxExempt reports found=false (and no error) for unknown cards.
func (svc *Service) IsCardTaxExempt(ctx context.Context, id int64, exec ...core.DBExecutor) (exempt, found bool, err error) {
	c, err := svc.repo.GetCard(ctx, id, exec...)
	if err != nil {
		if errors.Cause(err) == ErrCardNotFound {
			return false, false, nil
		}
		return false, false, err
	}
	return c.Sat, true, nil
}
