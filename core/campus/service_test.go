package campus

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kampus/backend/core"
)

// fakeRepo serves fixed campuses & cards; errCard is returned for card id 500.
type fakeRepo struct {
	campuses map[int64]Campus
	cards    map[int64]Card
	errCard  error
}

var _ Repository = (*fakeRepo)(nil)

func (r *fakeRepo) CreateCampus(_ context.Context, c Campus, _ ...core.DBExecutor) (Campus, error) {
	c.ID = int64(len(r.campuses) + 1)
	r.campuses[c.ID] = c
	return c, nil
}

func (r *fakeRepo) GetCampus(_ context.Context, id int64, _ ...core.DBExecutor) (Campus, error) {
	c, ok := r.campuses[id]
	if !ok {
		return Campus{}, ErrCampusNotFound
	}
	return c, nil
}

func (r *fakeRepo) QueryCampuses(_ context.Context, _ ...core.DBExecutor) ([]Campus, error) {
	var cs []Campus
	for _, c := range r.campuses {
		cs = append(cs, c)
	}
	return cs, nil
}

func (r *fakeRepo) CreateCard(_ context.Context, c Card, _ ...core.DBExecutor) (Card, error) {
	c.ID = int64(len(r.cards) + 1)
	r.cards[c.ID] = c
	return c, nil
}

func (r *fakeRepo) GetCard(_ context.Context, id int64, _ ...core.DBExecutor) (Card, error) {
	if id == 500 {
		return Card{}, r.errCard
	}
	c, ok := r.cards[id]
	if !ok {
		return Card{}, ErrCardNotFound
	}
	return c, nil
}

func newFakeService(errCard error) *Service {
	return NewService(&fakeRepo{
		campuses: map[int64]Campus{1: {ID: 1, Name: "saltillo"}},
		cards:    map[int64]Card{1: {ID: 1, Name: "SAT", Sat: true}, 2: {ID: 2, Name: "Bank"}},
		errCard:  errCard,
	})
}

func TestService_IsCardTaxExempt(t *testing.T) {
	errDB := errors.New("db is down")

	tests := []struct {
		name       string
		id         int64
		errCard    error
		wantExempt bool
		wantFound  bool
		wantErr    error
	}{
		{name: "exempt", id: 1, wantExempt: true, wantFound: true},
		{name: "not exempt", id: 2, wantFound: true},
		{name: "unknown", id: 99},
		{name: "wrapped not found", id: 500, errCard: errors.Wrap(ErrCardNotFound, "getting card")},
		{name: "db error", id: 500, errCard: errors.Wrap(errDB, "getting card"), wantErr: errDB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService(tt.errCard)
			exempt, found, err := svc.IsCardTaxExempt(context.Background(), tt.id)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExempt, exempt)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestService_GetCampusPrefixLetter(t *testing.T) {
	svc := newFakeService(nil)
	ctx := context.Background()

	letter, err := svc.GetCampusPrefixLetter(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "S", letter)

	_, err = svc.GetCampusPrefixLetter(ctx, 2)
	assert.Equal(t, ErrCampusNotFound, err)
}

func TestService_Create(t *testing.T) {
	svc := newFakeService(nil)
	ctx := context.Background()

	c, err := svc.CreateCampus(ctx, "  Oaxaca ")
	require.NoError(t, err)
	assert.Equal(t, "Oaxaca", c.Name)
	assert.True(t, c.IsActive)
	assert.False(t, c.CreatedAt.IsZero())

	_, err = svc.CreateCampus(ctx, " ")
	assert.True(t, core.IsValidationError(err))

	card, err := svc.CreateCard(ctx, "Terminal", true)
	require.NoError(t, err)
	assert.True(t, card.Sat)
	assert.True(t, card.IsActive)

	_, err = svc.CreateCard(ctx, "", false)
	assert.True(t, core.IsValidationError(err))
}
