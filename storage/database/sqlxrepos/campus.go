package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kampus/backend/core"
	"github.com/kampus/backend/core/campus"
)

type campusRepository struct {
	base
}

var _ campus.Repository = (*campusRepository)(nil) // interface compliance check

func NewCampusRepository(exec core.DBExecutor) *campusRepository {
	return &campusRepository{base{exec: exec}}
}

type campusRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

func (r campusRow) unboil() campus.Campus {
	return campus.Campus{
		ID:        r.ID,
		Name:      r.Name,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type cardRow struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Sat      bool   `db:"sat"`
	IsActive bool   `db:"is_active"`
}

func (r cardRow) unboil() campus.Card {
	return campus.Card{ID: r.ID, Name: r.Name, Sat: r.Sat, IsActive: r.IsActive}
}

func (repo campusRepository) CreateCampus(ctx context.Context, c campus.Campus, exec ...core.DBExecutor) (campus.Campus, error) {
	ex := repo.getExec(exec)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	q := ex.Rebind(`INSERT INTO campuses (name, is_active, created_at) VALUES (?, ?, ?) RETURNING id`)
	if err := ex.QueryRowxContext(ctx, q, c.Name, c.IsActive, c.CreatedAt.UTC()).Scan(&c.ID); err != nil {
		return campus.Campus{}, errors.Wrap(err, "inserting campus")
	}
	return c, nil
}

func (repo campusRepository) GetCampus(ctx context.Context, id int64, exec ...core.DBExecutor) (campus.Campus, error) {
	ex := repo.getExec(exec)
	var row campusRow
	q := ex.Rebind(`SELECT id, name, is_active, created_at FROM campuses WHERE id = ?`)
	if err := sqlx.GetContext(ctx, ex, &row, q, id); err != nil {
		return campus.Campus{}, trapNoRowsErr(err, campus.ErrCampusNotFound, "getting campus")
	}
	return row.unboil(), nil
}

func (repo campusRepository) QueryCampuses(ctx context.Context, exec ...core.DBExecutor) ([]campus.Campus, error) {
	ex := repo.getExec(exec)
	var rows []campusRow
	if err := sqlx.SelectContext(ctx, ex, &rows, `SELECT id, name, is_active, created_at FROM campuses ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying campuses")
	}
	campuses := make([]campus.Campus, 0, len(rows))
	for _, r := range rows {
		campuses = append(campuses, r.unboil())
	}
	return campuses, nil
}

func (repo campusRepository) CreateCard(ctx context.Context, c campus.Card, exec ...core.DBExecutor) (campus.Card, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`INSERT INTO cards (name, sat, is_active) VALUES (?, ?, ?) RETURNING id`)
	if err := ex.QueryRowxContext(ctx, q, c.Name, c.Sat, c.IsActive).Scan(&c.ID); err != nil {
		return campus.Card{}, errors.Wrap(err, "inserting card")
	}
	return c, nil
}

func (repo campusRepository) GetCard(ctx context.Context, id int64, exec ...core.DBExecutor) (campus.Card, error) {
	ex := repo.getExec(exec)
	var row cardRow
	q := ex.Rebind(`SELECT id, name, sat, is_active FROM cards WHERE id = ?`)
	if err := sqlx.GetContext(ctx, ex, &row, q, id); err != nil {
		return campus.Card{}, trapNoRowsErr(err, campus.ErrCardNotFound, "getting card")
	}
	return row.unboil(), nil
}
