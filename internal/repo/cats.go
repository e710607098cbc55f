package repo

import (
	"context"
	"database/sql"

	"spycat/internal/domain"
)

const catColumns = `id,name,experience_years,breed,salary`

func scanCat(row interface{ Scan(...any) error }) (domain.Cat, error) {
	var c domain.Cat
	err := row.Scan(&c.ID, &c.Name, &c.ExperienceYears, &c.Breed, &c.Salary)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) InsertCat(ctx context.Context, tx *sql.Tx, c domain.Cat) (domain.Cat, error) {
	id, err := r.insertReturningID(ctx, tx, `INSERT INTO cats(name,experience_years,breed,salary) VALUES (?,?,?,?)`,
		c.Name, c.ExperienceYears, c.Breed, c.Salary)
	if err != nil {
		return domain.Cat{}, err
	}
	c.ID = id
	return c, nil
}

func (r Repo) GetCat(ctx context.Context, id int64) (domain.Cat, error) {
	return r.getCat(ctx, r.DB, id, false)
}

// LockCat reads a cat and holds its row lock until tx ends.
func (r Repo) LockCat(ctx context.Context, tx *sql.Tx, id int64) (domain.Cat, error) {
	return r.getCat(ctx, tx, id, true)
}

func (r Repo) getCat(ctx context.Context, q querier, id int64, lock bool) (domain.Cat, error) {
	query := `SELECT ` + catColumns + ` FROM cats WHERE id=?`
	if lock {
		query += r.Dialect.ForUpdate()
	}
	return scanCat(q.QueryRowContext(ctx, r.q(query), id))
}

func (r Repo) ListCats(ctx context.Context) ([]domain.Cat, error) {
	return r.listCats(ctx, r.DB)
}

func (r Repo) listCats(ctx context.Context, q querier) ([]domain.Cat, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+catColumns+` FROM cats ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Cat{}
	for rows.Next() {
		c, err := scanCat(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) UpdateCatSalary(ctx context.Context, tx *sql.Tx, id int64, salary float64) error {
	return r.execAffecting(ctx, tx, `UPDATE cats SET salary=? WHERE id=?`, salary, id)
}

func (r Repo) DeleteCat(ctx context.Context, tx *sql.Tx, id int64) error {
	return r.execAffecting(ctx, tx, `DELETE FROM cats WHERE id=?`, id)
}
