package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"spycat/internal/breeds"
	"spycat/internal/db"
	"spycat/internal/domain"
	"spycat/internal/logging"
	"spycat/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Breeds breeds.Set
	Logger *slog.Logger
}

func New(conn *sql.DB, dialect db.Dialect, allowed breeds.Set, logger *slog.Logger) Engine {
	return Engine{
		DB:     conn,
		Repo:   repo.Repo{DB: conn, Dialect: dialect},
		Breeds: allowed,
		Logger: logger,
	}
}

func (e Engine) log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return logging.Discard()
}

// CatCreateOptions are parameters for creating a cat.
type CatCreateOptions struct {
	Name            string
	ExperienceYears int
	Breed           string
	Salary          float64
}

func (e Engine) CreateCat(ctx context.Context, opts CatCreateOptions) (domain.Cat, error) {
	if !e.Breeds.Contains(opts.Breed) {
		return domain.Cat{}, invalidArgument(fmt.Sprintf("Breed '%s' is not supported. Available breeds: %s",
			opts.Breed, strings.Join(e.Breeds.Names(), ", ")))
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Cat{}, err
	}
	defer tx.Rollback()

	cat, err := e.Repo.InsertCat(ctx, tx, domain.Cat{
		Name:            opts.Name,
		ExperienceYears: opts.ExperienceYears,
		Breed:           opts.Breed,
		Salary:          opts.Salary,
	})
	if err != nil {
		return domain.Cat{}, fmt.Errorf("insert cat: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Cat{}, err
	}
	e.log().Info("cat created", "cat_id", cat.ID, "breed", cat.Breed)
	return cat, nil
}

func (e Engine) ListCats(ctx context.Context) ([]domain.Cat, error) {
	return e.Repo.ListCats(ctx)
}

func (e Engine) GetCat(ctx context.Context, id int64) (domain.Cat, error) {
	cat, err := e.Repo.GetCat(ctx, id)
	if err != nil {
		return domain.Cat{}, orNotFound(err, msgCatNotFound)
	}
	return cat, nil
}

func (e Engine) UpdateCatSalary(ctx context.Context, id int64, salary float64) (domain.Cat, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Cat{}, err
	}
	defer tx.Rollback()

	cat, err := e.Repo.LockCat(ctx, tx, id)
	if err != nil {
		return domain.Cat{}, orNotFound(err, msgCatNotFound)
	}
	if err := e.Repo.UpdateCatSalary(ctx, tx, id, salary); err != nil {
		return domain.Cat{}, orNotFound(err, msgCatNotFound)
	}
	cat.Salary = salary
	if err := tx.Commit(); err != nil {
		return domain.Cat{}, err
	}
	e.log().Info("cat salary updated", "cat_id", id, "salary", salary)
	return cat, nil
}

// DeleteCat removes a cat that is not on an incomplete mission.
func (e Engine) DeleteCat(ctx context.Context, id int64) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := e.Repo.LockCat(ctx, tx, id); err != nil {
		return orNotFound(err, msgCatNotFound)
	}
	_, err = e.Repo.ActiveMissionForCat(ctx, tx, id)
	switch {
	case err == nil:
		return conflict(msgCatOnMission)
	case !errors.Is(err, repo.ErrNotFound):
		return err
	}
	if err := e.Repo.DeleteCat(ctx, tx, id); err != nil {
		return orNotFound(err, msgCatNotFound)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.log().Info("cat deleted", "cat_id", id)
	return nil
}
