package repo

import (
	"context"
	"database/sql"

	"spycat/internal/domain"
)

func scanMission(row interface{ Scan(...any) error }) (domain.Mission, error) {
	var m domain.Mission
	var catID sql.NullInt64
	err := row.Scan(&m.ID, &catID, &m.Completed)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if err != nil {
		return m, err
	}
	m.CatID = int64Ptr(catID)
	return m, nil
}

func (r Repo) InsertMission(ctx context.Context, tx *sql.Tx, m domain.Mission) (domain.Mission, error) {
	id, err := r.insertReturningID(ctx, tx, `INSERT INTO missions(cat_id,completed) VALUES (?,?)`,
		nullableInt64Ptr(m.CatID), m.Completed)
	if err != nil {
		return domain.Mission{}, err
	}
	m.ID = id
	return m, nil
}

// GetMissionTx returns the mission with its targets populated. The two reads
// only agree with each other inside a transaction that sees one snapshot.
func (r Repo) GetMissionTx(ctx context.Context, tx *sql.Tx, id int64) (domain.Mission, error) {
	return r.getMission(ctx, tx, id, false)
}

// LockMission reads a mission (targets included) and holds its row lock until tx ends.
func (r Repo) LockMission(ctx context.Context, tx *sql.Tx, id int64) (domain.Mission, error) {
	return r.getMission(ctx, tx, id, true)
}

func (r Repo) getMission(ctx context.Context, q querier, id int64, lock bool) (domain.Mission, error) {
	query := `SELECT id,cat_id,completed FROM missions WHERE id=?`
	if lock {
		query += r.Dialect.ForUpdate()
	}
	m, err := scanMission(q.QueryRowContext(ctx, r.q(query), id))
	if err != nil {
		return m, err
	}
	m.Targets, err = r.listTargets(ctx, q, m.ID)
	if err != nil {
		return m, err
	}
	return m, nil
}

func (r Repo) ListMissionsTx(ctx context.Context, tx *sql.Tx) ([]domain.Mission, error) {
	return r.listMissions(ctx, tx)
}

func (r Repo) listMissions(ctx context.Context, q querier) ([]domain.Mission, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,cat_id,completed FROM missions ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	var res []domain.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	byMission, err := r.targetsByMission(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Mission, 0, len(res))
	for _, m := range res {
		m.Targets = byMission[m.ID]
		if m.Targets == nil {
			m.Targets = []domain.Target{}
		}
		out = append(out, m)
	}
	return out, nil
}

// ActiveMissionForCat returns the cat's incomplete mission, ErrNotFound when it has none.
func (r Repo) ActiveMissionForCat(ctx context.Context, tx *sql.Tx, catID int64) (domain.Mission, error) {
	return scanMission(tx.QueryRowContext(ctx, r.q(`SELECT id,cat_id,completed FROM missions WHERE cat_id=? AND completed=? ORDER BY id ASC LIMIT 1`), catID, false))
}

// UpdateMission persists the mutable mission columns.
func (r Repo) UpdateMission(ctx context.Context, tx *sql.Tx, m domain.Mission) error {
	return r.execAffecting(ctx, tx, `UPDATE missions SET cat_id=?, completed=? WHERE id=?`,
		nullableInt64Ptr(m.CatID), m.Completed, m.ID)
}

// DeleteMission removes the mission; its targets go with it through the cascading foreign key.
func (r Repo) DeleteMission(ctx context.Context, tx *sql.Tx, id int64) error {
	return r.execAffecting(ctx, tx, `DELETE FROM missions WHERE id=?`, id)
}
