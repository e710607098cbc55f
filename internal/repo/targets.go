package repo

import (
	"context"
	"database/sql"

	"spycat/internal/domain"
)

const targetColumns = `id,mission_id,name,country,notes,completed`

func scanTarget(row interface{ Scan(...any) error }) (domain.Target, error) {
	var t domain.Target
	err := row.Scan(&t.ID, &t.MissionID, &t.Name, &t.Country, &t.Notes, &t.Completed)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

func (r Repo) InsertTarget(ctx context.Context, tx *sql.Tx, t domain.Target) (domain.Target, error) {
	id, err := r.insertReturningID(ctx, tx, `INSERT INTO targets(mission_id,name,country,notes,completed) VALUES (?,?,?,?,?)`,
		t.MissionID, t.Name, t.Country, t.Notes, t.Completed)
	if err != nil {
		return domain.Target{}, err
	}
	t.ID = id
	return t, nil
}

// LockTarget reads a target and holds its row lock until tx ends.
func (r Repo) LockTarget(ctx context.Context, tx *sql.Tx, id int64) (domain.Target, error) {
	query := `SELECT ` + targetColumns + ` FROM targets WHERE id=?` + r.Dialect.ForUpdate()
	return scanTarget(tx.QueryRowContext(ctx, r.q(query), id))
}

func (r Repo) listTargets(ctx context.Context, q querier, missionID int64) ([]domain.Target, error) {
	rows, err := q.QueryContext(ctx, r.q(`SELECT `+targetColumns+` FROM targets WHERE mission_id=? ORDER BY id ASC`), missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Target{}
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) targetsByMission(ctx context.Context, q querier) (map[int64][]domain.Target, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+targetColumns+` FROM targets ORDER BY mission_id ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[int64][]domain.Target{}
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		res[t.MissionID] = append(res[t.MissionID], t)
	}
	return res, rows.Err()
}

func (r Repo) UpdateTargetNotes(ctx context.Context, tx *sql.Tx, id int64, notes string) error {
	return r.execAffecting(ctx, tx, `UPDATE targets SET notes=? WHERE id=?`, notes, id)
}

func (r Repo) SetTargetCompleted(ctx context.Context, tx *sql.Tx, id int64) error {
	return r.execAffecting(ctx, tx, `UPDATE targets SET completed=? WHERE id=?`, true, id)
}
