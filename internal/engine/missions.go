package engine

import (
	"context"
	"errors"
	"fmt"

	"spycat/internal/domain"
	"spycat/internal/repo"
)

// TargetCreateOptions describes one target supplied at mission creation.
type TargetCreateOptions struct {
	Name      string
	Country   string
	Notes     string
	Completed bool
}

// CreateMission stores an unassigned mission together with its targets.
// The mission starts completed only when every supplied target already is.
func (e Engine) CreateMission(ctx context.Context, targets []TargetCreateOptions) (domain.Mission, error) {
	if len(targets) < domain.MinTargets || len(targets) > domain.MaxTargets {
		return domain.Mission{}, invalidArgument(msgTargetCount)
	}
	pending := make([]domain.Target, 0, len(targets))
	for _, t := range targets {
		pending = append(pending, domain.Target{Name: t.Name, Country: t.Country, Notes: t.Notes, Completed: t.Completed})
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Mission{}, err
	}
	defer tx.Rollback()

	m, err := e.Repo.InsertMission(ctx, tx, domain.Mission{Completed: domain.AllTargetsCompleted(pending)})
	if err != nil {
		return domain.Mission{}, fmt.Errorf("insert mission: %w", err)
	}
	m.Targets = make([]domain.Target, 0, len(pending))
	for _, t := range pending {
		t.MissionID = m.ID
		created, err := e.Repo.InsertTarget(ctx, tx, t)
		if err != nil {
			return domain.Mission{}, fmt.Errorf("insert target: %w", err)
		}
		m.Targets = append(m.Targets, created)
	}
	if err := tx.Commit(); err != nil {
		return domain.Mission{}, err
	}
	e.log().Info("mission created", "mission_id", m.ID, "targets", len(m.Targets), "completed", m.Completed)
	return m, nil
}

// AssignCatToMission links a cat to a mission. A cat holds at most one
// incomplete mission and a mission keeps the first cat assigned to it.
func (e Engine) AssignCatToMission(ctx context.Context, missionID, catID int64) (domain.Mission, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Mission{}, err
	}
	defer tx.Rollback()

	// Cat before mission, always.
	if _, err := e.Repo.LockCat(ctx, tx, catID); err != nil {
		return domain.Mission{}, orNotFound(err, msgCatNotFound)
	}
	m, err := e.Repo.LockMission(ctx, tx, missionID)
	if err != nil {
		return domain.Mission{}, orNotFound(err, msgMissionNotFound)
	}
	if m.Completed {
		return domain.Mission{}, conflict(msgMissionCompleted)
	}
	if m.Assigned() && *m.CatID != catID {
		return domain.Mission{}, conflict(msgMissionTaken)
	}
	_, err = e.Repo.ActiveMissionForCat(ctx, tx, catID)
	switch {
	case err == nil:
		return domain.Mission{}, conflict(msgCatHasActiveMission)
	case !errors.Is(err, repo.ErrNotFound):
		return domain.Mission{}, err
	}

	m.CatID = &catID
	if err := e.Repo.UpdateMission(ctx, tx, m); err != nil {
		return domain.Mission{}, orNotFound(err, msgMissionNotFound)
	}
	if err := tx.Commit(); err != nil {
		return domain.Mission{}, err
	}
	e.log().Info("mission assigned", "mission_id", m.ID, "cat_id", catID)
	return m, nil
}

// ListMissions reads missions and targets from one snapshot so a concurrent
// completion is seen either whole or not at all.
func (e Engine) ListMissions(ctx context.Context) ([]domain.Mission, error) {
	tx, err := e.DB.BeginTx(ctx, e.Repo.Dialect.ReadTxOptions())
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	missions, err := e.Repo.ListMissionsTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return missions, nil
}

func (e Engine) GetMission(ctx context.Context, id int64) (domain.Mission, error) {
	tx, err := e.DB.BeginTx(ctx, e.Repo.Dialect.ReadTxOptions())
	if err != nil {
		return domain.Mission{}, err
	}
	defer tx.Rollback()

	m, err := e.Repo.GetMissionTx(ctx, tx, id)
	if err != nil {
		return domain.Mission{}, orNotFound(err, msgMissionNotFound)
	}
	if err := tx.Commit(); err != nil {
		return domain.Mission{}, err
	}
	return m, nil
}

// DeleteMission removes an unassigned mission and, through the foreign key, its targets.
func (e Engine) DeleteMission(ctx context.Context, id int64) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	m, err := e.Repo.LockMission(ctx, tx, id)
	if err != nil {
		return orNotFound(err, msgMissionNotFound)
	}
	if m.Assigned() {
		return conflict(msgMissionAssigned)
	}
	if err := e.Repo.DeleteMission(ctx, tx, id); err != nil {
		return orNotFound(err, msgMissionNotFound)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.log().Info("mission deleted", "mission_id", id, "targets", len(m.Targets))
	return nil
}

// UpdateTargetNotes replaces the notes of an incomplete target. A target that
// is missing or belongs to another mission is reported like a completed one.
func (e Engine) UpdateTargetNotes(ctx context.Context, missionID, targetID int64, notes string) (domain.Target, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Target{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.LockTarget(ctx, tx, targetID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return domain.Target{}, err
	}
	if err != nil || t.MissionID != missionID || t.Completed {
		return domain.Target{}, invalidState(msgTargetNotesCompleted)
	}
	if err := e.Repo.UpdateTargetNotes(ctx, tx, targetID, notes); err != nil {
		return domain.Target{}, err
	}
	t.Notes = notes
	if err := tx.Commit(); err != nil {
		return domain.Target{}, err
	}
	e.log().Debug("target notes updated", "mission_id", missionID, "target_id", targetID)
	return t, nil
}

// MarkTargetComplete completes a target. Completing the last open target of a
// mission completes the mission and releases its cat in the same transaction.
func (e Engine) MarkTargetComplete(ctx context.Context, missionID, targetID int64) (domain.Target, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Target{}, err
	}
	defer tx.Rollback()

	m, err := e.Repo.LockMission(ctx, tx, missionID)
	if err != nil {
		return domain.Target{}, orNotFound(err, msgTargetNotFound)
	}
	idx := -1
	for i, t := range m.Targets {
		if t.ID == targetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Target{}, notFound(msgTargetNotFound)
	}
	if m.Targets[idx].Completed {
		return m.Targets[idx], nil
	}

	if err := e.Repo.SetTargetCompleted(ctx, tx, targetID); err != nil {
		return domain.Target{}, orNotFound(err, msgTargetNotFound)
	}
	m.Targets[idx].Completed = true

	var releasedCat *int64
	if domain.AllTargetsCompleted(m.Targets) {
		releasedCat = m.CatID
		m.Completed = true
		m.CatID = nil
		if err := e.Repo.UpdateMission(ctx, tx, m); err != nil {
			return domain.Target{}, fmt.Errorf("complete mission: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Target{}, err
	}
	e.log().Info("target completed", "mission_id", missionID, "target_id", targetID)
	if m.Completed {
		if releasedCat != nil {
			e.log().Info("mission completed", "mission_id", missionID, "released_cat_id", *releasedCat)
		} else {
			e.log().Info("mission completed", "mission_id", missionID)
		}
	}
	return m.Targets[idx], nil
}
