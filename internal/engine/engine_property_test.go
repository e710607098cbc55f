package engine_test

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/sync/errgroup"

	"spycat/internal/domain"
	"spycat/internal/engine"
)

// Property: a breed outside the allowed set never produces a cat.
func TestUnknownBreedNeverPersists(t *testing.T) {
	env := newTestEnv(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("unknown breeds are rejected", prop.ForAll(
		func(breed string) bool {
			if env.Engine.Breeds.Contains(breed) {
				return true
			}
			before := env.count(t, "cats")
			_, err := env.Engine.CreateCat(env.Ctx, engine.CatCreateOptions{Name: "x", Breed: breed})
			return errors.Is(err, engine.ErrInvalidArgument) && env.count(t, "cats") == before
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Property: missions accept 1..3 targets and persist exactly that many.
func TestTargetCountBounds(t *testing.T) {
	env := newTestEnv(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("target count decides acceptance", prop.ForAll(
		func(n int) bool {
			missionsBefore := env.count(t, "missions")
			targetsBefore := env.count(t, "targets")
			targets := make([]engine.TargetCreateOptions, n)
			for i := range targets {
				targets[i] = engine.TargetCreateOptions{Name: "t", Country: "c"}
			}
			m, err := env.Engine.CreateMission(env.Ctx, targets)
			if n < domain.MinTargets || n > domain.MaxTargets {
				return errors.Is(err, engine.ErrInvalidArgument) &&
					env.count(t, "missions") == missionsBefore &&
					env.count(t, "targets") == targetsBefore
			}
			if err != nil || len(m.Targets) != n {
				return false
			}
			for _, tg := range m.Targets {
				if tg.MissionID != m.ID {
					return false
				}
			}
			return env.count(t, "missions") == missionsBefore+1 && env.count(t, "targets") == targetsBefore+n
		},
		gen.IntRange(0, 6),
	))

	properties.TestingRun(t)
}

// Property: after any sequence of completions the mission is completed iff all targets are.
func TestCompletionInvariantHolds(t *testing.T) {
	env := newTestEnv(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("mission.completed tracks its targets", prop.ForAll(
		func(n int, picks []int) bool {
			names := make([]string, n)
			for i := range names {
				names[i] = "t"
			}
			m := env.mission(t, names...)
			for _, p := range picks {
				if _, err := env.Engine.MarkTargetComplete(env.Ctx, m.ID, m.Targets[p%n].ID); err != nil {
					return false
				}
				got, err := env.Engine.GetMission(env.Ctx, m.ID)
				if err != nil || got.Completed != domain.AllTargetsCompleted(got.Targets) {
					return false
				}
			}
			return true
		},
		gen.IntRange(domain.MinTargets, domain.MaxTargets),
		gen.SliceOfN(4, gen.IntRange(0, 10)),
	))

	properties.TestingRun(t)
}

func TestConcurrentAssignmentKeepsOneActiveMission(t *testing.T) {
	env := newTestEnv(t)
	c := env.cat(t, "Tom")
	const workers = 6
	missions := make([]domain.Mission, workers)
	for i := range missions {
		missions[i] = env.mission(t, "Viper")
	}

	errs := make([]error, workers)
	var g errgroup.Group
	for i := range missions {
		g.Go(func() error {
			_, errs[i] = env.Engine.AssignCatToMission(env.Ctx, missions[i].ID, c.ID)
			return nil
		})
	}
	_ = g.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, engine.ErrConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one assignment, got %d", won)
	}
	all, err := env.Engine.ListMissions(env.Ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	linked := 0
	for _, m := range all {
		if m.Assigned() && !m.Completed {
			linked++
		}
	}
	if linked != 1 {
		t.Fatalf("cat linked to %d active missions", linked)
	}
}

func TestConcurrentCompletionCascades(t *testing.T) {
	env := newTestEnv(t)
	c := env.cat(t, "Tom")
	m := env.mission(t, "Viper", "Cobra", "Mamba")
	if _, err := env.Engine.AssignCatToMission(env.Ctx, m.ID, c.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	var g errgroup.Group
	for _, tg := range m.Targets {
		g.Go(func() error {
			_, err := env.Engine.MarkTargetComplete(env.Ctx, m.ID, tg.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err := env.Engine.GetMission(env.Ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Completed || got.Assigned() {
		t.Fatalf("cascade lost under concurrency: %+v", got)
	}
}

func TestReadersNeverSeeHalfCompletedMission(t *testing.T) {
	env := newTestEnv(t)
	const rounds = 200
	for round := 0; round < rounds; round++ {
		m := env.mission(t, "Viper")
		var done atomic.Bool
		var g errgroup.Group
		for r := 0; r < 4; r++ {
			g.Go(func() error {
				for !done.Load() {
					got, err := env.Engine.GetMission(env.Ctx, m.ID)
					if err != nil {
						return err
					}
					if got.Completed != domain.AllTargetsCompleted(got.Targets) {
						return fmt.Errorf("round %d: GetMission saw completed=%t with targets %+v", round, got.Completed, got.Targets)
					}
					all, err := env.Engine.ListMissions(env.Ctx)
					if err != nil {
						return err
					}
					for _, lm := range all {
						if lm.Completed != domain.AllTargetsCompleted(lm.Targets) {
							return fmt.Errorf("round %d: ListMissions saw mission %d completed=%t with targets %+v", round, lm.ID, lm.Completed, lm.Targets)
						}
					}
				}
				return nil
			})
		}
		_, err := env.Engine.MarkTargetComplete(env.Ctx, m.ID, m.Targets[0].ID)
		done.Store(true)
		if werr := g.Wait(); werr != nil {
			t.Fatal(werr)
		}
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
}
