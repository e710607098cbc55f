package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"spycat/internal/engine"
)

type catPath struct {
	ID int64 `path:"id"`
}

type missionPath struct {
	ID int64 `path:"id"`
}

type targetPath struct {
	MissionID int64 `path:"mission_id"`
	TargetID  int64 `path:"target_id"`
}

func registerCats(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "create-cat",
		Method:      http.MethodPost,
		Path:        "/cats/",
		Summary:     "Create cat",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateCatRequest `json:"body"`
	}) (*struct {
		Body CatResponse `json:"body"`
	}, error) {
		c, err := e.CreateCat(ctx, engine.CatCreateOptions{
			Name:            input.Body.Name,
			ExperienceYears: input.Body.ExperienceYears,
			Breed:           input.Body.Breed,
			Salary:          input.Body.Salary,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CatResponse `json:"body"`
		}{Body: catResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-cats",
		Method:      http.MethodGet,
		Path:        "/cats/",
		Summary:     "List cats",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []CatResponse `json:"body"`
	}, error) {
		items, err := e.ListCats(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []CatResponse `json:"body"`
		}{Body: mapCats(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-cat",
		Method:      http.MethodGet,
		Path:        "/cats/{id}",
		Summary:     "Get cat",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *catPath) (*struct {
		Body CatResponse `json:"body"`
	}, error) {
		c, err := e.GetCat(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CatResponse `json:"body"`
		}{Body: catResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-cat-salary",
		Method:      http.MethodPut,
		Path:        "/cats/{id}",
		Summary:     "Update cat salary",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID     int64   `path:"id"`
		Salary float64 `query:"salary" required:"true"`
	}) (*struct {
		Body CatResponse `json:"body"`
	}, error) {
		c, err := e.UpdateCatSalary(ctx, input.ID, input.Salary)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CatResponse `json:"body"`
		}{Body: catResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-cat",
		Method:      http.MethodDelete,
		Path:        "/cats/{id}",
		Summary:     "Delete cat",
		Description: "Fails with 404 when the cat is missing or still on an incomplete mission.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *catPath) (*struct {
		Body OKResponse `json:"body"`
	}, error) {
		if err := e.DeleteCat(ctx, input.ID); err != nil {
			var ee *engine.Error
			if errors.Is(err, engine.ErrConflict) && errors.As(err, &ee) {
				return nil, newAPIError(http.StatusNotFound, "conflict", ee.Message, nil)
			}
			return nil, handleError(err)
		}
		return &struct {
			Body OKResponse `json:"body"`
		}{Body: OKResponse{OK: true}}, nil
	})
}

func registerMissions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "create-mission",
		Method:      http.MethodPost,
		Path:        "/missions/",
		Summary:     "Create mission with targets",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateMissionRequest `json:"body"`
	}) (*struct {
		Body MissionResponse `json:"body"`
	}, error) {
		m, err := e.CreateMission(ctx, targetOptions(input.Body.Targets))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MissionResponse `json:"body"`
		}{Body: missionResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-cat",
		Method:      http.MethodPost,
		Path:        "/missions/{mission_id}/assign_cat/{cat_id}",
		Summary:     "Assign cat to mission",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MissionID int64 `path:"mission_id"`
		CatID     int64 `path:"cat_id"`
	}) (*struct {
		Body MissionResponse `json:"body"`
	}, error) {
		m, err := e.AssignCatToMission(ctx, input.MissionID, input.CatID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MissionResponse `json:"body"`
		}{Body: missionResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-missions",
		Method:      http.MethodGet,
		Path:        "/missions/",
		Summary:     "List missions",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []MissionResponse `json:"body"`
	}, error) {
		items, err := e.ListMissions(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []MissionResponse `json:"body"`
		}{Body: mapMissions(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-mission",
		Method:      http.MethodGet,
		Path:        "/missions/{id}",
		Summary:     "Get mission",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *missionPath) (*struct {
		Body MissionResponse `json:"body"`
	}, error) {
		m, err := e.GetMission(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MissionResponse `json:"body"`
		}{Body: missionResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-mission",
		Method:      http.MethodDelete,
		Path:        "/missions/{id}",
		Summary:     "Delete mission",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *missionPath) (*struct {
		Body OKResponse `json:"body"`
	}, error) {
		if err := e.DeleteMission(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body OKResponse `json:"body"`
		}{Body: OKResponse{OK: true}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-target-notes",
		Method:      http.MethodPut,
		Path:        "/missions/{mission_id}/targets/{target_id}",
		Summary:     "Update target notes",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		MissionID int64  `path:"mission_id"`
		TargetID  int64  `path:"target_id"`
		Notes     string `query:"notes" required:"true"`
	}) (*struct {
		Body TargetResponse `json:"body"`
	}, error) {
		t, err := e.UpdateTargetNotes(ctx, input.MissionID, input.TargetID, input.Notes)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TargetResponse `json:"body"`
		}{Body: targetResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-target",
		Method:      http.MethodPut,
		Path:        "/missions/{mission_id}/targets/{target_id}/complete",
		Summary:     "Mark target complete",
		Description: "Completing the last open target completes the mission and releases its cat.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *targetPath) (*struct {
		Body TargetResponse `json:"body"`
	}, error) {
		t, err := e.MarkTargetComplete(ctx, input.MissionID, input.TargetID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TargetResponse `json:"body"`
		}{Body: targetResponse(t)}, nil
	})
}
