package server

import (
	"spycat/internal/domain"
	"spycat/internal/engine"
)

// Request payloads

type CreateCatRequest struct {
	Name            string  `json:"name" example:"Tom"`
	ExperienceYears int     `json:"experience_years" example:"3"`
	Breed           string  `json:"breed" example:"Siamese"`
	Salary          float64 `json:"salary" example:"1500"`
}

type CreateTargetRequest struct {
	Name      string `json:"name" example:"Viper"`
	Country   string `json:"country" example:"PT"`
	Notes     string `json:"notes,omitempty"`
	Completed bool   `json:"completed,omitempty"`
}

type CreateMissionRequest struct {
	_         struct{}              `json:"-" additionalProperties:"true"`
	Targets   []CreateTargetRequest `json:"targets"`
	Completed *bool                 `json:"completed,omitempty" doc:"Ignored; completion is derived from the targets"`
}

// Response payloads

type CatResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	ExperienceYears int     `json:"experience_years"`
	Breed           string  `json:"breed"`
	Salary          float64 `json:"salary"`
}

type TargetResponse struct {
	ID        int64  `json:"id"`
	MissionID int64  `json:"mission_id"`
	Name      string `json:"name"`
	Country   string `json:"country"`
	Notes     string `json:"notes"`
	Completed bool   `json:"completed"`
}

type MissionResponse struct {
	ID        int64            `json:"id"`
	CatID     *int64           `json:"cat_id" nullable:"true"`
	Completed bool             `json:"completed"`
	Targets   []TargetResponse `json:"targets"`
}

type BreedResponse struct {
	Name string `json:"name"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

func catResponse(c domain.Cat) CatResponse {
	return CatResponse{
		ID:              c.ID,
		Name:            c.Name,
		ExperienceYears: c.ExperienceYears,
		Breed:           c.Breed,
		Salary:          c.Salary,
	}
}

func mapCats(items []domain.Cat) []CatResponse {
	out := make([]CatResponse, 0, len(items))
	for _, c := range items {
		out = append(out, catResponse(c))
	}
	return out
}

func targetResponse(t domain.Target) TargetResponse {
	return TargetResponse{
		ID:        t.ID,
		MissionID: t.MissionID,
		Name:      t.Name,
		Country:   t.Country,
		Notes:     t.Notes,
		Completed: t.Completed,
	}
}

func missionResponse(m domain.Mission) MissionResponse {
	targets := make([]TargetResponse, 0, len(m.Targets))
	for _, t := range m.Targets {
		targets = append(targets, targetResponse(t))
	}
	return MissionResponse{
		ID:        m.ID,
		CatID:     m.CatID,
		Completed: m.Completed,
		Targets:   targets,
	}
}

func mapMissions(items []domain.Mission) []MissionResponse {
	out := make([]MissionResponse, 0, len(items))
	for _, m := range items {
		out = append(out, missionResponse(m))
	}
	return out
}

func targetOptions(in []CreateTargetRequest) []engine.TargetCreateOptions {
	out := make([]engine.TargetCreateOptions, 0, len(in))
	for _, t := range in {
		out = append(out, engine.TargetCreateOptions{
			Name:      t.Name,
			Country:   t.Country,
			Notes:     t.Notes,
			Completed: t.Completed,
		})
	}
	return out
}
