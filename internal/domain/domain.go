package domain

type Cat struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	ExperienceYears int     `json:"experience_years"`
	Breed           string  `json:"breed"`
	Salary          float64 `json:"salary"`
}

type Mission struct {
	ID        int64    `json:"id"`
	CatID     *int64   `json:"cat_id"`
	Completed bool     `json:"completed"`
	Targets   []Target `json:"targets"`
}

type Target struct {
	ID        int64  `json:"id"`
	MissionID int64  `json:"mission_id"`
	Name      string `json:"name"`
	Country   string `json:"country"`
	Notes     string `json:"notes"`
	Completed bool   `json:"completed"`
}

// Mission size bounds.
const (
	MinTargets = 1
	MaxTargets = 3
)

// AllTargetsCompleted reports whether a mission with these targets counts as
// completed. A mission without targets never does.
func AllTargetsCompleted(targets []Target) bool {
	if len(targets) == 0 {
		return false
	}
	for _, t := range targets {
		if !t.Completed {
			return false
		}
	}
	return true
}

// Assigned reports whether a cat is linked to the mission.
func (m Mission) Assigned() bool {
	return m.CatID != nil
}
