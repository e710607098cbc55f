package main

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"spycat/internal/domain"
)

func renderCats(cats []domain.Cat) func(io.Writer) {
	return func(w io.Writer) {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"ID", "Name", "Experience", "Breed", "Salary"})
		for _, c := range cats {
			tw.AppendRow(table.Row{c.ID, c.Name, c.ExperienceYears, c.Breed, strconv.FormatFloat(c.Salary, 'f', 2, 64)})
		}
		tw.Render()
	}
}

func renderMissions(missions []domain.Mission) func(io.Writer) {
	return func(w io.Writer) {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"ID", "Cat", "Completed", "Targets", "Done"})
		for _, m := range missions {
			cat := ""
			if m.CatID != nil {
				cat = strconv.FormatInt(*m.CatID, 10)
			}
			done := 0
			for _, t := range m.Targets {
				if t.Completed {
					done++
				}
			}
			tw.AppendRow(table.Row{m.ID, cat, m.Completed, len(m.Targets), done})
		}
		tw.Render()
	}
}

func renderTargets(m domain.Mission) func(io.Writer) {
	return func(w io.Writer) {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		cat := "unassigned"
		if m.CatID != nil {
			cat = "cat " + strconv.FormatInt(*m.CatID, 10)
		}
		tw.SetTitle("Mission %d (%s, completed=%t)", m.ID, cat, m.Completed)
		tw.AppendHeader(table.Row{"ID", "Name", "Country", "Completed", "Notes"})
		for _, t := range m.Targets {
			tw.AppendRow(table.Row{t.ID, t.Name, t.Country, t.Completed, t.Notes})
		}
		tw.Render()
	}
}

func renderBreeds(names []string) func(io.Writer) {
	return func(w io.Writer) {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Breed"})
		for _, n := range names {
			tw.AppendRow(table.Row{n})
		}
		tw.Render()
	}
}
