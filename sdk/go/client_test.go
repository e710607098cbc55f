package spycatsdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spycat/internal/breeds"
	"spycat/internal/db"
	"spycat/internal/engine"
	"spycat/internal/migrate"
	"spycat/internal/server"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	conn, dialect, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn, dialect))
	allowed, err := breeds.NewSet("Siamese", "Bengal")
	require.NoError(t, err)
	handler, err := server.New(server.Config{
		Engine:   engine.New(conn, dialect, allowed, nil),
		BasePath: "/v1",
	})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL + "/v1/")
	c.HTTPClient = srv.Client()
	return c
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %v", err)
	assert.Equal(t, status, apiErr.StatusCode)
	assert.Equal(t, code, apiErr.Code)
	assert.NotEmpty(t, apiErr.Message)
}

func TestClientMissionFlow(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	names, err := c.ListBreeds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bengal", "Siamese"}, names)

	cat, err := c.CreateCat(ctx, NewCat{Name: "Tom", ExperienceYears: 4, Breed: "Siamese", Salary: 1000})
	require.NoError(t, err)
	assert.NotZero(t, cat.ID)

	cat, err = c.UpdateCatSalary(ctx, cat.ID, 1250.5)
	require.NoError(t, err)
	assert.Equal(t, 1250.5, cat.Salary)

	m, err := c.CreateMission(ctx, []NewTarget{{Name: "Boris", Country: "LV"}, {Name: "Ivan", Country: "EE"}})
	require.NoError(t, err)
	require.Len(t, m.Targets, 2)
	assert.Nil(t, m.CatID)

	m, err = c.AssignCat(ctx, m.ID, cat.ID)
	require.NoError(t, err)
	require.NotNil(t, m.CatID)
	assert.Equal(t, cat.ID, *m.CatID)

	err = c.DeleteCat(ctx, cat.ID)
	requireAPIError(t, err, http.StatusNotFound, "conflict")

	tgt, err := c.UpdateTargetNotes(ctx, m.ID, m.Targets[0].ID, "seen at the port & the station")
	require.NoError(t, err)
	assert.Equal(t, "seen at the port & the station", tgt.Notes)

	for _, target := range m.Targets {
		tgt, err := c.CompleteTarget(ctx, m.ID, target.ID)
		require.NoError(t, err)
		assert.True(t, tgt.Completed)
	}

	m, err = c.GetMission(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, m.Completed)
	assert.Nil(t, m.CatID)

	_, err = c.UpdateTargetNotes(ctx, m.ID, m.Targets[0].ID, "too late")
	requireAPIError(t, err, http.StatusBadRequest, "invalid_state")

	require.NoError(t, c.DeleteMission(ctx, m.ID))
	require.NoError(t, c.DeleteCat(ctx, cat.ID))

	cats, err := c.ListCats(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
	missions, err := c.ListMissions(ctx)
	require.NoError(t, err)
	assert.Empty(t, missions)
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.CreateCat(ctx, NewCat{Name: "Rex", Breed: "Dragon"})
	requireAPIError(t, err, http.StatusBadRequest, "invalid_argument")

	_, err = c.GetCat(ctx, 99)
	requireAPIError(t, err, http.StatusNotFound, "not_found")

	_, err = c.CreateMission(ctx, []NewTarget{})
	requireAPIError(t, err, http.StatusBadRequest, "invalid_argument")

	_, err = c.CompleteTarget(ctx, 1, 1)
	requireAPIError(t, err, http.StatusNotFound, "not_found")
}
