package main

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spycat/internal/config"
	"spycat/internal/domain"
)

func TestParseTargetFlag(t *testing.T) {
	opts, err := parseTargetFlag("Boris:Latvia")
	require.NoError(t, err)
	assert.Equal(t, "Boris", opts.Name)
	assert.Equal(t, "Latvia", opts.Country)
	assert.Empty(t, opts.Notes)

	opts, err = parseTargetFlag("Ivan:Estonia:seen at 10:30 near the port")
	require.NoError(t, err)
	assert.Equal(t, "seen at 10:30 near the port", opts.Notes)

	for _, bad := range []string{"Boris", ":Latvia", "Boris: "} {
		_, err := parseTargetFlag(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("cat", " 42 ")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID("cat", bad)
		assert.Error(t, err, bad)
	}
}

func TestApplyOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("dsn", "file:test.db")
	viper.Set("breeds", "s3://agency/breeds.json")
	viper.Set("log-level", "debug")

	cfg := config.Default()
	applyOverrides(cfg)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, "s3://agency/breeds.json", cfg.Breeds.Source)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr)
	require.NoError(t, cfg.Validate())
}

func TestRenderTables(t *testing.T) {
	var buf bytes.Buffer
	renderCats([]domain.Cat{{ID: 1, Name: "Tom", ExperienceYears: 3, Breed: "Siamese", Salary: 1200}})(&buf)
	assert.Contains(t, buf.String(), "Siamese")
	assert.Contains(t, buf.String(), "1200.00")

	buf.Reset()
	cat := int64(1)
	m := domain.Mission{ID: 7, CatID: &cat, Targets: []domain.Target{
		{ID: 1, Name: "Boris", Country: "Latvia", Completed: true},
		{ID: 2, Name: "Ivan", Country: "Estonia", Notes: "port"},
	}}
	renderMissions([]domain.Mission{m})(&buf)
	assert.Contains(t, buf.String(), "7")

	buf.Reset()
	renderTargets(m)(&buf)
	out := buf.String()
	assert.Contains(t, out, "Mission 7 (cat 1")
	assert.Contains(t, out, "Boris")
	assert.Contains(t, out, "port")
}
