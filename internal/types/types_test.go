package types

import (
	"testing"

	"resumecraft/internal/jobs"
	"resumecraft/internal/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeTemplates(t *testing.T) {
	descriptors := templates.Builtins()
	summaries := SummarizeTemplates(descriptors)

	require.Len(t, summaries, len(descriptors))
	assert.Equal(t, "1", summaries[0].ID)
	assert.Equal(t, "Classic Sidebar", summaries[0].Name)
	assert.Equal(t, "/improve_resume", summaries[0].Route)
	assert.Equal(t, "/improve_resume2", summaries[1].Route)
}

func TestNewScoreReport(t *testing.T) {
	listing := jobs.Seed()[0]
	profile := jobs.MockProfile()

	report := NewScoreReport(listing, profile)
	assert.Equal(t, jobs.Score(listing, profile), report.Score)
	assert.Equal(t, jobs.MatchLabel(report.Score), report.Label)
	assert.Equal(t, profile.Skills, report.Profile.Skills)

	empty := NewScoreReport(listing, nil)
	assert.Zero(t, empty.Score)
	assert.Equal(t, "Poor Match", empty.Label)
}
