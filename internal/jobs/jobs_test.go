package jobs

import (
	"testing"

	"resumecraft/internal/document"
	"resumecraft/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreExample(t *testing.T) {
	listing := Listing{Skills: []string{"React", "Node.js"}, Experience: "Minimum: 2 years", Location: "Bangalore"}
	profile := &Profile{Skills: []string{"react", "aws"}, Experience: 2, Location: "Bangalore"}

	assert.Equal(t, Components{Skills: 25, Experience: 30, Location: 20, Total: 75}, Breakdown(listing, profile))
	assert.Equal(t, 75, Score(listing, profile))
}

func TestScoreNilProfile(t *testing.T) {
	for _, l := range Seed() {
		assert.Equal(t, 0, Score(l, nil), l.ID)
	}
	assert.Equal(t, Components{}, Breakdown(Seed()[0], nil))
}

func TestScorePartialExperience(t *testing.T) {
	listing := Listing{Experience: "Minimum: 3 years", Location: "Pune"}
	assert.Equal(t, 20, Score(listing, &Profile{Experience: 2}))
	assert.Equal(t, 0, Score(listing, &Profile{Experience: -4}), "negative years count as zero")
	assert.Equal(t, 30, Score(Listing{Location: "Pune"}, &Profile{}), "no requirement gives full experience credit")
	assert.Equal(t, 50, Score(Listing{}, &Profile{}), "empty locations are equal")
}

func TestScoreSubstringMatch(t *testing.T) {
	listing := Listing{Skills: []string{"Java"}, Experience: "Minimum: 0 years", Location: "Pune"}
	assert.Equal(t, 80, Score(listing, &Profile{Skills: []string{"JavaScript"}}),
		"a candidate skill containing the required skill matches")
	assert.Equal(t, 30, Score(listing, &Profile{Skills: []string{"Jav"}}))
	assert.Equal(t, 30, Score(listing, &Profile{Location: "pune"}), "location must match exactly")
}

func TestScoreBounded(t *testing.T) {
	profiles := []*Profile{
		{},
		{Experience: 40},
		{Skills: []string{""}, Experience: 0, Location: "Delhi"},
		MockProfile(),
		{Skills: []string{"Jenkins", "Kubernetes", "Docker", "Terraform", "AWS", "Linux", "Java", "C#"}, Experience: 10, Location: "Delhi"},
	}
	for _, l := range Seed() {
		for _, p := range profiles {
			s := Score(l, p)
			assert.GreaterOrEqual(t, s, 0)
			assert.LessOrEqual(t, s, MaxScore)
		}
	}

	perfect := Score(Seed()[4], profiles[4])
	assert.Equal(t, 100, perfect)
}

func TestScoreMonotonicInSkills(t *testing.T) {
	for _, l := range Seed() {
		p := &Profile{Experience: 1, Location: "Delhi"}
		prev := Score(l, p)
		for _, skill := range l.Skills {
			p.Skills = append(p.Skills, skill)
			next := Score(l, p)
			assert.GreaterOrEqual(t, next, prev, "%s after adding %s", l.ID, skill)
			prev = next
		}
	}
}

func TestParseRequiredYears(t *testing.T) {
	tests := map[string]int{
		"Minimum: 2 years": 2,
		"Minimum: 1 year":  1,
		"3+ years":         3,
		"Minimum: none":    0,
		"":                 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseRequiredYears(in), in)
	}
}

func TestParseMinSalary(t *testing.T) {
	v, ok := ParseMinSalary("2.42 LPA - 2.45 LPA")
	require.True(t, ok)
	assert.Equal(t, 2.42, v)

	v, ok = ParseMinSalary("8 LPA - 14 LPA")
	require.True(t, ok)
	assert.Equal(t, 8.0, v)

	_, ok = ParseMinSalary("negotiable")
	assert.False(t, ok)
}

func TestMatchLabel(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "Excellent Match"},
		{80, "Excellent Match"},
		{79, "Good Match"},
		{60, "Good Match"},
		{59, "Fair Match"},
		{40, "Fair Match"},
		{39, "Poor Match"},
		{0, "Poor Match"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchLabel(tt.score), tt.score)
	}
}

func ids(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Listing.ID
	}
	return out
}

func TestApplyRanksByScore(t *testing.T) {
	recs, err := Apply(Seed(), Filter{}, MockProfile())
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "1", "3", "5", "4"}, ids(recs))
	// "JavaScript" contains "Java", so listing 2 matches Java and AWS.
	assert.Equal(t, 67, recs[0].Score)
	assert.Equal(t, "Good Match", recs[0].Label)
	assert.Equal(t, Components{Skills: 17, Experience: 30, Location: 20, Total: 67}, recs[0].Components)
	assert.Equal(t, []int{67, 47, 38, 38, 20}, []int{recs[0].Score, recs[1].Score, recs[2].Score, recs[3].Score, recs[4].Score})
}

func TestApplyFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{Location: "all", Salary: "all", Experience: "all"}, []string{"1", "2", "3", "4", "5"}},
		{"location", Filter{Location: "Mumbai"}, []string{"3"}},
		{"salary high", Filter{Salary: SalaryHigh}, []string{"5"}},
		{"salary medium", Filter{Salary: SalaryMedium}, []string{"2", "3", "4"}},
		{"salary low", Filter{Salary: SalaryLow}, []string{"1"}},
		{"experience senior", Filter{Experience: ExperienceSenior}, []string{"4"}},
		{"experience mid", Filter{Experience: ExperienceMid}, []string{"2", "5"}},
		{"experience junior", Filter{Experience: ExperienceJunior}, []string{"1", "3"}},
		{"search skill", Filter{Search: "aws"}, []string{"2", "5"}},
		{"search company", Filter{Search: " CAPGEMINI "}, []string{"3"}},
		{"search title and skill", Filter{Search: "engineer"}, []string{"1", "2", "3", "4", "5"}},
		{"combined", Filter{Salary: SalaryMedium, Experience: ExperienceMid}, []string{"2"}},
		{"nothing", Filter{Location: "Paris"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A nil profile scores everything 0, so input order is kept.
			recs, err := Apply(Seed(), tt.filter, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(recs))
		})
	}
}

func TestApplyRejectsUnknownBands(t *testing.T) {
	_, err := Apply(Seed(), Filter{Salary: "huge"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = Apply(Seed(), Filter{Experience: "10+"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestLocations(t *testing.T) {
	assert.Equal(t, []string{"Surat", "Bangalore", "Mumbai", "Chennai", "Delhi"}, Locations(Seed()))
}

func TestProfileFromDocument(t *testing.T) {
	doc := document.Default()
	require.NoError(t, doc.Pages[0].Add(&document.Section{
		Key:  "Skills",
		Type: document.TypeSkills,
		Skills: []document.SkillCategory{
			{Category: "Languages", Items: []string{"Go", " Python "}},
			{Category: "Tools", Items: []string{"Docker", "go", ""}},
		},
	}))
	require.NoError(t, doc.Pages[0].Add(&document.Section{Key: "Summary", Type: document.TypeText, Text: "Java"}))

	p := ProfileFromDocument(doc, 4, "Pune")
	assert.Equal(t, &Profile{Skills: []string{"Go", "Python", "Docker"}, Experience: 4, Location: "Pune"}, p)

	assert.Equal(t, &Profile{Experience: 1}, ProfileFromDocument(nil, 1, ""))
}
