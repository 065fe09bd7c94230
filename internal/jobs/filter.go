package jobs

import (
	"fmt"
	"slices"
	"strings"

	"resumecraft/internal/errors"
)

// FilterAll disables a filter dimension.
const FilterAll = "all"

// Salary bands, by the lower bound of the range in LPA.
const (
	SalaryHigh   = "high"   // 8 and above
	SalaryMedium = "medium" // 5 up to 8
	SalaryLow    = "low"    // below 5
)

// Experience bands, by the listing's minimum years.
const (
	ExperienceSenior = "3+"
	ExperienceMid    = "2-3"
	ExperienceJunior = "<2"
)

var (
	salaryBands     = []string{SalaryHigh, SalaryMedium, SalaryLow}
	experienceBands = []string{ExperienceSenior, ExperienceMid, ExperienceJunior}
)

// Filter narrows the listing set. Empty fields and "all" match everything.
type Filter struct {
	Location   string `json:"location,omitempty"`
	Salary     string `json:"salary,omitempty"`
	Experience string `json:"experience,omitempty"`
	Search     string `json:"search,omitempty"`
}

// Validate rejects unknown salary and experience bands.
func (f Filter) Validate() error {
	if !isAll(f.Salary) && !slices.Contains(salaryBands, f.Salary) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown salary filter %q (want %s)", f.Salary, strings.Join(salaryBands, ", ")), nil)
	}
	if !isAll(f.Experience) && !slices.Contains(experienceBands, f.Experience) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown experience filter %q (want %s)", f.Experience, strings.Join(experienceBands, ", ")), nil)
	}
	return nil
}

// Match reports whether l passes every filter dimension.
func (f Filter) Match(l Listing) bool {
	return f.matchLocation(l) && f.matchSalary(l) && f.matchExperience(l) && f.matchSearch(l)
}

func (f Filter) matchLocation(l Listing) bool {
	return isAll(f.Location) || l.Location == f.Location
}

func (f Filter) matchSalary(l Listing) bool {
	if isAll(f.Salary) {
		return true
	}
	low, ok := ParseMinSalary(l.Salary)
	if !ok {
		return false
	}
	switch f.Salary {
	case SalaryHigh:
		return low >= 8
	case SalaryMedium:
		return low >= 5 && low < 8
	default:
		return low < 5
	}
}

func (f Filter) matchExperience(l Listing) bool {
	if isAll(f.Experience) {
		return true
	}
	years := l.RequiredYears()
	switch f.Experience {
	case ExperienceSenior:
		return years >= 3
	case ExperienceMid:
		return years >= 2 && years < 3
	default:
		return years < 2
	}
}

func (f Filter) matchSearch(l Listing) bool {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(l.Title), term) || strings.Contains(strings.ToLower(l.Company), term) {
		return true
	}
	return slices.ContainsFunc(l.Skills, func(s string) bool {
		return strings.Contains(strings.ToLower(s), term)
	})
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, FilterAll)
}

// Recommendation is a listing that passed the filter, with its score.
type Recommendation struct {
	Listing    Listing    `json:"listing"`
	Score      int        `json:"score"`
	Components Components `json:"components"`
	Label      string     `json:"label"`
}

// Apply filters listings and ranks what is left by score, best first.
// Listings with equal scores keep their input order.
func Apply(listings []Listing, f Filter, p *Profile) ([]Recommendation, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	out := make([]Recommendation, 0, len(listings))
	for _, l := range listings {
		if !f.Match(l) {
			continue
		}
		c := Breakdown(l, p)
		out = append(out, Recommendation{Listing: l, Score: c.Total, Components: c, Label: MatchLabel(c.Total)})
	}
	slices.SortStableFunc(out, func(a, b Recommendation) int { return b.Score - a.Score })
	return out, nil
}

// Locations lists the distinct listing locations in first-seen order.
func Locations(listings []Listing) []string {
	var out []string
	for _, l := range listings {
		if !slices.Contains(out, l.Location) {
			out = append(out, l.Location)
		}
	}
	return out
}
