// Package jobs scores job listings against a candidate profile and filters
// the recommendation list.
package jobs

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"resumecraft/internal/document"
)

// Score weights. They add up to 100.
const (
	SkillsWeight     = 50
	ExperienceWeight = 30
	LocationWeight   = 20
	MaxScore         = 100
)

// Listing is one job on the recommendations page.
type Listing struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Salary      string   `json:"salary"`
	Experience  string   `json:"experience"`
	Skills      []string `json:"skills"`
	Description []string `json:"description"`
	Perks       []string `json:"perks"`
	Type        string   `json:"type"`
	Posted      string   `json:"posted"`
}

// RequiredYears parses the listing's minimum experience.
func (l Listing) RequiredYears() int { return ParseRequiredYears(l.Experience) }

// Profile is what the scorer knows about the candidate.
type Profile struct {
	Skills     []string `json:"skills"`
	Experience int      `json:"experience"`
	Location   string   `json:"location"`
}

// Components is a score split into its parts. Parts are rounded
// individually, so they do not always add up to Total.
type Components struct {
	Skills     int `json:"skills"`
	Experience int `json:"experience"`
	Location   int `json:"location"`
	Total      int `json:"total"`
}

// Score rates how well the profile fits the listing, from 0 to 100. A nil
// profile scores 0.
func Score(l Listing, p *Profile) int {
	return Breakdown(l, p).Total
}

// Breakdown returns the score together with its components.
func Breakdown(l Listing, p *Profile) Components {
	if p == nil {
		return Components{}
	}
	skills := skillPoints(l.Skills, p.Skills)
	experience := experiencePoints(l.RequiredYears(), p.Experience)
	location := 0.0
	if p.Location == l.Location {
		location = LocationWeight
	}

	total := int(math.Round(skills + experience + location))
	return Components{
		Skills:     int(math.Round(skills)),
		Experience: int(math.Round(experience)),
		Location:   int(location),
		Total:      max(0, min(total, MaxScore)),
	}
}

// skillPoints awards an equal share of SkillsWeight for every required
// skill that some candidate skill contains, ignoring case.
func skillPoints(required, candidate []string) float64 {
	if len(required) == 0 {
		return 0
	}
	have := make([]string, len(candidate))
	for i, s := range candidate {
		have[i] = strings.ToLower(s)
	}

	share := float64(SkillsWeight) / float64(len(required))
	points := 0.0
	for _, req := range required {
		req = strings.ToLower(req)
		for _, s := range have {
			if strings.Contains(s, req) {
				points += share
				break
			}
		}
	}
	return points
}

func experiencePoints(required, years int) float64 {
	years = max(years, 0)
	if years >= required {
		return ExperienceWeight
	}
	return ExperienceWeight * float64(years) / float64(required)
}

// ParseRequiredYears reads the number out of strings such as
// "Minimum: 2 years". Text without a number yields 0.
func ParseRequiredYears(s string) int {
	if _, after, ok := strings.Cut(s, ":"); ok {
		s = after
	}
	n, _ := leadingNumber(s, false)
	return int(n)
}

// ParseMinSalary reads the lower bound of a range such as "7.5 LPA - 12 LPA".
func ParseMinSalary(s string) (float64, bool) {
	return leadingNumber(s, true)
}

// leadingNumber parses the first run of digits in s, optionally with a
// decimal point.
func leadingNumber(s string, decimal bool) (float64, bool) {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c == '.' && decimal && !seenDot {
			seenDot = true
		} else if c < '0' || c > '9' {
			break
		}
		end++
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[start:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// MatchLabel names a score band.
func MatchLabel(score int) string {
	switch {
	case score >= 80:
		return "Excellent Match"
	case score >= 60:
		return "Good Match"
	case score >= 40:
		return "Fair Match"
	default:
		return "Poor Match"
	}
}

// MockProfile is the demo candidate used until a real profile exists.
func MockProfile() *Profile {
	return &Profile{
		Skills:     []string{"JavaScript", "React", "Node.js", "TypeScript", "AWS"},
		Experience: 2,
		Location:   "Bangalore",
	}
}

// ProfileFromDocument collects the skill items of every skills section in
// doc, without duplicates, into a profile.
func ProfileFromDocument(doc *document.Document, years int, location string) *Profile {
	p := &Profile{Experience: years, Location: location}
	if doc == nil {
		return p
	}
	seen := make(map[string]bool)
	for _, page := range doc.Pages {
		for _, s := range page.Sections {
			if s.Type != document.TypeSkills {
				continue
			}
			for _, cat := range s.Skills {
				for _, item := range cat.Items {
					key := strings.ToLower(strings.TrimSpace(item))
					if key == "" || seen[key] {
						continue
					}
					seen[key] = true
					p.Skills = append(p.Skills, strings.TrimSpace(item))
				}
			}
		}
	}
	return p
}
