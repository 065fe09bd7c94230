package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"resumecraft/internal/common"
	"resumecraft/internal/config"
	"resumecraft/internal/document"
	"resumecraft/internal/errors"
	"resumecraft/internal/jobs"
	"resumecraft/internal/types"

	"github.com/spf13/cobra"
)

var (
	salaryBands     = []string{jobs.FilterAll, jobs.SalaryHigh, jobs.SalaryMedium, jobs.SalaryLow}
	experienceBands = []string{jobs.FilterAll, jobs.ExperienceSenior, jobs.ExperienceMid, jobs.ExperienceJunior}
)

// profileOptions describe the candidate when no payload is given, and add
// what a payload cannot tell.
type profileOptions struct {
	years    int
	location string
}

func (po *profileOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&po.years, "years", 0, "Candidate years of experience")
	cmd.Flags().StringVar(&po.location, "profile-location", "", "Candidate location")
	_ = cmd.RegisterFlagCompletionFunc("profile-location", completeChoices(jobs.Locations(jobs.Seed())))
}

// build derives the profile from the payload, or starts from the demo
// candidate when there is none.
func (po *profileOptions) build(cmd *cobra.Command, cfg *config.Config, logger *errors.Logger, contents [][]byte) (*jobs.Profile, error) {
	if len(contents) == 0 {
		p := jobs.MockProfile()
		if cmd.Flags().Changed("years") {
			p.Experience = po.years
		}
		if cmd.Flags().Changed("profile-location") {
			p.Location = po.location
		}
		return p, nil
	}
	desc, err := resolveTemplate(cfg, logger, "")
	if err != nil {
		return nil, err
	}
	doc := document.NormalizeJSON(contents[0], desc.Options())
	return jobs.ProfileFromDocument(doc, po.years, po.location), nil
}

func newJobsCmd() *cobra.Command {
	var (
		filter  jobs.Filter
		profile profileOptions
		output  common.CommandConfig
	)

	jobsCmd := &cobra.Command{
		Use:   "jobs [payload-file]",
		Short: "Rank job listings against a resume",
		Long: `Filter the job listings and rank them by how well the candidate matches.

The candidate's skills come from the skills sections of the payload. Without
a payload the demo candidate is used. Salary bands are high (8 LPA and up),
medium (5 to 8) and low (below 5); experience bands are 3+, 2-3 and <2.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if output.OutputFormat == "" {
				output.OutputFormat = "text"
			}
			if err := common.ValidateOutputFormat(output.OutputFormat, []string{"json", "text", "markdown"}); err != nil {
				return err
			}
			if err := common.ValidateChoice("salary", filter.Salary, salaryBands); err != nil {
				return err
			}
			return common.ValidateChoice("experience", filter.Experience, experienceBands)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := runtime(cmd)
			if err != nil {
				return err
			}
			_, registry, err := newFormatters()
			if err != nil {
				return err
			}
			fc := common.FileCommand{
				Logger:     logger,
				Formatters: registry,
				Output:     output,
				MaxBytes:   cfg.Server.MaxBodySize,
				Out:        cmd.OutOrStdout(),
			}
			createInput := func(contents [][]byte) (*jobs.Profile, error) {
				return profile.build(cmd, cfg, logger, contents)
			}
			operation := func(_ context.Context, p *jobs.Profile) ([]jobs.Recommendation, error) {
				return jobs.Apply(jobs.Seed(), filter, p)
			}
			logDetails := func(p *jobs.Profile, _ common.CommandConfig) {
				logger.Info("Ranking job listings",
					"skills", len(p.Skills),
					"experience", p.Experience,
					"location_filter", filter.Location)
			}
			return common.RunFileCommand(cmd.Context(), fc, args, createInput, operation, logDetails)
		},
	}

	flags := jobsCmd.Flags()
	flags.StringVar(&filter.Location, "location", "", "Only listings in this location")
	flags.StringVar(&filter.Salary, "salary", "", "Salary band: high, medium, low or all")
	flags.StringVar(&filter.Experience, "experience", "", "Experience band: 3+, 2-3, <2 or all")
	flags.StringVar(&filter.Search, "search", "", "Search titles, companies and skills")
	flags.StringVarP(&output.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	flags.StringVarP(&output.OutputFormat, "format", "f", "", "Output format: text, markdown or json")
	profile.register(jobsCmd)

	_ = jobsCmd.RegisterFlagCompletionFunc("location", completeChoices(jobs.Locations(jobs.Seed())))
	_ = jobsCmd.RegisterFlagCompletionFunc("salary", completeChoices(salaryBands))
	_ = jobsCmd.RegisterFlagCompletionFunc("experience", completeChoices(experienceBands))
	_ = jobsCmd.RegisterFlagCompletionFunc("format", completeChoices([]string{"json", "text", "markdown"}))
	return jobsCmd
}

func newScoreCmd() *cobra.Command {
	var (
		listingID string
		profile   profileOptions
		output    common.CommandConfig
	)

	scoreCmd := &cobra.Command{
		Use:   "score [payload-file]",
		Short: "Score a resume against one job listing",
		Long: `Score how well the candidate matches a single listing and show the
parts of the score: up to 50 points for required skills, up to 30 for
experience and 20 for a matching location.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if output.OutputFormat == "" {
				output.OutputFormat = "text"
			}
			return common.ValidateOutputFormat(output.OutputFormat, []string{"json", "text"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := runtime(cmd)
			if err != nil {
				return err
			}
			listing, err := findListing(jobs.Seed(), listingID)
			if err != nil {
				return err
			}
			_, registry, err := newFormatters()
			if err != nil {
				return err
			}
			fc := common.FileCommand{
				Logger:     logger,
				Formatters: registry,
				Output:     output,
				MaxBytes:   cfg.Server.MaxBodySize,
				Out:        cmd.OutOrStdout(),
			}
			createInput := func(contents [][]byte) (*jobs.Profile, error) {
				return profile.build(cmd, cfg, logger, contents)
			}
			operation := func(_ context.Context, p *jobs.Profile) (types.ScoreReport, error) {
				return types.NewScoreReport(listing, p), nil
			}
			return common.RunFileCommand(cmd.Context(), fc, args, createInput, operation, nil)
		},
	}

	scoreCmd.Flags().StringVarP(&listingID, "listing", "l", "", "Listing id")
	scoreCmd.Flags().StringVarP(&output.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scoreCmd.Flags().StringVarP(&output.OutputFormat, "format", "f", "", "Output format: text or json")
	profile.register(scoreCmd)
	_ = scoreCmd.MarkFlagRequired("listing")

	_ = scoreCmd.RegisterFlagCompletionFunc("listing", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, l := range jobs.Seed() {
			if strings.HasPrefix(l.ID, toComplete) {
				out = append(out, fmt.Sprintf("%s\t%s at %s", l.ID, l.Title, l.Company))
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
	_ = scoreCmd.RegisterFlagCompletionFunc("format", completeChoices([]string{"json", "text"}))
	return scoreCmd
}

func findListing(listings []jobs.Listing, id string) (jobs.Listing, error) {
	i := slices.IndexFunc(listings, func(l jobs.Listing) bool { return l.ID == id })
	if i < 0 {
		return jobs.Listing{}, errors.NewNotFoundError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("no job listing with id %q", id), nil)
	}
	return listings[i], nil
}
