package jobs

// Seed returns the built-in listings shown on the recommendations page.
func Seed() []Listing {
	return []Listing{
		{
			ID:          "1",
			Title:       "Angular Developer",
			Company:     "Resolute Solutions",
			Location:    "Surat",
			Salary:      "2.42 LPA - 2.45 LPA",
			Experience:  "Minimum: 1 year",
			Skills:      []string{"Software Engineering", "TypeScript", "Angular", "CSS", "HTML5", "JavaScript"},
			Description: []string{"Developing user interfaces with Angular and JavaScript.", "Ensuring high performance of applications.", "Troubleshooting front-end issues."},
			Perks:       []string{"Learning Allowance", "Counselling", "Support"},
			Type:        "Full-time",
			Posted:      "Mar 12, 2025",
		},
		{
			ID:          "2",
			Title:       "Software Engineer",
			Company:     "CloudSEK",
			Location:    "Bangalore",
			Salary:      "7.5 LPA - 12 LPA",
			Experience:  "Minimum: 2 years",
			Skills:      []string{"Java", "Spring Boot", "AWS", "MongoDB", "Microservices", "REST API"},
			Description: []string{"Developing scalable backend solutions.", "Working with cloud infrastructure.", "Implementing security features."},
			Perks:       []string{"Health Insurance", "Work From Home", "Laptop Provided"},
			Type:        "Full-time",
			Posted:      "Mar 15, 2025",
		},
		{
			ID:          "3",
			Title:       "Software Engineer",
			Company:     "Capgemini",
			Location:    "Mumbai",
			Salary:      "5.5 LPA - 9 LPA",
			Experience:  "Minimum: 1 year",
			Skills:      []string{"Python", "Django", "React", "PostgreSQL", "Git", "Docker"},
			Description: []string{"Full stack development.", "Client communication.", "Agile methodology implementation."},
			Perks:       []string{"Performance Bonus", "Gym Membership", "Free Lunch"},
			Type:        "Full-time",
			Posted:      "Mar 10, 2025",
		},
		{
			ID:          "4",
			Title:       "Software Engineer-Chennai",
			Company:     "Temenos Private Limited",
			Location:    "Chennai",
			Salary:      "6 LPA - 10 LPA",
			Experience:  "Minimum: 3 years",
			Skills:      []string{"C#", ".NET", "SQL Server", "Azure", "WPF", "Entity Framework"},
			Description: []string{"Developing banking solutions.", "Integration testing.", "Documentation and support."},
			Perks:       []string{"Transport Allowance", "Phone Allowance", "Training Programs"},
			Type:        "Full-time",
			Posted:      "Mar 17, 2025",
		},
		{
			ID:          "5",
			Title:       "DevOps Engineer-Delhi",
			Company:     "Technotasks Pvt. Ltd.",
			Location:    "Delhi",
			Salary:      "8 LPA - 14 LPA",
			Experience:  "Minimum: 2 years",
			Skills:      []string{"Jenkins", "Kubernetes", "Docker", "Terraform", "AWS", "Linux"},
			Description: []string{"CI/CD pipeline management.", "Infrastructure as code.", "Monitoring and logging."},
			Perks:       []string{"Career Growth", "Remote Work", "Flexible Hours"},
			Type:        "Full-time",
			Posted:      "Mar 14, 2025",
		},
	}
}
