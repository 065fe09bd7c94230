package document

// Starter returns the document a from-scratch resume begins with: the
// default header for basic information, followed by placeholder work
// experience, projects, education, achievements, summary and other sections.
func Starter() *Document {
	doc := Default()
	page := doc.Pages[0]
	for _, s := range starterSections() {
		// Keys are distinct, so Add cannot fail.
		_ = page.Add(s)
	}
	return doc
}

func starterSections() []*Section {
	return []*Section{
		{
			Key: "Work Experience", Title: "Work Experience", Type: TypeList, Grouped: true,
			Groups: []FieldGroup{{
				{Kind: KindTitle, Value: "Job Title"},
				{Kind: KindField, Value: "Company"},
				{Kind: KindField, Value: "Location"},
				{Kind: KindField, Value: "Start Date - End Date"},
				{Kind: KindDescription, Lines: []string{"Describe something you achieved in this role"}},
			}},
		},
		{
			Key: "Projects", Title: "Projects", Type: TypeList, Grouped: true,
			Groups: []FieldGroup{{
				{Kind: KindTitle, Value: "Project Title"},
				{Kind: KindField, Value: "Overview"},
				{Kind: KindField, Value: "Link"},
				{Kind: KindDescription, Lines: []string{"Describe what you built and how"}},
			}},
		},
		{
			Key: "Education", Title: "Education", Type: TypeList,
			Lines: []string{"Degree<br>College<br>Start Date - End Date"},
		},
		{
			Key: "Achievements", Title: "Achievements", Type: TypeList,
			Lines: []string{"Add an achievement"},
		},
		{
			Key: "Summary", Title: "Summary", Type: TypeText,
			Text: "Write a short summary of your experience and goals",
		},
		{
			Key: "Other", Title: "Other", Type: TypeText,
			Text: "Anything else worth knowing",
		},
	}
}
