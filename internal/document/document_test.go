package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
  "improved_resume": {
    "Contact_Information": {"Name": "Ada Lovelace", "Phone": "555-0100", "Email": "ada@example.com", "Linkedin": "https://linkedin.com/in/ada"},
    "Summary": "Engineer who ships.",
    "Work_Experience": [
      {"Title": "Analyst", "Company": "Engines Ltd", "Dates": "1842-1843", "Responsibilities": "Wrote notes. Published the first program!\nReviewed designs"}
    ],
    "Skills": {"Languages": ["Python", "Go"], "Tools": "Docker, Kubernetes"},
    "Education": [{"Degree": "Mathematics", "School": "Home"}],
    "Certifications": [],
    "Years": 0
  },
  "suggestions": ["Add metrics", "Shorten summary"]
}`

func mustNormalize(t *testing.T, payload string, opts Options) *Document {
	t.Helper()
	raw, err := DecodeOrdered([]byte(payload))
	require.NoError(t, err)
	return Normalize(raw, opts)
}

func TestNormalizeSample(t *testing.T) {
	doc := mustNormalize(t, samplePayload, DefaultOptions())
	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]

	assert.Equal(t, []string{
		"Contact Information", "Summary", "Work Experience", "Skills",
		"Education", "Certifications", "Years", "suggestions",
	}, page.Keys(), "payload key order is the display order")

	assert.Equal(t, &Header{
		Name:    "Ada Lovelace",
		Contact: "555-0100, ada@example.com",
		Link:    "https://linkedin.com/in/ada",
	}, page.Header)

	contact, ok := page.Section("Contact Information")
	require.True(t, ok)
	assert.Equal(t, TypeContact, contact.Type)
	assert.Equal(t, []string{"<strong>Ada Lovelace</strong>", "555-0100", "ada@example.com", "https://linkedin.com/in/ada"}, contact.Lines)

	summary, _ := page.Section("Summary")
	assert.Equal(t, TypeText, summary.Type)
	assert.Equal(t, "Engineer who ships.", summary.Text)

	work, _ := page.Section("Work Experience")
	assert.Equal(t, TypeList, work.Type)
	require.True(t, work.Grouped)
	require.Len(t, work.Groups, 1)
	assert.Equal(t, FieldGroup{
		{Kind: KindTitle, Value: "<strong>Analyst</strong>"},
		{Kind: KindField, Value: "Engines Ltd"},
		{Kind: KindField, Value: "1842-1843"},
		{Kind: KindDescription, Lines: []string{"Wrote notes.", "Published the first program!", "Reviewed designs"}},
	}, work.Groups[0])

	skills, _ := page.Section("Skills")
	assert.Equal(t, TypeSkills, skills.Type)
	assert.Equal(t, []SkillCategory{
		{Category: "Languages", Items: []string{"Python", "Go"}},
		{Category: "Tools", Items: []string{"Docker", "Kubernetes"}},
	}, skills.Skills)

	education, _ := page.Section("Education")
	assert.Equal(t, []string{"Mathematics<br>Home"}, education.Lines)

	certs, _ := page.Section("Certifications")
	assert.Equal(t, TypeList, certs.Type, "empty arrays still produce a section")
	assert.Empty(t, certs.Lines)

	years, _ := page.Section("Years")
	assert.Equal(t, TypeText, years.Type)
	assert.Equal(t, "0", years.Text, "zero is valid text content")

	suggestions, _ := page.Section("suggestions")
	assert.Equal(t, "Suggestions", suggestions.Title)
	assert.Equal(t, []string{"Add metrics", "Shorten summary"}, suggestions.Lines)
}

func TestNormalizeContactModes(t *testing.T) {
	opts := DefaultOptions()
	opts.Contact = ContactHeader
	doc := mustNormalize(t, samplePayload, opts)

	assert.False(t, doc.Pages[0].Has("Contact Information"), "header mode drops the section")
	assert.Equal(t, "Ada Lovelace", doc.Pages[0].Header.Name)

	opts.Contact = ContactHidden
	doc = mustNormalize(t, samplePayload, opts)
	hidden, ok := doc.Pages[0].Section("Contact Information")
	require.True(t, ok)
	assert.Equal(t, TypeContact, hidden.Type)
}

func TestNormalizeDefaults(t *testing.T) {
	inputs := map[string]any{
		"nil":            nil,
		"array":          []any{map[string]any{"a": 1}},
		"string":         "resume",
		"number":         42.0,
		"bool":           true,
		"missing key":    map[string]any{"other": 1},
		"improved array": map[string]any{"improved_resume": []any{"x"}},
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			var doc *Document
			assert.NotPanics(t, func() { doc = Normalize(input, DefaultOptions()) })
			require.Len(t, doc.Pages, 1)
			assert.Empty(t, doc.Pages[0].Sections)
			assert.Equal(t, DefaultName, doc.Pages[0].Header.Name)
		})
	}
}

func TestNormalizeJSONMalformed(t *testing.T) {
	for _, payload := range []string{"", "[", "[1,2]", "\"text\"", "{\"improved_resume\": 5}", "{} extra"} {
		doc := NormalizeJSON([]byte(payload), DefaultOptions())
		assert.Equal(t, Default(), doc, payload)
	}
}

func TestNormalizePlainMap(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"improved_resume":{"Skills":{"Languages":["Python","Go"]}}}`), &raw))

	doc := Normalize(raw, DefaultOptions())
	skills, ok := doc.Pages[0].Section("Skills")
	require.True(t, ok)
	assert.Equal(t, TypeSkills, skills.Type)
	assert.Equal(t, []SkillCategory{{Category: "Languages", Items: []string{"Python", "Go"}}}, skills.Skills)
}

func TestClassifyIsShapeOnly(t *testing.T) {
	raw, err := DecodeOrdered([]byte(samplePayload))
	require.NoError(t, err)
	root, _ := asObject(raw)
	improved, _ := asObject(root.Values["improved_resume"])

	opts := DefaultOptions()
	for _, entry := range NormalizeFields(improved, opts) {
		first := Classify(entry.Label, entry.Value, opts)
		again := Classify(entry.Label, normalizeValue(entry.Key, entry.Value, Options{}), opts)
		assert.Equal(t, first.Type, again.Type, entry.Label)
	}
}

func TestSplitBullets(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"One. Two! Three?", []string{"One.", "Two!", "Three?"}},
		{"Shipped v1.2 release. Done", []string{"Shipped v1.2 release.", "Done"}},
		{"line one\nline two", []string{"line one", "line two"}},
		{"Ends here.\n\n  Next  ", []string{"Ends here.", "Next"}},
		{"...", []string{"..."}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitBullets(tt.in), tt.in)
	}
}

const groupedPayload = `{
  "improved_resume": {
    "Work_Experience": [
      {"Company": "Engines Ltd", "Title": "Analyst", "Role": "Lead", "Dates": "1842-1843", "Responsibilities": ["Wrote notes", "- Kept a log"]},
      {"Company": "Royal Society", "Location": "", "Dates": "1843"},
      {"Title": "Dev", "Company": "- Acme", "Dates": "\\2020", "Responsibilities": "Built it."},
      {},
      "Freelance"
    ],
    "Projects": {"Project_Name": "Engine", "Stack": "Brass\nSteam", "Description": "Designed it. Built it."},
    "Hobbies": ["Chess", "", {"Game": "Go", "Level": ""}, null, "  "]
  }
}`

func TestDraftRoundTrip(t *testing.T) {
	for name, payload := range map[string]string{"sample": samplePayload, "grouped": groupedPayload} {
		doc := mustNormalize(t, payload, DefaultOptions())

		for _, section := range doc.Pages[0].Sections {
			t.Run(name+"/"+section.Key, func(t *testing.T) {
				before := section.Clone()
				ApplyDraft(section, SerializeDraft(section))
				assert.Equal(t, before, section)
			})
		}
	}
}

func TestStarter(t *testing.T) {
	doc := Starter()
	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]
	assert.Equal(t, DefaultHeader(), page.Header)

	var keys []string
	for _, s := range page.Sections {
		keys = append(keys, s.Key)
		t.Run(s.Key, func(t *testing.T) {
			before := s.Clone()
			ApplyDraft(s, SerializeDraft(s))
			assert.Equal(t, before, s)
		})
	}
	assert.Equal(t, []string{"Work Experience", "Projects", "Education", "Achievements", "Summary", "Other"}, keys)

	work, _ := page.Section("Work Experience")
	assert.True(t, work.Grouped)
	assert.Equal(t, "Job Title\nCompany\nLocation\nStart Date - End Date\n- Describe something you achieved in this role", SerializeDraft(work))

	other := Starter()
	other.Pages[0].Sections[0].Groups[0][0].Value = "Changed"
	assert.Equal(t, "Job Title", work.Groups[0][0].Value, "each call builds a fresh document")
}

func TestClassifyGroupsTitleFirst(t *testing.T) {
	doc := mustNormalize(t, groupedPayload, DefaultOptions())
	page := doc.Pages[0]

	work, ok := page.Section("Work Experience")
	require.True(t, ok)
	assert.Equal(t, []FieldGroup{
		{
			{Kind: KindTitle, Value: "<strong>Analyst</strong>"},
			{Kind: KindField, Value: "Engines Ltd"},
			{Kind: KindField, Value: "<strong>Lead</strong>"},
			{Kind: KindField, Value: "1842-1843"},
			{Kind: KindDescription, Lines: []string{"Wrote notes", "- Kept a log"}},
		},
		{
			{Kind: KindTitle, Value: "Royal Society"},
			{Kind: KindField, Value: "1843"},
		},
		{
			{Kind: KindTitle, Value: "<strong>Dev</strong>"},
			{Kind: KindField, Value: "- Acme"},
			{Kind: KindField, Value: `\2020`},
			{Kind: KindDescription, Lines: []string{"Built it."}},
		},
		{
			{Kind: KindTitle, Value: "Freelance"},
		},
	}, work.Groups)

	assert.Contains(t, SerializeDraft(work), "<strong>Dev</strong>\n\\- Acme\n\\\\2020\n- Built it.",
		"field lines that look like bullets are escaped")

	projects, _ := page.Section("Projects")
	assert.Equal(t, []FieldGroup{{
		{Kind: KindTitle, Value: "<strong>Engine</strong>"},
		{Kind: KindField, Value: "Brass Steam"},
		{Kind: KindDescription, Lines: []string{"Designed it.", "Built it."}},
	}}, projects.Groups)

	hobbies, _ := page.Section("Hobbies")
	assert.Equal(t, []string{"Chess", "Go"}, hobbies.Lines, "empty elements are dropped")
}

func TestSerializeGroupDraft(t *testing.T) {
	doc := mustNormalize(t, samplePayload, DefaultOptions())
	work, _ := doc.Pages[0].Section("Work Experience")

	assert.Equal(t,
		"<strong>Analyst</strong>\nEngines Ltd\n1842-1843\n- Wrote notes.\n- Published the first program!\n- Reviewed designs",
		SerializeDraft(work))
}

func TestEmphasisMatchesOriginalKeys(t *testing.T) {
	doc := mustNormalize(t, `{"improved_resume":{"Projects":[{"Project_Name":"Engine","project name":"Loom","name":"Ada","Name":"Babbage"}]}}`, DefaultOptions())
	projects, _ := doc.Pages[0].Section("Projects")

	assert.Equal(t, FieldGroup{
		{Kind: KindTitle, Value: "<strong>Engine</strong>"},
		{Kind: KindField, Value: "Loom"},
		{Kind: KindField, Value: "Ada"},
		{Kind: KindField, Value: "<strong>Babbage</strong>"},
	}, projects.Groups[0])
}

func TestApplyDraftKeepsType(t *testing.T) {
	section := &Section{Key: "w", Type: TypeList, Grouped: true}
	ApplyDraft(section, "Engineer\n2020-2022\nAcme\n- Built things\n- Fixed things\n\n  \nManager\n2023\n\n- Mentored")

	assert.Equal(t, TypeList, section.Type)
	assert.Equal(t, []FieldGroup{
		{
			{Kind: KindTitle, Value: "Engineer"},
			{Kind: KindField, Value: "2020-2022"},
			{Kind: KindField, Value: "Acme"},
			{Kind: KindDescription, Lines: []string{"Built things", "Fixed things"}},
		},
		{
			{Kind: KindTitle, Value: "Manager"},
			{Kind: KindField, Value: "2023"},
		},
		{
			{Kind: KindDescription, Lines: []string{"Mentored"}},
		},
	}, section.Groups)

	skills := &Section{Type: TypeSkills}
	ApplyDraft(skills, "Languages: Go, Rust\n\nGit")
	assert.Equal(t, []SkillCategory{
		{Category: "Languages", Items: []string{"Go", "Rust"}},
		{Category: "", Items: []string{"Git"}},
	}, skills.Skills)

	text := &Section{Type: TypeText}
	ApplyDraft(text, "  keep\n\nas is ")
	assert.Equal(t, "  keep\n\nas is ", text.Text)
}

func TestSnapshotRestore(t *testing.T) {
	doc := mustNormalize(t, samplePayload, DefaultOptions())

	snapshot, err := doc.Snapshot()
	require.NoError(t, err)

	restored, err := Restore(snapshot)
	require.NoError(t, err)
	assert.Equal(t, doc, restored)

	again, err := restored.Snapshot()
	require.NoError(t, err)
	assert.JSONEq(t, string(snapshot), string(again))
}

func TestSnapshotEmptyContent(t *testing.T) {
	page := NewPage(nil)
	require.NoError(t, page.Add(&Section{Key: "a", Title: "A", Type: TypeList}))
	require.NoError(t, page.Add(&Section{Key: "b", Title: "B", Type: TypeSkills}))
	doc := &Document{Pages: []*Page{page}}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pages":[{"sections":[
		{"key":"a","title":"A","type":"list","content":[]},
		{"key":"b","title":"B","type":"skills","content":[]}
	]}]}`, string(data))
}

func TestRestoreRejectsDuplicateKeys(t *testing.T) {
	_, err := Restore([]byte(`{"pages":[{"sections":[
		{"key":"a","title":"A","type":"text","content":""},
		{"key":"a","title":"A","type":"text","content":""}
	]}]}`))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestPageRemoveIsTotal(t *testing.T) {
	doc := mustNormalize(t, samplePayload, DefaultOptions())
	page := doc.Pages[0]
	before := page.Clone()

	assert.True(t, page.Remove("Skills"))
	assert.False(t, page.Has("Skills"))
	assert.False(t, page.Remove("Skills"))

	for _, s := range page.Sections {
		original, ok := before.Section(s.Key)
		require.True(t, ok)
		assert.Equal(t, original, s)
	}
	assert.Len(t, page.Sections, len(before.Sections)-1)
}

func TestUniqueKey(t *testing.T) {
	page := NewPage(nil)
	require.NoError(t, page.Add(&Section{Key: "Skills", Type: TypeText}))
	assert.Equal(t, "Other", page.UniqueKey("Other"))
	assert.Equal(t, "Skills-2", page.UniqueKey("Skills"))
	assert.ErrorIs(t, page.Add(&Section{Key: "Skills", Type: TypeText}), ErrDuplicateKey)
}

func TestDecodeOrderedKeepsOrder(t *testing.T) {
	raw, err := DecodeOrdered([]byte(`{"z":1,"a":{"y":true,"b":null},"m":[1,"x"]}`))
	require.NoError(t, err)

	obj, ok := raw.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys)

	inner, ok := obj.Values["a"].(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"y", "b"}, inner.Keys)
	assert.Equal(t, []any{json.Number("1"), "x"}, obj.Values["m"])
}

func TestClassifyFlattenKeys(t *testing.T) {
	raw, err := DecodeOrdered([]byte(`{"improved_resume":{"Projects":[{"Project_Name":"Engine","Stack":"Brass"}]}}`))
	require.NoError(t, err)

	grouped := Normalize(raw, DefaultOptions())
	projects, _ := grouped.Pages[0].Section("Projects")
	assert.True(t, projects.Grouped)

	opts := DefaultOptions()
	opts.FieldGroupKeys = []string{"Work Experience"}
	opts.FlattenKeys = []string{"Projects"}
	flat := Normalize(raw, opts)
	projects, _ = flat.Pages[0].Section("Projects")
	assert.False(t, projects.Grouped)
	assert.Equal(t, []string{"<strong>Engine</strong><br>Brass"}, projects.Lines)
}
