package document

import "strings"

// Entry is one top-level payload field after key renaming and emphasis.
type Entry struct {
	Key   string // key as sent by the backend
	Label string // display label
	Value any
}

// Normalize turns a decoded "improved resume" payload into a document.
//
// raw is expected to be an object with an improved_resume object and an
// optional suggestions array. Anything else (nil, arrays, scalars, a missing
// improved_resume) yields Default().
func Normalize(raw any, opts Options) *Document {
	root, ok := asObject(raw)
	if !ok {
		return Default()
	}
	improvedRaw, _ := root.Get("improved_resume")
	improved, ok := asObject(improvedRaw)
	if !ok {
		return Default()
	}

	page := NewPage(buildHeader(improved, opts))
	for _, entry := range NormalizeFields(improved, opts) {
		if opts.Contact == ContactHeader && opts.contact(entry.Key) {
			continue
		}
		section := Classify(entry.Label, entry.Value, opts)
		section.Key = page.UniqueKey(section.Key)
		page.Sections = append(page.Sections, section)
	}

	if suggestions := suggestionLines(root); len(suggestions) > 0 {
		page.Sections = append(page.Sections, &Section{
			Key:   page.UniqueKey("suggestions"),
			Title: "Suggestions",
			Type:  TypeList,
			Lines: suggestions,
		})
	}

	return &Document{Pages: []*Page{page}}
}

// NormalizeJSON decodes data preserving key order and normalizes it.
// Undecodable input yields Default().
func NormalizeJSON(data []byte, opts Options) *Document {
	raw, err := DecodeOrdered(data)
	if err != nil {
		return Default()
	}
	return Normalize(raw, opts)
}

// NormalizeFields renames keys and applies emphasis to the fields of obj.
func NormalizeFields(obj *Object, opts Options) []Entry {
	entries := make([]Entry, 0, obj.Len())
	for _, key := range obj.Keys {
		entries = append(entries, Entry{
			Key:   key,
			Label: Label(key),
			Value: normalizeValue(key, obj.Values[key], opts),
		})
	}
	return entries
}

func normalizeValue(key string, value any, opts Options) any {
	if obj, ok := asObject(value); ok {
		return normalizeObject(obj, opts)
	}
	if arr, ok := value.([]any); ok {
		out := make([]any, len(arr))
		for i, item := range arr {
			if obj, ok := asObject(item); ok {
				out[i] = normalizeObject(obj, opts)
			} else {
				out[i] = item
			}
		}
		return out
	}
	if opts.emphasize(key) {
		if s, ok := scalarString(value); ok && s != "" {
			return Strong(s)
		}
	}
	return value
}

func normalizeObject(obj *Object, opts Options) *Object {
	out := NewObject()
	for _, key := range obj.Keys {
		out.Set(Label(key), normalizeValue(key, obj.Values[key], opts))
	}
	return out
}

// Strong wraps s in the emphasis marker.
func Strong(s string) string {
	return "<strong>" + s + "</strong>"
}

func buildHeader(improved *Object, opts Options) *Header {
	header := DefaultHeader()

	if name, _ := scalarString(lookup(improved, "Name")); name != "" {
		header.Name = name
	}

	var contact *Object
	for _, key := range improved.Keys {
		if opts.contact(key) {
			contact, _ = asObject(improved.Values[key])
			break
		}
	}
	if contact == nil {
		return header
	}

	if name, _ := scalarString(lookup(contact, "Name")); name != "" {
		header.Name = name
	}
	var parts []string
	for _, key := range []string{"Phone", "Email"} {
		if v, _ := scalarString(lookup(contact, key)); v != "" {
			parts = append(parts, v)
		}
	}
	header.Contact = strings.Join(parts, ", ")
	if link, _ := scalarString(lookup(contact, "Linkedin")); link != "" {
		header.Link = link
	}
	header.Github, _ = scalarString(lookup(contact, "Github"))
	if header.Github != "" && (opts.GithubFirst || header.Link == DefaultLink) {
		header.Link = header.Github
	}
	return header
}

// lookup finds key in obj using label matching.
func lookup(obj *Object, key string) any {
	for _, k := range obj.Keys {
		if matchKey([]string{key}, k) {
			return obj.Values[k]
		}
	}
	return nil
}

func suggestionLines(root *Object) []string {
	raw, _ := root.Get("suggestions")
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	lines := make([]string, 0, len(arr))
	for _, item := range arr {
		if s := oneLine(flatten(item, " ")); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}
