package category

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sipeta/internal/model"
)

// FieldType tells the form how to collect and validate a value.
type FieldType string

const (
	Text     FieldType = "text"
	TextArea FieldType = "textarea"
	Date     FieldType = "date"
	Number   FieldType = "number"
	Select   FieldType = "select"
)

// DateLayout is the wire format of date fields.
const DateLayout = "2006-01-02"

// Bookkeeping columns present on every category table.
const (
	ColID         = "id"
	ColFileURL    = "file_url"
	ColFileName   = "file_name"
	ColFilePath   = "file_path"
	ColCreatedBy  = "created_by"
	ColCreatedAt  = "created_at"
	ColUpdatedAt  = "updated_at"
	ColDeletingAt = "deleting_at"
)

var hiddenColumns = map[string]bool{
	ColID:         true,
	ColFileURL:    true,
	ColFileName:   true,
	ColFilePath:   true,
	ColCreatedBy:  true,
	ColCreatedAt:  true,
	ColUpdatedAt:  true,
	ColDeletingAt: true,
}

// Field describes one typed input of a category form.
type Field struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

// Category is the declarative schema of one document table.
type Category struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Table  string `json:"table"`
	Folder string `json:"folder"`
	// SectionFolders override Folder for uploads made from the keyed section.
	SectionFolders map[string]string `json:"-"`
	Fields         []Field           `json:"fields"`
	SubjectFields  []string          `json:"-"`
	SearchColumns  []string          `json:"-"`
	// UniqueColumns carry a unique index; inserting a repeat yields a duplicate error.
	UniqueColumns []string `json:"-"`
	Deletable     bool     `json:"deletable"`
	// Accept and MaxSizeMB override the default upload policy when set.
	Accept    string `json:"accept,omitempty"`
	MaxSizeMB int    `json:"max_size_mb,omitempty"`
}

// FolderFor is the bucket folder for uploads made from section.
func (c *Category) FolderFor(section string) string {
	if f, ok := c.SectionFolders[section]; ok {
		return f
	}
	return c.Folder
}

// OwnsPath reports whether key is an object under one of the category folders.
func (c *Category) OwnsPath(key string) bool {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return false
	}
	if strings.HasPrefix(key, c.Folder+"/") {
		return true
	}
	for _, f := range c.SectionFolders {
		if strings.HasPrefix(key, f+"/") {
			return true
		}
	}
	return false
}

// Columns returns the category-specific column names in form order.
func (c *Category) Columns() []string {
	cols := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// Field looks up a field by column name.
func (c *Category) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// DateField is the first date-typed column, used to order the history.
// Empty when the category has none.
func (c *Category) DateField() string {
	for _, f := range c.Fields {
		if f.Type == Date {
			return f.Name
		}
	}
	return ""
}

// Normalize validates submitted form values against the schema and returns the
// column values to insert. Empty strings are stripped, unknown keys dropped.
// Every missing required field is reported, by label, in one ValidationError.
func (c *Category) Normalize(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(c.Fields))
	verr := &ValidationError{}

	for _, f := range c.Fields {
		raw, ok := values[f.Name]
		s := ""
		if ok && raw != nil {
			s = strings.TrimSpace(stringify(raw))
		}
		if s == "" {
			if f.Required {
				verr.Missing = append(verr.Missing, f.Label)
			}
			continue
		}

		v, err := f.parse(raw, s)
		if err != nil {
			verr.addInvalid(f.Label, err.Error())
			continue
		}
		out[f.Name] = v
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return out, nil
}

func (f Field) parse(raw any, s string) (any, error) {
	switch f.Type {
	case Date:
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("must be a date (YYYY-MM-DD)")
		}
		return t, nil
	case Number:
		if n, ok := raw.(float64); ok {
			return n, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return n, nil
	case Select:
		for _, o := range f.Options {
			if o == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("must be one of %s", strings.Join(f.Options, ", "))
	default:
		return s, nil
	}
}

// Subject derives the display subject of a row: the first non-empty value along
// the subject chain, else the category title.
func (c *Category) Subject(fields map[string]any) string {
	for _, name := range c.SubjectFields {
		if v, ok := fields[name]; ok && v != nil {
			if s := strings.TrimSpace(stringify(v)); s != "" {
				return s
			}
		}
	}
	return c.Title
}

// Entry converts a stored record into a history entry.
func (c *Category) Entry(rec model.Record, loc *time.Location) model.Entry {
	if loc == nil {
		loc = time.UTC
	}
	date := rec.CreatedAt
	if df := c.DateField(); df != "" {
		if t, ok := rec.Fields[df].(time.Time); ok && !t.IsZero() {
			date = t
		}
	}
	return model.Entry{
		ID:            rec.ID,
		Category:      c.Key,
		CategoryTitle: c.Title,
		Subject:       c.Subject(rec.Fields),
		Date:          date,
		FileName:      rec.FileName,
		FileURL:       rec.FileURL,
		CreatedAt:     rec.CreatedAt,
		Details:       c.Details(rec, loc),
	}
}

// Details lists every non-bookkeeping field with a humanized label, followed by
// the file link and the upload timestamp.
func (c *Category) Details(rec model.Record, loc *time.Location) []model.Detail {
	details := make([]model.Detail, 0, len(rec.Fields)+2)

	seen := make(map[string]bool, len(rec.Fields))
	for _, f := range c.Fields {
		v, ok := rec.Fields[f.Name]
		if !ok {
			continue
		}
		seen[f.Name] = true
		details = append(details, model.Detail{Key: f.Name, Label: f.Label, Value: displayValue(v)})
	}
	// Columns outside the schema (added to the table later) still show up.
	for _, key := range sortedKeys(rec.Fields) {
		if seen[key] || hiddenColumns[key] {
			continue
		}
		details = append(details, model.Detail{Key: key, Label: Humanize(key), Value: displayValue(rec.Fields[key])})
	}

	if rec.FileURL != "" && rec.FileName != "" {
		details = append(details, model.Detail{Key: "file", Label: "File", Value: rec.FileName, URL: rec.FileURL})
	}
	if !rec.CreatedAt.IsZero() {
		details = append(details, model.Detail{
			Key:   "uploaded_at",
			Label: "Uploaded At",
			Value: rec.CreatedAt.In(loc).Format("02/01/2006 15:04"),
		})
	}
	return details
}

// Humanize turns a column name into a label: "nomor_surat" -> "Nomor Surat".
func Humanize(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func displayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case time.Time:
		return t.Format("02/01/2006")
	default:
		s := stringify(v)
		if s == "" {
			return "-"
		}
		return s
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(DateLayout)
	default:
		return fmt.Sprint(v)
	}
}
