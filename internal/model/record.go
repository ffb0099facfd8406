package model

import "time"

// Record is one archived document row of any category.
// Category-specific columns live in Fields keyed by column name; the file
// reference and bookkeeping columns are lifted into typed fields.
type Record struct {
	ID        string         `json:"id"`
	Category  string         `json:"category"`
	Fields    map[string]any `json:"fields"`
	FileURL   string         `json:"file_url"`
	FileName  string         `json:"file_name"`
	FilePath  string         `json:"file_path"`
	CreatedBy string         `json:"created_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Detail is one labelled line of a record's detail dialog.
type Detail struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
	URL   string `json:"url,omitempty"`
}

// Entry is a record prepared for the history table.
type Entry struct {
	ID            string    `json:"id"`
	Category      string    `json:"category"`
	CategoryTitle string    `json:"category_title"`
	Subject       string    `json:"subject"`
	Date          time.Time `json:"date"`
	FileName      string    `json:"file_name"`
	FileURL       string    `json:"file_url"`
	CreatedAt     time.Time `json:"created_at"`
	Details       []Detail  `json:"details"`
}
