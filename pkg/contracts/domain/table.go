package domain

// Row is a single record from an uploaded file, keyed by column header.
// Cell values are kept exactly as read; normalization happens downstream
// and never mutates the stored row.
type Row map[string]any

// NamedTable is an uploaded file's parsed tabular content, keyed by its
// file name. Tables live only for the duration of a dashboard session and
// are replaced wholesale on re-upload.
type NamedTable struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Empty reports whether the table has no data rows.
func (t NamedTable) Empty() bool {
	return len(t.Rows) == 0
}

// UploadWarning describes a file that could not be fully processed.
// Uploads never fail the whole batch; broken files degrade to a warning.
type UploadWarning struct {
	File    string `json:"file"`
	Message string `json:"message"`
}
