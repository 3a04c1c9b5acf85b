package core

import (
	"path"
	"strings"
	"time"
)

// ProcessedPrefix is the key namespace of cached document text.
const ProcessedPrefix = "processed/"

// Table is one table extracted from a document, rendered as CSV.
type Table struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	CSV  string `json:"csv"`
}

// ProcessedText is the extracted text of a document, cached so repeated
// batches over the same file skip parsing.
type ProcessedText struct {
	Key          string    `json:"key"`
	OriginalName string    `json:"original_file_name"`
	Content      string    `json:"content"`
	Tables       []Table   `json:"tables,omitempty"`
	// SourceID is the content ID of the bytes the text was extracted from.
	// An entry whose SourceID no longer matches the document is stale.
	SourceID     string    `json:"source_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableKeys returns the keys of the cached tables in order.
func (p *ProcessedText) TableKeys() []string {
	keys := make([]string, len(p.Tables))
	for i, t := range p.Tables {
		keys[i] = t.Key
	}
	return keys
}

// ProcessedKey maps a file identifier to its cache key. The whole cleaned
// path is kept, extension included, so files that only share a base name
// never share an entry: "uploads/report.pdf" becomes
// "processed/uploads/report.pdf.txt".
func ProcessedKey(fileName string) string {
	return ProcessedPrefix + processedName(fileName) + ".txt"
}

// TableKey returns the cache key of a named table extracted from fileName.
func TableKey(fileName, tableName string) string {
	return ProcessedPrefix + processedName(fileName) + "/" + tableName + ".csv"
}

// processedName cleans fileName into a relative path that cannot climb out
// of the processed namespace.
func processedName(fileName string) string {
	name := strings.TrimPrefix(path.Clean("/"+fileName), "/")
	if name == "" {
		return "_"
	}
	return name
}
