package core

import (
	"reflect"
	"testing"
)

func TestProcessedKey(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"report.pdf", "processed/report.pdf.txt"},
		{"uploads/report.pdf", "processed/uploads/report.pdf.txt"},
		{"a/b/report.v2.docx", "processed/a/b/report.v2.docx.txt"},
		{"/abs/./report.pdf", "processed/abs/report.pdf.txt"},
		{"../../etc/passwd", "processed/etc/passwd.txt"},
		{"notes", "processed/notes.txt"},
		{".hidden", "processed/.hidden.txt"},
		{"", "processed/_.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			if got := ProcessedKey(tt.fileName); got != tt.want {
				t.Errorf("ProcessedKey(%q) = %q, want %q", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestProcessedKey_DistinctFiles(t *testing.T) {
	names := []string{
		"clientA/report.txt",
		"clientB/report.txt",
		"clientA/report.md",
		"report.txt",
		"report",
	}
	seen := make(map[string]string)
	for _, name := range names {
		key := ProcessedKey(name)
		if other, ok := seen[key]; ok {
			t.Errorf("ProcessedKey(%q) = ProcessedKey(%q) = %q", name, other, key)
		}
		seen[key] = name
	}
}

func TestTableKey(t *testing.T) {
	if got := TableKey("uploads/sales.xlsx", "Q1"); got != "processed/uploads/sales.xlsx/Q1.csv" {
		t.Errorf("TableKey() = %q", got)
	}
	if TableKey("a/sales.xlsx", "Q1") == TableKey("b/sales.xlsx", "Q1") {
		t.Error("tables of files in different directories share a key")
	}
}

func TestProcessedText_TableKeys(t *testing.T) {
	p := &ProcessedText{Tables: []Table{{Key: "k1"}, {Key: "k2"}}}
	if got := p.TableKeys(); !reflect.DeepEqual(got, []string{"k1", "k2"}) {
		t.Errorf("TableKeys() = %v", got)
	}
	if got := (&ProcessedText{}).TableKeys(); len(got) != 0 {
		t.Errorf("TableKeys() on empty = %v", got)
	}
}
