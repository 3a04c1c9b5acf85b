package document

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
	"github.com/poiesic/tabulate/core"
	"github.com/xuri/excelize/v2"
)

var errPageTimeout = errors.New("page extraction timed out")

func parsePlain(ctx context.Context, s *Service, name string, data []byte) (*core.ProcessedText, error) {
	content := string(data)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}
	return &core.ProcessedText{Content: content}, nil
}

func parseOffice(ctx context.Context, s *Service, name string, data []byte) (*core.ProcessedText, error) {
	text, err := cat.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return &core.ProcessedText{Content: text}, nil
}

func parsePDF(ctx context.Context, s *Service, name string, data []byte) (*core.ProcessedText, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", name, err)
	}

	var b strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := s.pageText(ctx, page)
		if err != nil {
			// One bad page should not lose the rest of the document
			s.logger.Warn("skipping pdf page", "file", name, "page", i, "err", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(text))
	}
	return &core.ProcessedText{Content: b.String()}, nil
}

// pageText extracts one page in a goroutine. The pdf library can loop or
// panic on malformed content streams.
func (s *Service) pageText(ctx context.Context, page pdf.Page) (string, error) {
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("pdf page panic: %v", r)}
			}
		}()
		text, err := page.GetPlainText(nil)
		ch <- result{text, err}
	}()

	timer := time.NewTimer(s.pageTimeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.text, r.err
	case <-timer.C:
		return "", errPageTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// parseSpreadsheet renders every sheet as a CSV table. The content lists
// the tables under "Title:" headings.
func parseSpreadsheet(ctx context.Context, s *Service, name string, data []byte) (*core.ProcessedText, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", name, err)
	}
	defer f.Close()

	text := &core.ProcessedText{}
	var content strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, name, err)
		}
		if len(rows) == 0 {
			continue
		}
		data, err := toCSV(rows)
		if err != nil {
			return nil, err
		}
		text.Tables = append(text.Tables, core.Table{
			Key:  core.TableKey(name, sheet),
			Name: sheet,
			CSV:  data,
		})
		fmt.Fprintf(&content, "Title: %s\n%s\n", sheet, data)
	}
	text.Content = content.String()
	return text, nil
}

func toCSV(rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}
