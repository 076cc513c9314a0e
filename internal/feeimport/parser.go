package feeimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ParseResult is the materialized content of an upload. Rows holds at most
// the parser's row cap.
type ParseResult struct {
	Headers   []string
	Rows      []ImportRow
	BlankRows int
	Truncated bool
	Notices   []string
	// Delimiter is the field separator of delimited text, zero for workbooks.
	Delimiter rune
}

// rowSource yields raw rows with their 1-based source line. It returns io.EOF
// after the last row.
type rowSource interface {
	next() (line int, cells []string, err error)
	Close() error
}

// Parser turns a normalized upload into ImportRows keyed by header name.
type Parser struct {
	maxRows int
	log     *zap.Logger
}

func NewParser(maxRows int, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{maxRows: maxRows, log: log}
}

// Parse reads the file at path. ext selects the container format; csv input
// must already be UTF-8.
func (p *Parser) Parse(path, ext string) (*ParseResult, error) {
	var (
		src rowSource
		err error
	)
	switch strings.ToLower(ext) {
	case "csv":
		src, err = openCSV(path)
	case "xlsx":
		src, err = openXLSX(path)
	case "xls":
		src, err = openXLS(path)
	default:
		return nil, newError(KindMalformedFile, fmt.Sprintf("unsupported file type %q", ext), nil)
	}
	if err != nil {
		return nil, err
	}
	defer src.Close()

	res, err := p.collect(src)
	if err != nil {
		return nil, err
	}
	if cs, ok := src.(*csvSource); ok {
		res.Delimiter = cs.r.Comma
	}
	p.log.Debug("upload parsed",
		zap.String("ext", ext),
		zap.Int("rows", len(res.Rows)),
		zap.Int("blank_rows", res.BlankRows),
		zap.Bool("truncated", res.Truncated),
	)
	return res, nil
}

func (p *Parser) collect(src rowSource) (*ParseResult, error) {
	_, header, err := src.next()
	if errors.Is(err, io.EOF) {
		return nil, newError(KindMalformedFile, "file is empty: a header row is required", nil)
	}
	if err != nil {
		return nil, err
	}
	headers := normalizeHeader(header)
	if isBlankRow(headers) {
		return nil, newError(KindMalformedFile, "header row is blank", nil)
	}

	res := &ParseResult{Headers: headers}
	for {
		line, cells, err := src.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlankRow(cells) {
			res.BlankRows++
			continue
		}
		if p.maxRows > 0 && len(res.Rows) >= p.maxRows {
			res.Truncated = true
			res.Notices = append(res.Notices, fmt.Sprintf(
				"only the first %d data rows were read; rows from line %d onwards were ignored, split the file to import the rest",
				p.maxRows, line))
			break
		}
		res.Rows = append(res.Rows, NewImportRow(line, headers, cells))
	}
	return res, nil
}

func normalizeHeader(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ---- delimited text ----

type csvSource struct {
	f *os.File
	r *csv.Reader
}

func openCSV(path string) (rowSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(KindMalformedFile, "normalized file could not be opened", err)
	}
	br := bufio.NewReader(f)
	peek, _ := br.Peek(4096)
	if bytes.HasPrefix(peek, bomUTF8) {
		_, _ = br.Discard(len(bomUTF8))
		peek = peek[len(bomUTF8):]
	}

	r := csv.NewReader(br)
	r.Comma = sniffDelimiter(peek)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	return &csvSource{f: f, r: r}, nil
}

func (s *csvSource) next() (int, []string, error) {
	rec, err := s.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, io.EOF
		}
		return 0, nil, newError(KindMalformedFile, "file could not be read as delimited text", err)
	}
	line, _ := s.r.FieldPos(0)
	return line, rec, nil
}

func (s *csvSource) Close() error { return s.f.Close() }

// sniffDelimiter picks the most frequent of comma, semicolon and tab on the
// header line, ignoring quoted text. Ties go to comma.
func sniffDelimiter(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	counts := map[rune]int{}
	inQuotes := false
	for _, b := range sample {
		switch {
		case b == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case b == ',' || b == ';' || b == '\t':
			counts[rune(b)]++
		}
	}
	best := ','
	for _, d := range []rune{';', '\t'} {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// ---- xlsx ----

type xlsxSource struct {
	f    *excelize.File
	rows *excelize.Rows
	line int
}

func openXLSX(path string) (rowSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, newError(KindMalformedFile, "workbook could not be opened", err)
	}
	sheet := f.GetSheetName(0)
	if sheet == "" {
		_ = f.Close()
		return nil, newError(KindMalformedFile, "workbook has no sheets", nil)
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, newError(KindMalformedFile, fmt.Sprintf("sheet %q could not be read", sheet), err)
	}
	return &xlsxSource{f: f, rows: rows}, nil
}

func (s *xlsxSource) next() (int, []string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return 0, nil, newError(KindMalformedFile, "workbook could not be read", err)
		}
		return 0, nil, io.EOF
	}
	s.line++
	cols, err := s.rows.Columns()
	if err != nil {
		return 0, nil, newError(KindMalformedFile, fmt.Sprintf("row %d could not be read", s.line), err)
	}
	return s.line, cols, nil
}

func (s *xlsxSource) Close() error {
	_ = s.rows.Close()
	return s.f.Close()
}

// ---- legacy xls ----

// sliceSource replays rows that were read up front.
type sliceSource struct {
	rows [][]string
	pos  int
}

func (s *sliceSource) next() (int, []string, error) {
	if s.pos >= len(s.rows) {
		return 0, nil, io.EOF
	}
	s.pos++
	return s.pos, s.rows[s.pos-1], nil
}

func (s *sliceSource) Close() error { return nil }

func openXLS(path string) (rowSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(KindMalformedFile, "workbook could not be opened", err)
	}
	defer f.Close()

	rows, err := readXLS(f)
	if err != nil {
		return nil, err
	}
	return &sliceSource{rows: rows}, nil
}

// readXLS loads the first sheet. The xls reader panics on corrupt or sparse
// workbooks, so the whole read is guarded.
func readXLS(r io.ReadSeeker) (rows [][]string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rows = nil
			err = newError(KindMalformedFile, "workbook is corrupt or unsupported", fmt.Errorf("%v", rec))
		}
	}()

	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, newError(KindMalformedFile, "workbook could not be opened", err)
	}
	if wb.NumSheets() == 0 {
		return nil, newError(KindMalformedFile, "workbook has no sheets", nil)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, newError(KindMalformedFile, "workbook has no sheets", nil)
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		rows = append(rows, xlsRow(sheet, i))
	}
	// An empty sheet still reports MaxRow 0.
	if len(rows) == 1 && rows[0] == nil {
		rows = nil
	}
	return rows, nil
}

// xlsRow returns nil for rows the sheet does not store.
func xlsRow(sheet *xls.WorkSheet, i int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()
	row := sheet.Row(i)
	if row == nil {
		return nil
	}
	last := row.LastCol()
	cells = make([]string, last)
	for c := row.FirstCol(); c < last; c++ {
		cells[c] = row.Col(c)
	}
	return cells
}
