package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dpereira/faturacao/internal/client"
	enc "github.com/dpereira/faturacao/internal/encoding"
	"github.com/dpereira/faturacao/internal/nif"
)

// Result is the outcome of parsing a client list: the importable rows
// plus how many were dropped over an invalid NIF.
type Result struct {
	Clients []client.CreateParams
	Skipped int
}

// Parser reads client list CSV exports. It auto-detects the column
// layout by matching headers against known profiles and tolerates the
// preamble rows spreadsheet exports often carry before the header.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) (*Result, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)

	reader := csv.NewReader(br)
	reader.Comma = detectDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching client list format found: expected a header with a %q, %q or %q column", "Nome", "Cliente", "Name")
	}

	return parseRows(profile, cols, rows[headerIdx+1:]), nil
}

// detectDelimiter peeks at the buffered content and picks whichever of
// ';' and ',' appears more often. Portuguese exports favour ';'.
func detectDelimiter(br *bufio.Reader) rune {
	buf, _ := br.Peek(4096)

	if strings.Count(string(buf), ";") >= strings.Count(string(buf), ",") {
		return ';'
	}

	return ','
}

// colIndex maps column names to their position in the row.
type colIndex map[string]int

// detectProfile scans rows for a header matching a known profile and
// returns the profile, the column map and the header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts clients from the data rows. Rows without a name
// are ignored silently (footers, blank lines); rows whose NIF fails the
// check digit are counted as skipped so the caller can report them.
func parseRows(p *Profile, cols colIndex, rows [][]string) *Result {
	nameIdx := cols[p.NameCol]

	emailIdx := -1
	if i, ok := cols[p.EmailCol]; ok && p.EmailCol != "" {
		emailIdx = i
	}

	nifIdx := -1
	if i, ok := cols[p.NIFCol]; ok && p.NIFCol != "" {
		nifIdx = i
	}

	result := &Result{}

	for _, row := range rows {
		nome := cellValue(row, nameIdx)
		if nome == "" {
			continue
		}

		params := client.CreateParams{
			Nome:  nome,
			Email: cellValue(row, emailIdx),
			NIF:   cellValue(row, nifIdx),
		}

		if err := nif.Validate(params.NIF); err != nil {
			result.Skipped++
			continue
		}

		result.Clients = append(result.Clients, params)
	}

	return result
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
