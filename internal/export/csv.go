// Package export writes fatura listings as CSV files spreadsheets
// open cleanly.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/dpereira/faturacao/internal/format"
	"github.com/dpereira/faturacao/internal/invoice"
)

// utf8BOM makes Excel pick UTF-8 instead of the local ANSI code page.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var header = []string{"Número", "Data", "Cliente", "Valor", "Estado"}

// CSV renders the faturas, in the order given, as a comma-separated
// file with CRLF line endings and a UTF-8 BOM.
func CSV(faturas []invoice.Fatura) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for _, f := range faturas {
		record := []string{
			f.Numero,
			format.Date(f.Data),
			f.Cliente,
			format.Amount(f.Valor),
			string(f.Estado),
		}

		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing fatura %s: %w", f.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}

	return buf.Bytes(), nil
}

// Filename is the suggested name for an export taken today.
func Filename(now time.Time) string {
	return fmt.Sprintf("faturas_%s.csv", now.Format("2006-01-02"))
}
