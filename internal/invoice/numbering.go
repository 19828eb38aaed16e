package invoice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var numeroRe = regexp.MustCompile(`^FT-(\d{4})-(\d+)$`)

// NextNumber computes the next sequential fatura number for the given
// year, in the form FT-<year>-NNN. The sequence is derived by scanning
// the existing list instead of a stored counter, so gaps left by
// removed faturas are tolerated; the result never collides with a
// number already in the list.
func NextNumber(faturas []Fatura, year int) string {
	prefix := fmt.Sprintf("FT-%d-", year)

	max := 0

	for _, f := range faturas {
		numero := strings.TrimSpace(f.Numero)
		if !strings.HasPrefix(numero, prefix) {
			continue
		}

		m := numeroRe.FindStringSubmatch(numero)
		if m == nil {
			continue
		}

		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}

		if n > max {
			max = n
		}
	}

	return fmt.Sprintf("%s%03d", prefix, max+1)
}
