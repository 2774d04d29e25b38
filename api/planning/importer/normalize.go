package importer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"SisContratacoes/internal/clock"
)

// knownRepairs maps words seen in plan exports after a lossy decode replaced
// accented letters with U+FFFD.
var knownRepairs = map[string]string{
	"contrata��o":   "contratação",
	"situa��o":      "situação",
	"execu��o":      "execução",
	"prepara��o":    "preparação",
	"t�tulo":        "título",
	"servi�o":       "serviço",
	"informa��o":    "informação",
	"comunica��o":   "comunicação",
	"aquisi��o":     "aquisição",
	"manuten��o":    "manutenção",
	"�rea":          "área",
	"n�mero":        "número",
	"in�cio":        "início",
	"conclus�o":     "conclusão",
	"dura��o":       "duração",
	"transfer�ncia": "transferência",
	"assist�ncia":   "assistência",
	"t�cnica":       "técnica",
	"cient�fica":    "científica",
	"implementa��o": "implementação",
	"�gil":          "ágil",
	"ag�ncias":      "agências",
	"mobili�rios":   "mobiliários",
	"acess�rios":    "acessórios",
	"an�lise":       "análise",
	"��es":          "ções",
	"��o":           "ção",
}

var repairer = buildRepairer()

// buildRepairer orders the pairs longest first so whole words win over the
// bare suffixes, and adds capitalised and upper-case spellings of each word.
func buildRepairer() *strings.Replacer {
	type pair struct{ old, new string }
	var pairs []pair
	seen := map[string]bool{}
	add := func(old, new string) {
		if !seen[old] {
			seen[old] = true
			pairs = append(pairs, pair{old, new})
		}
	}
	for old, new := range knownRepairs {
		add(old, new)
		add(capitalize(old), capitalize(new))
		add(strings.ToUpper(old), strings.ToUpper(new))
	}
	sort.Slice(pairs, func(i, j int) bool {
		if len(pairs[i].old) != len(pairs[j].old) {
			return len(pairs[i].old) > len(pairs[j].old)
		}
		return pairs[i].old < pairs[j].old
	})
	args := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		args = append(args, p.old, p.new)
	}
	return strings.NewReplacer(args...)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}

// repairText undoes the two corruptions seen in uploads: UTF-8 text that was
// decoded as Windows-1252 ("SituaÃ§Ã£o") and the U+FFFD words above. A lone
// U+FFFD outside a known word is left as is.
func repairText(s string) string {
	if strings.ContainsAny(s, "ÃÂ") {
		if b, err := charmap.Windows1252.NewEncoder().String(s); err == nil && utf8.ValidString(b) && b != s {
			s = b
		}
	}
	if strings.ContainsRune(s, utf8.RuneError) {
		s = repairer.Replace(s)
	}
	return s
}

// normalizeText trims and repairs a text cell; blank cells become nil.
func normalizeText(s string) *string {
	s = strings.TrimSpace(repairText(strings.TrimSpace(s)))
	if s == "" {
		return nil
	}
	return &s
}

var dateLayouts = []string{
	"2/1/2006",
	"2006-1-2",
	"2-1-2006",
}

// maxExcelSerial is 9999-12-31.
const maxExcelSerial = 2958465

// parseDate accepts day-first slash dates, ISO dates (a time suffix is
// ignored) and day-first dash dates, in that order. Spreadsheet cells may also
// carry an Excel serial day number. Anything else is nil.
func parseDate(s string, spreadsheet bool) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if spreadsheet {
		if t, ok := parseExcelSerial(s); ok {
			return &t
		}
	}
	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func parseExcelSerial(s string) (time.Time, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 1 || v > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return time.Time{}, false
	}
	return clock.DateOf(t), true
}

var nonNumeric = regexp.MustCompile(`[^\d,.]`)

// parseCurrency reads Brazilian-formatted money: everything but digits, commas
// and dots is dropped, and when a comma is present it is the decimal mark and
// dots before it group thousands. Unparseable text is zero. The sign is
// dropped along with the other symbols, so results are never negative.
func parseCurrency(s string, spreadsheet bool) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if spreadsheet {
		if d, err := decimal.NewFromString(s); err == nil {
			return d.Abs().Round(2)
		}
	}
	s = nonNumeric.ReplaceAllString(s, "")
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		s = strings.ReplaceAll(parts[0], ".", "") + "." + parts[1]
	}
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}
