package fileio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"pricebook-recon/internal/reconcile/model"
)

// ErrUnsupportedFormat is returned for file extensions without a reader.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// ReadSnapshot выбирает парсер по расширению и собирает снимок каталога.
// headerRow: номер строки заголовков (1-based) для csv/xls/xlsx.
// Снимок без id получает случайный UUID.
func ReadSnapshot(r io.Reader, filename string, headerRow int) (model.Snapshot, error) {
	if headerRow < 1 {
		headerRow = 1
	}
	var (
		snap model.Snapshot
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		snap, err = readJSON(r)
	case ".yaml", ".yml":
		snap, err = readYAML(r)
	case ".xlsx":
		snap, err = readXLSX(r, headerRow)
	case ".xls":
		snap, err = readXLS(r, headerRow)
	case ".csv":
		snap.Items, err = readCSV(r, headerRow)
	default:
		return model.Snapshot{}, fmt.Errorf("%s: %w", filename, ErrUnsupportedFormat)
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	return snap, nil
}

// ReadSnapshotFile opens path and reads it with ReadSnapshot.
func ReadSnapshotFile(path string, headerRow int) (model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Snapshot{}, err
	}
	defer f.Close()
	return ReadSnapshot(f, filepath.Base(path), headerRow)
}

// sheet names per snapshot section, compared after normHeaderKey
var (
	itemSheets   = []string{"items", "products"}
	ruleSheets   = []string{"rules", "pricing_rules"}
	optionSheets = []string{"options", "priced_options"}
)

// assembleWorkbook раскладывает листы книги по секциям снимка.
// Items: лист items/products, иначе первый лист, не занятый правилами или опциями.
func assembleWorkbook(names []string, rowsOf func(i int) ([][]string, error), headerRow int) (model.Snapshot, error) {
	var snap model.Snapshot

	itemIdx := findSheet(names, itemSheets)
	ruleIdx := findSheet(names, ruleSheets)
	optIdx := findSheet(names, optionSheets)
	if itemIdx < 0 {
		for i := range names {
			if i != ruleIdx && i != optIdx {
				itemIdx = i
				break
			}
		}
	}

	for _, sec := range []struct {
		idx int
		dst *[]model.Record
	}{
		{itemIdx, &snap.Items},
		{ruleIdx, &snap.Rules},
		{optIdx, &snap.Options},
	} {
		if sec.idx < 0 {
			continue
		}
		rows, err := rowsOf(sec.idx)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("sheet %q: %w", names[sec.idx], err)
		}
		*sec.dst = rowsToRecords(rows, headerRow)
	}
	return snap, nil
}

func findSheet(names, want []string) int {
	for i, n := range names {
		nk := normHeaderKey(n)
		for _, w := range want {
			if nk == w {
				return i
			}
		}
	}
	return -1
}

// pickHeader берёт строку заголовков и подставляет column_N для пустых.
func pickHeader(rows [][]string, headerRow int) []string {
	idx := headerRow - 1
	if idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	for i, v := range h {
		v = normHeaderKey(v)
		if v == "" {
			v = fmt.Sprintf("column_%d", i+1)
		}
		out[i] = v
	}
	return out
}

// rowsToRecords конвертирует AoA в записи по заголовкам, пропуская полностью пустые строки.
// Пустые ячейки в запись не попадают.
func rowsToRecords(rows [][]string, headerRow int) []model.Record {
	if len(rows) == 0 {
		return nil
	}
	headers := pickHeader(rows, headerRow)
	var out []model.Record
	for r := headerRow; r < len(rows); r++ {
		rec := rows[r]
		m := model.Record{}
		for c := 0; c < len(headers) && c < len(rec); c++ {
			if v := normalizeCell(rec[c]); v != "" {
				if _, dup := m[headers[c]]; !dup {
					m[headers[c]] = v
				}
			}
		}
		if len(m) > 0 {
			out = append(out, m)
		}
	}
	return out
}

var (
	spaceLike  = strings.NewReplacer("\u00A0", " ", "\u202F", " ", "\u2009", " ")
	nonKeyRune = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// normHeaderKey приводит заголовок к snake_case: "List Price ($)" → "list_price".
func normHeaderKey(s string) string {
	s = strings.ToLower(spaceLike.Replace(s))
	s = nonKeyRune.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

func normalizeCell(s string) string {
	return strings.TrimSpace(spaceLike.Replace(s))
}
