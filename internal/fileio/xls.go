// Надёжный парсер .xls: фиксируем ширину таблицы сами и читаем все ячейки до неё.
package fileio

import (
	"bytes"
	"errors"
	"io"

	xls "github.com/extrame/xls"

	"pricebook-recon/internal/reconcile/model"
)

// вычисляем "реальную" ширину: пробегаем разумное число колонок и ищем непустые
func computeMaxCols(sheet *xls.WorkSheet) int {
	const probeMax = 512
	maxCols := 0
	for i := 0; i <= int(sheet.MaxRow); i++ {
		r := sheet.Row(i)
		if r == nil {
			continue
		}
		for j := 0; j < probeMax; j++ {
			if v := normalizeCell(r.Col(j)); v != "" && j+1 > maxCols {
				maxCols = j + 1
			}
		}
	}
	if maxCols == 0 {
		maxCols = 1
	}
	return maxCols
}

func sheetRows(sheet *xls.WorkSheet) [][]string {
	// фиксируем ширину и читаем все строки до неё (НЕ полагаемся на Row.LastCol())
	maxCols := computeMaxCols(sheet)
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		cols := make([]string, maxCols)
		if row != nil {
			for j := 0; j < maxCols; j++ {
				cols[j] = normalizeCell(row.Col(j))
			}
		}
		rows = append(rows, cols)
	}
	return rows
}

func readXLS(r io.Reader, headerRow int) (model.Snapshot, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return model.Snapshot{}, err
	}

	// старые выгрузки прайсов: cp1252, иногда UTF-8 или cp1251
	var wb *xls.WorkBook
	var lastErr error
	for _, ch := range []string{"windows-1252", "utf-8", "windows-1251"} {
		wb, err = xls.OpenReader(bytes.NewReader(b), ch)
		if err == nil && wb != nil {
			lastErr = nil
			break
		}
		lastErr = err
	}
	if wb == nil {
		if lastErr == nil {
			lastErr = errors.New("xls: failed to open workbook")
		}
		return model.Snapshot{}, lastErr
	}

	names := make([]string, wb.NumSheets())
	for i := range names {
		if s := wb.GetSheet(i); s != nil {
			names[i] = s.Name
		}
	}
	return assembleWorkbook(names, func(i int) ([][]string, error) {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			return nil, nil
		}
		return sheetRows(sheet), nil
	}, headerRow)
}
