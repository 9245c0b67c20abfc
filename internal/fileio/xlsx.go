package fileio

import (
	"bytes"
	"io"

	excelize "github.com/xuri/excelize/v2"

	"pricebook-recon/internal/reconcile/model"
)

func readXLSX(r io.Reader, headerRow int) (model.Snapshot, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return model.Snapshot{}, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return model.Snapshot{}, err
	}
	defer f.Close()

	names := f.GetSheetList()
	return assembleWorkbook(names, func(i int) ([][]string, error) {
		return f.GetRows(names[i])
	}, headerRow)
}
