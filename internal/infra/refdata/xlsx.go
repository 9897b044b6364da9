package refdata

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Spreadsheet file names expected inside the reference data directory.
const (
	cidFile = "CID_DESCRIPTION.xlsx"
	fmiFile = "FMI_DESCRIPTION.xlsx"
	eidFile = "EID_DESCRIPTION.xlsx"
)

// LoadDir reads the three reference spreadsheets from dir. Each sheet has a
// header row naming the code column (CID, FMI or EID) and a Description
// column. A missing file or column is a fatal configuration error.
func LoadDir(dir string) (*Tables, error) {
	cid, err := loadSheet(filepath.Join(dir, cidFile), "CID")
	if err != nil {
		return nil, err
	}
	fmi, err := loadSheet(filepath.Join(dir, fmiFile), "FMI")
	if err != nil {
		return nil, err
	}
	eid, err := loadSheet(filepath.Join(dir, eidFile), "EID")
	if err != nil {
		return nil, err
	}
	return New(cid, fmi, eid), nil
}

func loadSheet(path, codeColumn string) (map[int]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: open %s", filepath.Base(path))
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("refdata: %s has no sheets", filepath.Base(path))
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("refdata: %s is empty", filepath.Base(path))
	}

	codeIdx, descIdx := -1, -1
	for i, cell := range sheet.Rows[0].Cells {
		switch strings.TrimSpace(cell.String()) {
		case codeColumn:
			codeIdx = i
		case "Description":
			descIdx = i
		}
	}
	if codeIdx < 0 || descIdx < 0 {
		return nil, eris.Errorf("refdata: %s missing %s/Description columns",
			filepath.Base(path), codeColumn)
	}

	out := make(map[int]string, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		if len(row.Cells) <= codeIdx || len(row.Cells) <= descIdx {
			continue
		}
		code, err := strconv.Atoi(strings.TrimSpace(row.Cells[codeIdx].String()))
		if err != nil {
			continue
		}
		out[code] = strings.TrimSpace(row.Cells[descIdx].String())
	}
	return out, nil
}
