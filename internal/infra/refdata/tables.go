// Package refdata maps numeric fault codes to human readable descriptions
// using the static CID/FMI/EID reference spreadsheets.
package refdata

import (
	"strconv"
	"strings"

	"github.com/inancsarica/boom-guru/internal/domain/analysis"
)

// NotFound is returned for any code the tables cannot resolve.
const NotFound = "Description not found"

// Tables holds the loaded reference data. Immutable after load; shared
// read-only across concurrent sessions.
type Tables struct {
	cid map[int]string
	fmi map[int]string
	eid map[int]string
}

// New builds tables from in-memory maps. Used by tests and by LoadDir.
func New(cid, fmi, eid map[int]string) *Tables {
	return &Tables{cid: cid, fmi: fmi, eid: eid}
}

// Describe resolves a code of the given type. Total by contract: malformed
// codes, unknown integers and unknown code types all yield NotFound.
func (t *Tables) Describe(codeType, code string) string {
	switch codeType {
	case analysis.CodeTypeCIDFMI:
		return t.describeCIDFMI(code)
	case analysis.CodeTypeEID:
		return t.describeEID(code)
	default:
		return NotFound
	}
}

// describeCIDFMI resolves a "<CID>-<FMI>" pair into "<CID desc> - <FMI desc>".
func (t *Tables) describeCIDFMI(code string) string {
	parts := strings.SplitN(code, "-", 2)
	if len(parts) != 2 {
		return NotFound
	}
	cid, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return NotFound
	}
	fmi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return NotFound
	}
	cidDesc, ok := t.cid[cid]
	if !ok {
		return NotFound
	}
	fmiDesc, ok := t.fmi[fmi]
	if !ok {
		return NotFound
	}
	return cidDesc + " - " + fmiDesc
}

func (t *Tables) describeEID(code string) string {
	eid, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return NotFound
	}
	desc, ok := t.eid[eid]
	if !ok {
		return NotFound
	}
	return desc
}
