package importer

import (
	"path/filepath"
	"strings"

	"SisContratacoes/internal/apperrors"
)

// Format is the declared layout of an uploaded file.
type Format string

const (
	FormatSpreadsheet   Format = "spreadsheet"
	FormatDelimitedText Format = "delimited_text"
)

var (
	ErrUnsupportedFormat = apperrors.New(apperrors.KindValidation, "unsupported file type")
	ErrEmptyFile         = apperrors.New(apperrors.KindValidation, "file is empty")
	ErrUndecodable       = apperrors.New(apperrors.KindValidation, "file could not be decoded with any supported encoding")
	ErrBadSpreadsheet    = apperrors.New(apperrors.KindValidation, "file is not a readable spreadsheet")
)

// FormatFromFilename maps an upload's extension to its format.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xls":
		return FormatSpreadsheet, nil
	case ".csv", ".txt":
		return FormatDelimitedText, nil
	}
	return "", ErrUnsupportedFormat
}

func (f Format) valid() bool {
	return f == FormatSpreadsheet || f == FormatDelimitedText
}
