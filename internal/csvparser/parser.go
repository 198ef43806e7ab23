// =============================================================================
// ConNL - CSV Grid Reader
// =============================================================================
//
// Some CP reports are republished as CSV exports of the same sheet. This
// module reads them into the same headerless types.Grid the XLSX reader
// produces, so the transforms do not care which format arrived.
//
// FEATURES:
//   - Configurable delimiter (comma, semicolon, tab, pipe)
//   - Legacy encodings (Windows-1252, ISO-8859-1) decoded to UTF-8
//   - Ragged rows and lazy quotes tolerated
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/Kabrax96/ConNL-dev/internal/types"
)

// Settings controls how a CSV export is decoded.
type Settings struct {
	// Delimiter is the field separator. Default: ",".
	Delimiter string

	// Encoding of the source file. Default: "UTF-8".
	// Also accepted: "windows-1252", "iso-8859-1" (alias "latin1").
	Encoding string
}

// DefaultSettings returns comma-separated UTF-8.
func DefaultSettings() Settings {
	return Settings{Delimiter: ",", Encoding: "UTF-8"}
}

// ReadGrid parses a headerless CSV stream into a Grid.
//
// RETURNS:
//   - The parsed Grid (possibly with zero rows).
//   - An error if the encoding is unknown or the CSV is malformed.
func ReadGrid(r io.Reader, settings Settings) (*types.Grid, error) {
	decoded, err := decode(bufio.NewReader(r), settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(decoded)
	configureReader(csvReader, settings)

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}

	return types.NewGrid(rows), nil
}

func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings Settings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Report sheets have a different number of cells per row.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}
