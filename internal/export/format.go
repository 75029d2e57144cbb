package export

import (
	"fmt"
	"strings"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	CSV  Format = "csv"
	YAML Format = "yaml"
)

// ParseFormat accepts a format name, case-insensitively. "yml" is an alias for yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string { return string(f) }

// ContentType returns the MIME type used for uploads.
func (f Format) ContentType() string {
	if f == YAML {
		return "application/yaml"
	}
	return "text/csv"
}

// Table names an exported table.
type Table string

// Exported tables.
const (
	Sales   Table = "sales"
	Rounds  Table = "rounds"
	Balance Table = "balance"
	Players Table = "players"
)

// Tables lists every exported table in output order.
var Tables = []Table{Sales, Rounds, Balance, Players}

// ParseTable accepts a table name.
func ParseTable(s string) (Table, error) {
	t := Table(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tables {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTable, s)
}
