package codec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"game-vault/core/utils"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Record kind discriminators, carried in the Type column.
const (
	TypePlatform     = "Platform"
	TypeStatus       = "Status"
	TypePlayWith     = "PlayWith"
	TypePlayedStatus = "PlayedStatus"
	TypeView         = "View"
	TypeGame         = "Game"
)

// Record is one wide flat row: the type discriminator plus the union of all
// per-type fields. Fields that do not belong to the row's type stay zero and
// are written as empty columns.
type Record struct {
	Type string

	// Shared by every kind
	Name string

	// Catalog kinds
	Color     string
	Active    bool
	SortOrder int

	// Status only
	SpecialType string
	IsDefault   bool

	// View only
	Description   string
	Configuration string

	// Game only
	Status         string
	Platform       string
	PlayedStatus   string
	PlayWith       string // comma-joined names
	ReleaseYear    int
	RatingGameplay int
	RatingGraphics int
	RatingStory    int
	RatingSound    int
	Notes          string
	Comment        string
	LogoURL        string
	CoverURL       string
}

// header is the canonical column order of the flat format.
var header = []string{
	"Type", "Name", "Color", "Active", "SortOrder",
	"SpecialType", "IsDefault",
	"Description", "Configuration",
	"Status", "Platform", "PlayedStatus", "PlayWith",
	"ReleaseYear", "RatingGameplay", "RatingGraphics", "RatingStory", "RatingSound",
	"Notes", "Comment", "LogoURL", "CoverURL",
}

// Codec converts between logical records and the delimited flat format.
type Codec struct {
	delimiter rune
	encoding  string
}

// New creates a codec with the given field delimiter and text encoding.
// Supported encodings are "utf-8" (default) and "latin-1"/"iso-8859-1".
func New(delimiter rune, encoding string) (*Codec, error) {
	if delimiter == 0 {
		delimiter = ';'
	}
	switch normalizeEncoding(encoding) {
	case "utf-8", "latin-1":
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	return &Codec{delimiter: delimiter, encoding: normalizeEncoding(encoding)}, nil
}

func normalizeEncoding(enc string) string {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
		return "utf-8"
	case "latin-1", "latin1", "iso-8859-1":
		return "latin-1"
	default:
		return enc
	}
}

// Write serializes records under the canonical header.
func (c *Codec) Write(w io.Writer, records []Record) error {
	if c.encoding == "latin-1" {
		tw := transform.NewWriter(w, charmap.ISO8859_1.NewEncoder())
		defer tw.Close()
		w = tw
	}

	cw := csv.NewWriter(w)
	cw.Comma = c.delimiter

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range records {
		if err := cw.Write(encodeRecord(&records[i])); err != nil {
			return fmt.Errorf("failed to write record %q: %w", records[i].Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses a flat file into records. Decoding is tolerant: unknown columns
// are ignored, missing optional columns get defaults (booleans true, integers
// zero) and malformed scalars in optional columns coerce to the zero value.
// Only an unreadable stream or missing header is an error.
func (c *Codec) Read(r io.Reader) ([]Record, error) {
	if c.encoding == "latin-1" {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.Comma = c.delimiter
	cr.FieldsPerRecord = -1 // rows may be short; missing columns default

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["type"]; !ok {
		return nil, fmt.Errorf("flat file has no Type column")
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rec := decodeRecord(cols, row)
		if rec.Type == "" {
			continue // blank filler line
		}
		records = append(records, rec)
	}
	return records, nil
}

func encodeRecord(r *Record) []string {
	row := make([]string, len(header))
	row[0] = r.Type
	row[1] = r.Name

	switch r.Type {
	case TypePlatform, TypePlayWith, TypePlayedStatus:
		row[2] = r.Color
		row[3] = strconv.FormatBool(r.Active)
		row[4] = strconv.Itoa(r.SortOrder)
	case TypeStatus:
		row[2] = r.Color
		row[3] = strconv.FormatBool(r.Active)
		row[4] = strconv.Itoa(r.SortOrder)
		row[5] = r.SpecialType
		row[6] = strconv.FormatBool(r.IsDefault)
	case TypeView:
		row[7] = r.Description
		row[8] = r.Configuration
	case TypeGame:
		row[9] = r.Status
		row[10] = r.Platform
		row[11] = r.PlayedStatus
		row[12] = r.PlayWith
		row[13] = strconv.Itoa(r.ReleaseYear)
		row[14] = strconv.Itoa(r.RatingGameplay)
		row[15] = strconv.Itoa(r.RatingGraphics)
		row[16] = strconv.Itoa(r.RatingStory)
		row[17] = strconv.Itoa(r.RatingSound)
		row[18] = r.Notes
		row[19] = r.Comment
		row[20] = r.LogoURL
		row[21] = r.CoverURL
	}
	return row
}

func decodeRecord(cols map[string]int, row []string) Record {
	return Record{
		Type:           strings.TrimSpace(field(cols, row, "type")),
		Name:           field(cols, row, "name"),
		Color:          field(cols, row, "color"),
		Active:         boolField(cols, row, "active"),
		SortOrder:      intField(cols, row, "sortorder"),
		SpecialType:    field(cols, row, "specialtype"),
		IsDefault:      boolField(cols, row, "isdefault"),
		Description:    field(cols, row, "description"),
		Configuration:  field(cols, row, "configuration"),
		Status:         field(cols, row, "status"),
		Platform:       field(cols, row, "platform"),
		PlayedStatus:   field(cols, row, "playedstatus"),
		PlayWith:       field(cols, row, "playwith"),
		ReleaseYear:    intField(cols, row, "releaseyear"),
		RatingGameplay: intField(cols, row, "ratinggameplay"),
		RatingGraphics: intField(cols, row, "ratinggraphics"),
		RatingStory:    intField(cols, row, "ratingstory"),
		RatingSound:    intField(cols, row, "ratingsound"),
		Notes:          field(cols, row, "notes"),
		Comment:        field(cols, row, "comment"),
		LogoURL:        field(cols, row, "logourl"),
		CoverURL:       field(cols, row, "coverurl"),
	}
}

func field(cols map[string]int, row []string, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// boolField defaults to true when the column is absent; a present but
// malformed value coerces to false (the zero value), never to an error.
func boolField(cols map[string]int, row []string, name string) bool {
	idx, ok := cols[name]
	if !ok || idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
		return true
	}
	return utils.ToBool(row[idx])
}

// intField defaults to zero on absence and on malformed input.
func intField(cols map[string]int, row []string, name string) int {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return 0
	}
	return utils.ToInt(strings.TrimSpace(row[idx]))
}

// SplitNames splits a comma-joined name list, dropping empties.
func SplitNames(joined string) []string {
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinNames is the inverse of SplitNames.
func JoinNames(names []string) string {
	return strings.Join(names, ", ")
}
