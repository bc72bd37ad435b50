package checkpoint

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"igaudit/pkg/models"
)

// RawHeader is the column set of raw follower rows
var RawHeader = []string{
	"username",
	"full_name",
	"is_private",
	"has_profile_pic",
	"is_verified",
	"biography",
	"post_count",
	"follower_count",
	"following_count",
	"external_link",
}

// textEscaper escapes backslash and carriage return in free-text columns.
// encoding/csv reads a quoted "\r\n" back as "\n", so a raw CR never reaches
// the file.
var textEscaper = strings.NewReplacer(`\`, `\\`, "\r", `\r`)

// EscapeText makes s safe to store in a CSV text column
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// UnescapeText reverses EscapeText
func UnescapeText(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 == len(s) {
			return "", errors.New("dangling escape at end of field")
		}
		i++
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'r':
			b.WriteByte('\r')
		default:
			return "", fmt.Errorf("unknown escape sequence \\%c", s[i])
		}
	}
	return b.String(), nil
}

// EncodeRecord renders rec as a row in RawHeader order
func EncodeRecord(rec models.FollowerRecord) []string {
	return []string{
		EscapeText(rec.Username),
		EscapeText(rec.FullName),
		strconv.FormatBool(rec.IsPrivate),
		strconv.FormatBool(rec.HasProfilePic),
		strconv.FormatBool(rec.IsVerified),
		EscapeText(rec.Biography),
		strconv.Itoa(rec.PostCount),
		strconv.Itoa(rec.FollowerCount),
		strconv.Itoa(rec.FollowingCount),
		strconv.FormatBool(rec.ExternalLink),
	}
}

// DecodeRecord parses the first len(RawHeader) fields of row
func DecodeRecord(row []string) (models.FollowerRecord, error) {
	if len(row) < len(RawHeader) {
		return models.FollowerRecord{}, fmt.Errorf("expected %d fields, got %d", len(RawHeader), len(row))
	}

	var (
		rec  models.FollowerRecord
		errs []error
	)
	parseBool := func(col int) bool {
		v, err := strconv.ParseBool(row[col])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", RawHeader[col], err))
		}
		return v
	}
	parseInt := func(col int) int {
		v, err := strconv.Atoi(row[col])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", RawHeader[col], err))
		}
		return v
	}
	parseText := func(col int) string {
		v, err := UnescapeText(row[col])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", RawHeader[col], err))
		}
		return v
	}

	rec.Username = parseText(0)
	rec.FullName = parseText(1)
	rec.IsPrivate = parseBool(2)
	rec.HasProfilePic = parseBool(3)
	rec.IsVerified = parseBool(4)
	rec.Biography = parseText(5)
	rec.PostCount = parseInt(6)
	rec.FollowerCount = parseInt(7)
	rec.FollowingCount = parseInt(8)
	rec.ExternalLink = parseBool(9)

	if err := errors.Join(errs...); err != nil {
		return models.FollowerRecord{}, err
	}
	return rec, nil
}

// ReadRows parses CSV data whose first row must equal header and returns the
// data rows. Rows are written one at a time and end with a newline, so a last
// row that is unterminated or unparsable was cut short by a crash and is
// dropped. A bad row followed by more data is an error.
func ReadRows(data []byte, header []string) ([][]string, error) {
	truncated := len(data) > 0 && data[len(data)-1] != '\n'

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	got, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) || truncated {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if truncated && r.InputOffset() == int64(len(data)) {
		return nil, errors.New("missing header row")
	}
	if !slices.Equal(got, header) {
		return nil, fmt.Errorf("unexpected header %v", got)
	}

	var rows [][]string
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// an unterminated quoted field at the cut point
			if truncated {
				break
			}
			// a cut inside a quoted field that happens to end on a newline
			if _, next := r.Read(); errors.Is(next, io.EOF) {
				break
			}
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if truncated && r.InputOffset() == int64(len(data)) {
			break
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d: expected %d fields, got %d", line, len(header), len(row))
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ReadRecords parses raw follower rows from data
func ReadRecords(data []byte) ([]models.FollowerRecord, error) {
	rows, err := ReadRows(data, RawHeader)
	if err != nil {
		return nil, err
	}

	records := make([]models.FollowerRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := DecodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
