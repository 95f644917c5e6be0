// Package csvio converts between card drafts and the six-column CSV
// interchange format used by the browser import/export flow and the CLI
// importer. The column order and header labels are a versioned contract;
// changing either breaks every previously exported file.
package csvio

import (
	"errors"
	"fmt"
	"strings"
)

// FieldCount is the fixed number of columns per row.
const FieldCount = 6

// Header holds the fixed column labels, in column order:
// front word, front hint, front description, back word, back hint,
// back description.
var Header = [FieldCount]string{
	"表面の単語",
	"表面のヒント",
	"表面の説明",
	"裏面の単語",
	"裏面のヒント",
	"裏面の説明",
}

// bom prefixes all output so spreadsheet tools detect UTF-8.
const bom = "\uFEFF"

// ErrEmptyInput is returned by Decode when the input has no data rows at all
// (fewer than two non-blank records, i.e. at most a header).
var ErrEmptyInput = errors.New("csv input is empty or has no data rows")

// CardDraft is one parsed row: the card content without identity or order.
// Absent optional fields are empty strings.
type CardDraft struct {
	FrontWord        string `json:"front_word"`
	FrontHint        string `json:"front_hint"`
	FrontDescription string `json:"front_description"`
	BackWord         string `json:"back_word"`
	BackHint         string `json:"back_hint"`
	BackDescription  string `json:"back_description"`
}

// Encode renders cards as a BOM-prefixed CSV blob with a header row.
// A field is quoted only when it contains a comma, a quote or a newline;
// quotes inside quoted fields are doubled.
func Encode(cards []CardDraft) string {
	var b strings.Builder
	b.WriteString(bom)
	b.WriteString(strings.Join(Header[:], ","))
	for _, card := range cards {
		b.WriteByte('\n')
		b.WriteString(encodeRow([FieldCount]string{
			card.FrontWord,
			card.FrontHint,
			card.FrontDescription,
			card.BackWord,
			card.BackHint,
			card.BackDescription,
		}))
	}
	return b.String()
}

func encodeRow(fields [FieldCount]string) string {
	escaped := make([]string, FieldCount)
	for i, f := range fields {
		escaped[i] = escapeField(f)
	}
	return strings.Join(escaped, ",")
}

func escapeField(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}

// Decode parses a CSV blob into card drafts. It is best-effort over partially
// malformed input: rows with fewer than six fields, or with an empty front or
// back word, are skipped and reported in warnings rather than failing the
// whole decode. Only total emptiness is an error (ErrEmptyInput).
func Decode(text string) ([]CardDraft, []string, error) {
	text = strings.TrimPrefix(text, bom)

	records := splitRecords(text)
	if len(records) < 2 {
		return nil, nil, ErrEmptyInput
	}

	// First record is the header; it is skipped, not validated, so files
	// saved with localized or reordered labels still import.
	var (
		drafts   []CardDraft
		warnings []string
	)
	for i, record := range records[1:] {
		row := i + 2 // 1-based, counting the header
		fields := parseRecord(record)
		if len(fields) < FieldCount {
			warnings = append(warnings, fmt.Sprintf("row %d: expected %d fields, got %d", row, FieldCount, len(fields)))
			continue
		}
		front := strings.TrimSpace(fields[0])
		back := strings.TrimSpace(fields[3])
		if front == "" || back == "" {
			warnings = append(warnings, fmt.Sprintf("row %d: front or back word is empty", row))
			continue
		}
		drafts = append(drafts, CardDraft{
			FrontWord:        front,
			FrontHint:        strings.TrimSpace(fields[1]),
			FrontDescription: strings.TrimSpace(fields[2]),
			BackWord:         back,
			BackHint:         strings.TrimSpace(fields[4]),
			BackDescription:  strings.TrimSpace(fields[5]),
		})
	}
	return drafts, warnings, nil
}

// splitRecords splits text into logical rows. A newline inside an open quoted
// field continues the current record, so multi-line descriptions survive the
// export/import round trip. Blank records are dropped.
func splitRecords(text string) []string {
	var (
		records  []string
		current  strings.Builder
		inQuotes bool
	)
	flush := func() {
		record := strings.TrimSpace(current.String())
		current.Reset()
		if record != "" {
			records = append(records, record)
		}
	}
	for _, r := range text {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == '\n' && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return records
}

// parseRecord splits one record into fields. A doubled quote inside a quoted
// field is a literal quote; any other quote toggles the quoted state; a comma
// outside quotes ends a field. An unterminated quote swallows the rest of the
// record into the last field rather than erroring, matching the leniency the
// installed base of exported files depends on.
func parseRecord(record string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	runes := []rune(record)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case r == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())
	return fields
}

// templateRows are the sample cards shipped in the onboarding template.
var templateRows = []CardDraft{
	{
		FrontWord:        "Hello",
		FrontHint:        "/həˈloʊ/",
		FrontDescription: "A greeting",
		BackWord:         "こんにちは",
		BackHint:         "挨拶",
		BackDescription:  "人に会ったときの挨拶",
	},
	{
		FrontWord:        "Thank you",
		FrontHint:        "/θæŋk juː/",
		FrontDescription: "Expression of gratitude",
		BackWord:         "ありがとう",
		BackHint:         "感謝",
		BackDescription:  "感謝の気持ちを表す言葉",
	},
	{
		FrontWord:        "Good morning",
		FrontHint:        "/ɡʊd ˈmɔːrnɪŋ/",
		FrontDescription: "Morning greeting",
		BackWord:         "おはよう",
		BackHint:         "朝の挨拶",
		BackDescription:  "朝に使う挨拶",
	},
}

// Template returns the interchange format pre-populated with example rows,
// for users to download before their first import. Deterministic.
func Template() string {
	return Encode(templateRows)
}
