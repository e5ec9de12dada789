// Package importer turns rows pasted from a spreadsheet into initiatives.
package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"initiativehub/fieldrules"
	"initiativehub/models"
)

var (
	ErrEmptyInput  = errors.New("nothing to import")
	ErrTooManyRows = errors.New("too many rows")
)

// Column names understood by the importer.
const (
	ColTitle       = "title"
	ColDescription = "description"
	ColStatus      = "status"
	ColPriority    = "priority"
	ColTeam        = "team"
	ColOwner       = "owner"
	ColSponsor     = "executive_sponsor"
	ColStartDate   = "start_date"
	ColTargetDate  = "target_date"
	ColProgress    = "progress"
	ColBudget      = "budget"
	ColTags        = "tags"
	ColNotes       = "notes"
)

// positionalColumns is the column order assumed when the paste has no header.
var positionalColumns = []string{
	ColTitle, ColDescription, ColStatus, ColPriority, ColTeam,
	ColOwner, ColStartDate, ColTargetDate, ColProgress,
}

var headerAliases = map[string]string{
	"title": ColTitle, "initiative": ColTitle, "name": ColTitle, "project": ColTitle,
	"initiative name": ColTitle, "initiative title": ColTitle,
	"description": ColDescription, "desc": ColDescription, "summary": ColDescription, "details": ColDescription,
	"status": ColStatus, "state": ColStatus,
	"priority": ColPriority, "prio": ColPriority,
	"team": ColTeam, "department": ColTeam, "dept": ColTeam, "group": ColTeam,
	"owner": ColOwner, "lead": ColOwner, "dri": ColOwner, "responsible": ColOwner,
	"sponsor": ColSponsor, "executive sponsor": ColSponsor, "exec sponsor": ColSponsor,
	"start": ColStartDate, "start date": ColStartDate, "started": ColStartDate, "kickoff": ColStartDate,
	"target": ColTargetDate, "target date": ColTargetDate, "due": ColTargetDate, "due date": ColTargetDate,
	"end": ColTargetDate, "end date": ColTargetDate, "deadline": ColTargetDate,
	"progress": ColProgress, "%": ColProgress, "% complete": ColProgress,
	"percent complete": ColProgress, "completion": ColProgress,
	"budget": ColBudget, "cost": ColBudget,
	"tags": ColTags, "labels": ColTags,
	"notes": ColNotes, "comments": ColNotes, "comment": ColNotes,
}

// Options tune a single parse.
type Options struct {
	CreateMissing bool
	// Now anchors two-digit years; zero means time.Now.
	Now     time.Time
	MaxRows int
	// Rules, when set, skips rows that leave a required field empty.
	Rules *fieldrules.Rules
}

// Row is one parsed initiative with the input line it came from.
type Row struct {
	Line       int               `json:"line"`
	Initiative models.Initiative `json:"initiative"`
}

type Warning struct {
	Line    int    `json:"line"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Result is the outcome of Parse. Nothing has been written yet.
type Result struct {
	Delimiter      string              `json:"delimiter"`
	HeaderDetected bool                `json:"header_detected"`
	Columns        []string            `json:"columns"`
	Rows           []Row               `json:"rows"`
	Warnings       []Warning           `json:"warnings"`
	Missing        map[string][]string `json:"missing"`
	NewConfigItems []models.ConfigItem `json:"new_config_items"`
}

// Initiatives returns the parsed initiatives in input order.
func (r *Result) Initiatives() []models.Initiative {
	out := make([]models.Initiative, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Initiative
	}
	return out
}

type line struct {
	number int
	text   string
}

// Parse reads pasted spreadsheet text. existing holds the current config
// items used to map status, priority and team cells.
func Parse(text string, existing []models.ConfigItem, opts Options) (*Result, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	delim := DetectDelimiter(lines[0].text)
	res := &Result{
		Delimiter: string(delim),
		Columns:   positionalColumns,
		Rows:      []Row{},
		Warnings:  []Warning{},
	}

	mapper := newConfigMapper(existing, opts.CreateMissing)
	columns := positionalColumns
	first := true
	dataRows := 0

	for _, ln := range lines {
		cells := SplitLine(ln.text, delim)
		if blankRow(cells) || (delim == '|' && isSeparatorRow(cells)) {
			continue
		}

		if first {
			first = false
			if header, ok := detectHeader(cells); ok {
				columns = header
				res.HeaderDetected = true
				res.Columns = header
				continue
			}
		}

		if opts.MaxRows > 0 && len(res.Rows) >= opts.MaxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, opts.MaxRows)
		}

		dataRows++
		row, ok := buildRow(ln.number, cells, columns, mapper, now, opts.Rules, res)
		if ok {
			res.Rows = append(res.Rows, row)
		}
	}

	if dataRows == 0 {
		return nil, ErrEmptyInput
	}

	res.Missing = mapper.missing
	res.NewConfigItems = mapper.planned
	if res.NewConfigItems == nil {
		res.NewConfigItems = []models.ConfigItem{}
	}
	return res, nil
}

func splitLines(text string) []line {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []line
	for i, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, line{number: i + 1, text: l})
	}
	return out
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, ":* ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// detectHeader treats the row as a header when at least two cells name a
// known column. Unknown header cells map to "" and are ignored.
func detectHeader(cells []string) ([]string, bool) {
	columns := make([]string, len(cells))
	matched := 0
	seen := map[string]bool{}
	for i, c := range cells {
		col, ok := headerAliases[normalizeHeader(c)]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		columns[i] = col
		matched++
	}
	return columns, matched >= 2
}

func buildRow(number int, cells, columns []string, mapper *configMapper, now time.Time, rules *fieldrules.Rules, res *Result) (Row, bool) {
	warn := func(field, format string, args ...interface{}) {
		res.Warnings = append(res.Warnings, Warning{Line: number, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	values := map[string]string{}
	for i, c := range cells {
		if i >= len(columns) || columns[i] == "" {
			continue
		}
		values[columns[i]] = c
	}

	in := models.Initiative{
		Title:            values[ColTitle],
		Description:      values[ColDescription],
		Owner:            values[ColOwner],
		ExecutiveSponsor: values[ColSponsor],
		Notes:            values[ColNotes],
		Tags:             ParseTags(values[ColTags]),
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	if in.Title == "" {
		warn(ColTitle, "row skipped: title is empty")
		return Row{}, false
	}

	mark := mapper.checkpoint()
	for _, f := range []struct {
		category string
		dst      *string
	}{
		{models.CategoryStatus, &in.Status},
		{models.CategoryPriority, &in.Priority},
		{models.CategoryTeam, &in.Team},
	} {
		raw := values[f.category]
		value, ok := mapper.resolve(f.category, raw)
		if !ok {
			if value == "" {
				warn(f.category, "unknown %s %q; left empty", f.category, raw)
			} else {
				warn(f.category, "unknown %s %q; using %s", f.category, raw, value)
			}
		}
		*f.dst = value
	}

	for _, f := range []struct {
		col string
		dst **models.Date
	}{
		{ColStartDate, &in.StartDate},
		{ColTargetDate, &in.TargetDate},
	} {
		raw := values[f.col]
		if raw == "" {
			continue
		}
		d, err := ParseDate(raw, now)
		if err != nil {
			warn(f.col, "%v", err)
			continue
		}
		*f.dst = &d
	}
	if in.StartDate != nil && in.TargetDate != nil && in.TargetDate.Before(*in.StartDate) {
		warn(ColTargetDate, "row skipped: target date %s is before start date %s", in.TargetDate, in.StartDate)
		mapper.rollback(mark)
		return Row{}, false
	}

	if raw := values[ColProgress]; raw != "" {
		p, clamped, err := ParseProgress(raw)
		switch {
		case err != nil:
			warn(ColProgress, "%v", err)
		case clamped:
			warn(ColProgress, "progress %q clamped to %d", raw, p)
		}
		in.Progress = p
	}

	if raw := values[ColBudget]; raw != "" {
		b, err := ParseBudget(raw)
		if err != nil {
			warn(ColBudget, "%v", err)
		} else {
			in.Budget = b
		}
	}

	if rules != nil {
		if err := rules.Validate(in); err != nil {
			var missing *fieldrules.MissingFieldsError
			if errors.As(err, &missing) {
				warn(strings.Join(missing.Fields, ","), "row skipped: missing required fields %s", strings.Join(missing.Fields, ", "))
			} else {
				warn("", "row skipped: %v", err)
			}
			mapper.rollback(mark)
			return Row{}, false
		}
	}

	return Row{Line: number, Initiative: in}, true
}
