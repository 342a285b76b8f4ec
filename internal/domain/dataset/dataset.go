// Package dataset parses home-run event payloads into an immutable,
// indexed snapshot.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Column names recognized in the header row.
const (
	ColumnTitle        = "title"
	ColumnVideo        = "video"
	ColumnExitVelocity = "ExitVelocity"
	ColumnHitDistance  = "HitDistance"
	ColumnLaunchAngle  = "LaunchAngle"
)

// homerMarker separates the player's name from the rest of a title.
const homerMarker = " homers"

const utf8BOM = "\uFEFF"

// EventRecord is one recorded home run. Metrics stay as the raw strings
// from the payload; profile aggregation parses them.
type EventRecord struct {
	Title        string
	Video        string
	ExitVelocity string
	HitDistance  string
	LaunchAngle  string
}

// PlayerName extracts the name portion of a title: the text before the
// first " homers". It reports false when the marker is absent or the
// name would be empty.
func PlayerName(title string) (string, bool) {
	idx := strings.Index(title, homerMarker)
	if idx <= 0 {
		return "", false
	}
	return title[:idx], true
}

// Dataset is an immutable snapshot of event records. It is safe for
// concurrent readers.
type Dataset struct {
	records []EventRecord
	// byTitle holds record positions ordered by title, so every prefix
	// maps to one contiguous run.
	byTitle []int
	names   []string
	dropped int
}

// New builds a Dataset from records already in memory. The slice is copied.
func New(records []EventRecord) *Dataset {
	d := &Dataset{records: append([]EventRecord(nil), records...)}
	d.index()
	return d
}

// Parse reads a comma-separated payload with a header row. Blank lines are
// skipped and rows that cannot be read or have the wrong number of columns
// are dropped. Each physical line is one row, so a quote left open drops
// only its own line. Only an unreadable payload as a whole is an error.
func Parse(r io.Reader) (*Dataset, error) {
	lines := bufio.NewReader(r)

	var (
		cols   columns
		header bool
		d      = &Dataset{}
	)
	for {
		line, readErr := lines.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrUnreadable, readErr)
		}

		if strings.TrimSpace(line) != "" {
			row, err := splitLine(line)
			switch {
			case !header:
				if err != nil {
					return nil, fmt.Errorf("%w: read header: %w", ErrUnreadable, err)
				}
				if cols, err = resolveColumns(row); err != nil {
					return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
				}
				header = true
			case err != nil, len(row) != cols.width:
				d.dropped++
			default:
				d.records = append(d.records, cols.record(row))
			}
		}

		if readErr != nil {
			break
		}
	}
	if !header {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, ErrEmptyPayload)
	}

	d.index()
	return d, nil
}

// splitLine parses one physical line into fields. Stray quotes inside an
// unquoted field are kept as text.
func splitLine(line string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.Read()
}

type columns struct {
	width                                   int
	title, video, exitVelo, dist, launchAng int
}

func resolveColumns(header []string) (columns, error) {
	c := columns{width: len(header), title: -1, video: -1, exitVelo: -1, dist: -1, launchAng: -1}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		switch h {
		case ColumnTitle:
			c.title = i
		case ColumnVideo:
			c.video = i
		case ColumnExitVelocity:
			c.exitVelo = i
		case ColumnHitDistance:
			c.dist = i
		case ColumnLaunchAngle:
			c.launchAng = i
		}
	}
	if c.title < 0 {
		return c, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnTitle)
	}
	return c, nil
}

func (c columns) record(row []string) EventRecord {
	field := func(i int) string {
		if i < 0 {
			return ""
		}
		return row[i]
	}
	return EventRecord{
		Title:        field(c.title),
		Video:        field(c.video),
		ExitVelocity: field(c.exitVelo),
		HitDistance:  field(c.dist),
		LaunchAngle:  field(c.launchAng),
	}
}

func (d *Dataset) index() {
	d.byTitle = make([]int, len(d.records))
	seen := make(map[string]struct{})
	for i, rec := range d.records {
		d.byTitle[i] = i
		name, ok := PlayerName(rec.Title)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		d.names = append(d.names, name)
	}
	sort.SliceStable(d.byTitle, func(a, b int) bool {
		return d.records[d.byTitle[a]].Title < d.records[d.byTitle[b]].Title
	})
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Dropped returns how many rows were discarded while parsing.
func (d *Dataset) Dropped() int {
	if d == nil {
		return 0
	}
	return d.dropped
}

// Records returns a copy of all records in payload order.
func (d *Dataset) Records() []EventRecord {
	if d == nil {
		return nil
	}
	return append([]EventRecord(nil), d.records...)
}

// Names returns the distinct attributable player names in the order they
// first appear.
func (d *Dataset) Names() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.names...)
}

// Matching returns every record whose title starts with prefix, in payload
// order. Matching is case-sensitive and a prefix of a longer name matches
// it too.
func (d *Dataset) Matching(prefix string) []EventRecord {
	if d == nil || len(d.records) == 0 {
		return nil
	}
	lo := sort.Search(len(d.byTitle), func(i int) bool {
		return d.records[d.byTitle[i]].Title >= prefix
	})
	hi := lo
	for hi < len(d.byTitle) && strings.HasPrefix(d.records[d.byTitle[hi]].Title, prefix) {
		hi++
	}
	if hi == lo {
		return nil
	}

	pos := append([]int(nil), d.byTitle[lo:hi]...)
	sort.Ints(pos)
	out := make([]EventRecord, len(pos))
	for i, p := range pos {
		out[i] = d.records[p]
	}
	return out
}
