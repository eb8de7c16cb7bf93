// Package ingest loads the demographic and enrollment CSV exports and merges
// them into per-district observation rows keyed by (state, district, month).
// It is deliberately mechanical; all analysis happens downstream.
package ingest

import (
	"encoding/csv"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"niis/internal/enrollment"
	"niis/internal/series"
	pkgerrors "niis/pkg/errors"
)

// Expected CSV headers. Demographic exports carry population snapshots;
// enrollment exports carry cumulative enrollment counts.
var (
	demographicColumns = []string{"state", "district", "date", "demo_age_5_17", "demo_age_18_greater", "total_population"}
	enrollmentColumns  = []string{"state", "district", "date", "age_0_5", "age_5_17", "age_18_greater", "total_enrollments"}
)

const dateLayout = "2006-01-02"

// Loader reads every DEMOGRAPHIC_*.csv and ENROLLMENT_*.csv under a
// directory.
type Loader struct {
	dir     string
	logger  *slog.Logger
	skipped int
}

// NewLoader builds a loader over a data directory.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dir: dir, logger: logger}
}

// SkippedRows reports how many malformed rows the last Load dropped.
func (l *Loader) SkippedRows() int { return l.skipped }

// Load reads and merges all datasets into observation rows, summing counts
// that share a (state, district, date) key after name normalization.
// Malformed rows are counted and dropped rather than failing the load; a
// missing or unreadable file fails it.
func (l *Loader) Load() ([]series.Row, error) {
	l.skipped = 0

	demographics, err := l.loadGlob("DEMOGRAPHIC_*.csv", l.parseDemographicRow)
	if err != nil {
		return nil, err
	}
	enrollments, err := l.loadGlob("ENROLLMENT_*.csv", l.parseEnrollmentRow)
	if err != nil {
		return nil, err
	}
	if len(demographics) == 0 && len(enrollments) == 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "no datasets found under %s", l.dir)
	}

	merged := make(map[mergeKey]*enrollment.Period)
	upsert := func(rows []series.Row) {
		for _, row := range rows {
			key := mergeKey{state: row.State, district: row.District, date: row.Period.Date}
			if existing, ok := merged[key]; ok {
				*existing = sumPeriods(*existing, row.Period)
			} else {
				p := row.Period
				merged[key] = &p
			}
		}
	}
	upsert(demographics)
	upsert(enrollments)

	out := make([]series.Row, 0, len(merged))
	for key, period := range merged {
		out = append(out, series.Row{State: key.state, District: key.district, Period: *period})
	}

	l.logger.Info("datasets merged",
		"rows", len(out),
		"invalid_rows", l.skipped,
		"dir", l.dir)
	return out, nil
}

type mergeKey struct {
	state    string
	district string
	date     time.Time
}

type rowParser func(header map[string]int, record []string) (series.Row, error)

func (l *Loader) loadGlob(pattern string, parse rowParser) ([]series.Row, error) {
	paths, err := fs.Glob(os.DirFS(l.dir), pattern)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "bad dataset glob")
	}

	var rows []series.Row
	for _, name := range paths {
		fileRows, err := l.loadFile(filepath.Join(l.dir, name), parse)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

func (l *Loader) loadFile(path string, parse rowParser) ([]series.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInvalidInput, "failed to open dataset "+filepath.Base(path))
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerRecord, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInvalidInput, "failed to read header of "+filepath.Base(path))
	}
	header := make(map[string]int, len(headerRecord))
	for i, col := range headerRecord {
		header[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var rows []series.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.skipped++
			continue
		}
		row, err := parse(header, record)
		if err != nil {
			l.skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (l *Loader) parseDemographicRow(header map[string]int, record []string) (series.Row, error) {
	base, err := parseIdentity(header, record)
	if err != nil {
		return series.Row{}, err
	}
	base.Period.YouthPopulation = intField(header, record, "demo_age_5_17")
	base.Period.AdultPopulation = intField(header, record, "demo_age_18_greater")
	base.Period.TotalPopulation = intField(header, record, "total_population")
	if base.Period.TotalPopulation < 0 || base.Period.YouthPopulation < 0 || base.Period.AdultPopulation < 0 {
		return series.Row{}, pkgerrors.New(pkgerrors.CodeInvalidInput, "negative population count")
	}
	return base, nil
}

func (l *Loader) parseEnrollmentRow(header map[string]int, record []string) (series.Row, error) {
	base, err := parseIdentity(header, record)
	if err != nil {
		return series.Row{}, err
	}
	base.Period.ChildEnrolled = intField(header, record, "age_0_5")
	base.Period.YouthEnrolled = intField(header, record, "age_5_17")
	base.Period.AdultEnrolled = intField(header, record, "age_18_greater")
	base.Period.TotalEnrollments = intField(header, record, "total_enrollments")
	if base.Period.TotalEnrollments < 0 || base.Period.ChildEnrolled < 0 ||
		base.Period.YouthEnrolled < 0 || base.Period.AdultEnrolled < 0 {
		return series.Row{}, pkgerrors.New(pkgerrors.CodeInvalidInput, "negative enrollment count")
	}
	return base, nil
}

func parseIdentity(header map[string]int, record []string) (series.Row, error) {
	state := CleanStateName(stringField(header, record, "state"))
	district := CleanDistrictName(stringField(header, record, "district"))
	if state == "" || district == "" {
		return series.Row{}, pkgerrors.New(pkgerrors.CodeInvalidInput, "missing state or district")
	}

	date, err := time.Parse(dateLayout, stringField(header, record, "date"))
	if err != nil {
		return series.Row{}, pkgerrors.Wrap(err, pkgerrors.CodeInvalidInput, "bad date")
	}

	return series.Row{
		State:    state,
		District: district,
		Period:   enrollment.Period{Date: date},
	}, nil
}

func stringField(header map[string]int, record []string, column string) string {
	i, ok := header[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// intField tolerates blanks (zero) but flags garbage as -1 so row validation
// drops it.
func intField(header map[string]int, record []string, column string) int64 {
	raw := stringField(header, record, column)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return -1
	}
	return n
}

func sumPeriods(a, b enrollment.Period) enrollment.Period {
	a.TotalPopulation += b.TotalPopulation
	a.TotalEnrollments += b.TotalEnrollments
	a.ChildEnrolled += b.ChildEnrolled
	a.YouthEnrolled += b.YouthEnrolled
	a.AdultEnrolled += b.AdultEnrolled
	a.YouthPopulation += b.YouthPopulation
	a.AdultPopulation += b.AdultPopulation
	return a
}
