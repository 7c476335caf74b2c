package attendance

import (
	"sort"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
)

type (
	// Row is one entity row of a report grid: a StudentRow, a TeacherRow or a ClassRow.
	// Every row holds a cell for every header date; nil cells mean "no record".
	Row interface {
		Kind() ReportType
		EntityID() string
		EntityName() string
	}

	StudentRow struct {
		StudentID string                `json:"student_id"`
		Name      string                `json:"name"`
		ClassID   string                `json:"class_id"`
		Cells     map[core.Date]*Status `json:"cells"`
	}

	TeacherRow struct {
		TeacherID string                `json:"teacher_id"`
		Name      string                `json:"name"`
		Cells     map[core.Date]*Status `json:"cells"`
	}

	// ClassRow cells hold the percentage of the class' students present on that date.
	ClassRow struct {
		ClassID string             `json:"class_id"`
		Name    string             `json:"name"`
		Cells   map[core.Date]*int `json:"cells"`
	}

	Grid struct {
		Headers []core.Date `json:"headers"`
		Rows    []Row       `json:"rows"`
	}

	Tiers struct {
		Good    int `json:"good"`
		Average int `json:"average"`
		Poor    int `json:"poor"`
	}

	Summary struct {
		Present    int   `json:"present"`
		Absent     int   `json:"absent"`
		Late       int   `json:"late"`
		Leave      int   `json:"leave"`
		Total      int   `json:"total"`
		Percentage int   `json:"percentage"`
		Tiers      Tiers `json:"tiers"`
	}

	// EntitySummary is the attendance of one student, teacher or class over a report window.
	EntitySummary struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Present    int    `json:"present"`
		Absent     int    `json:"absent"`
		Late       int    `json:"late"`
		Leave      int    `json:"leave"`
		Total      int    `json:"total"`
		Percentage int    `json:"percentage"`
		Tier       Tier   `json:"tier"`
	}

	Report struct {
		Type     ReportType
		From     core.Date
		To       core.Date
		Summary  Summary
		Grid     Grid
		Entities []EntitySummary
	}
)

func (StudentRow) Kind() ReportType     { return ReportStudent }
func (r StudentRow) EntityID() string   { return r.StudentID }
func (r StudentRow) EntityName() string { return r.Name }

func (TeacherRow) Kind() ReportType     { return ReportTeacher }
func (r TeacherRow) EntityID() string   { return r.TeacherID }
func (r TeacherRow) EntityName() string { return r.Name }

func (ClassRow) Kind() ReportType     { return ReportClass }
func (r ClassRow) EntityID() string   { return r.ClassID }
func (r ClassRow) EntityName() string { return r.Name }

// EmptyReport is the zero-valued report: no headers, no rows & a zero summary.
func EmptyReport(typ ReportType, from, to core.Date) Report {
	return Report{
		Type:     typ,
		From:     from,
		To:       to,
		Grid:     Grid{Headers: []core.Date{}, Rows: []Row{}},
		Entities: []EntitySummary{},
	}
}

// fact is a flattened attendance record, keyed by the entity it is reported under.
type fact struct {
	entityID string
	date     core.Date
	status   Status
}

// counts tallies statuses.
type counts struct {
	present, absent, late, leave, total int
}

func (c *counts) add(st Status) {
	c.total++
	switch st {
	case StatusPresent:
		c.present++
	case StatusAbsent:
		c.absent++
	case StatusLate:
		c.late++
	case StatusLeave:
		c.leave++
	}
}

func (c counts) percentage() int {
	return Percentage(c.present, c.total)
}

// Aggregator turns flat attendance records into report grids & summaries. It holds no state
// besides its Classifier and is safe for concurrent use.
type Aggregator struct {
	classifier Classifier
}

func NewAggregator(classifier Classifier) *Aggregator {
	return &Aggregator{classifier: classifier}
}

func (a *Aggregator) Classifier() Classifier { return a.classifier }

// StudentReport pivots records into one row per student.
func (a *Aggregator) StudentReport(records []StudentRecord, roster school.Roster, from, to core.Date) Report {
	facts := make([]fact, 0, len(records))
	classOf := make(map[string]string)
	for _, rec := range records {
		facts = append(facts, fact{entityID: rec.StudentID, date: rec.Date, status: rec.Status})
		classOf[rec.StudentID] = rec.ClassID
	}
	nameOf := func(id string) string {
		if st, ok := roster.Student(id); ok {
			return st.Name
		}
		return id
	}

	report := a.newReport(ReportStudent, from, to, facts, nameOf)
	for id, cells := range statusCells(facts, report.Grid.Headers) {
		report.Grid.Rows = append(report.Grid.Rows, StudentRow{StudentID: id, Name: nameOf(id), ClassID: classOf[id], Cells: cells})
	}
	sortRows(report.Grid.Rows)
	return report
}

// TeacherReport pivots records into one row per teacher.
func (a *Aggregator) TeacherReport(records []TeacherRecord, roster school.Roster, from, to core.Date) Report {
	facts := make([]fact, 0, len(records))
	for _, rec := range records {
		facts = append(facts, fact{entityID: rec.TeacherID, date: rec.Date, status: rec.Status})
	}
	nameOf := func(id string) string {
		if t, ok := roster.Teacher(id); ok {
			return t.Name
		}
		return id
	}

	report := a.newReport(ReportTeacher, from, to, facts, nameOf)
	for id, cells := range statusCells(facts, report.Grid.Headers) {
		report.Grid.Rows = append(report.Grid.Rows, TeacherRow{TeacherID: id, Name: nameOf(id), Cells: cells})
	}
	sortRows(report.Grid.Rows)
	return report
}

// ClassReport pivots student records into one row per class, each cell being the
// percentage of the records of that class on that date marked present.
func (a *Aggregator) ClassReport(records []StudentRecord, roster school.Roster, from, to core.Date) Report {
	facts := make([]fact, 0, len(records))
	for _, rec := range records {
		facts = append(facts, fact{entityID: rec.ClassID, date: rec.Date, status: rec.Status})
	}
	nameOf := func(id string) string {
		if c, ok := roster.Class(id); ok {
			return c.Name
		}
		return id
	}

	report := a.newReport(ReportClass, from, to, facts, nameOf)

	daily := make(map[string]map[core.Date]*counts)
	for _, f := range facts {
		days, ok := daily[f.entityID]
		if !ok {
			days = make(map[core.Date]*counts)
			daily[f.entityID] = days
		}
		c, ok := days[f.date]
		if !ok {
			c = new(counts)
			days[f.date] = c
		}
		c.add(f.status)
	}
	for id, days := range daily {
		cells := make(map[core.Date]*int, len(report.Grid.Headers))
		for _, d := range report.Grid.Headers {
			cells[d] = nil
			if c, ok := days[d]; ok {
				pct := c.percentage()
				cells[d] = &pct
			}
		}
		report.Grid.Rows = append(report.Grid.Rows, ClassRow{ClassID: id, Name: nameOf(id), Cells: cells})
	}
	sortRows(report.Grid.Rows)
	return report
}

// newReport builds the headers, the overall summary & the per-entity summaries of facts.
func (a *Aggregator) newReport(typ ReportType, from, to core.Date, facts []fact, nameOf func(string) string) Report {
	report := EmptyReport(typ, from, to)
	report.Grid.Headers = headers(facts)

	var overall counts
	perEntity := make(map[string]*counts)
	for _, f := range facts {
		overall.add(f.status)
		c, ok := perEntity[f.entityID]
		if !ok {
			c = new(counts)
			perEntity[f.entityID] = c
		}
		c.add(f.status)
	}

	report.Summary = Summary{
		Present:    overall.present,
		Absent:     overall.absent,
		Late:       overall.late,
		Leave:      overall.leave,
		Total:      overall.total,
		Percentage: overall.percentage(),
	}
	for id, c := range perEntity {
		pct := c.percentage()
		tier := a.classifier.Classify(pct)
		switch tier {
		case TierGood:
			report.Summary.Tiers.Good++
		case TierAverage:
			report.Summary.Tiers.Average++
		default:
			report.Summary.Tiers.Poor++
		}
		report.Entities = append(report.Entities, EntitySummary{
			ID:         id,
			Name:       nameOf(id),
			Present:    c.present,
			Absent:     c.absent,
			Late:       c.late,
			Leave:      c.leave,
			Total:      c.total,
			Percentage: pct,
			Tier:       tier,
		})
	}
	sort.Slice(report.Entities, func(i, j int) bool {
		ei, ej := report.Entities[i], report.Entities[j]
		if ei.Name != ej.Name {
			return ei.Name < ej.Name
		}
		return ei.ID < ej.ID
	})
	return report
}

// headers returns the sorted distinct dates of facts.
func headers(facts []fact) []core.Date {
	seen := make(map[core.Date]bool)
	dates := make([]core.Date, 0)
	for _, f := range facts {
		if !seen[f.date] {
			seen[f.date] = true
			dates = append(dates, f.date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// statusCells maps every entity of facts to its status per header date, nil when it has no record that day.
func statusCells(facts []fact, hdrs []core.Date) map[string]map[core.Date]*Status {
	rows := make(map[string]map[core.Date]*Status)
	for _, f := range facts {
		cells, ok := rows[f.entityID]
		if !ok {
			cells = make(map[core.Date]*Status, len(hdrs))
			for _, d := range hdrs {
				cells[d] = nil
			}
			rows[f.entityID] = cells
		}
		st := f.status
		cells[f.date] = &st
	}
	return rows
}

func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EntityName() != rows[j].EntityName() {
			return rows[i].EntityName() < rows[j].EntityName()
		}
		return rows[i].EntityID() < rows[j].EntityID()
	})
}
