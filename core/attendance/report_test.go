package attendance

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/testutil"
)

func studentRec(studentID, classID string, date core.Date, st Status) StudentRecord {
	return StudentRecord{StudentID: studentID, ClassID: classID, Date: date, Day: DayLabel(date), Status: st}
}

func TestAggregator_StudentReport(t *testing.T) {
	agg := NewAggregator(DefaultClassifier())
	roster := testutil.Roster()
	day1 := testutil.Date(t, "2025-05-01")
	day2 := testutil.Date(t, "2025-05-15")

	recs := []StudentRecord{
		studentRec(testutil.StudentAmani, testutil.ClassSeven, day1, StatusPresent),
		studentRec(testutil.StudentBaraka, testutil.ClassSeven, day1, StatusPresent),
		studentRec(testutil.StudentChausiku, testutil.ClassSeven, day1, StatusAbsent),
		studentRec(testutil.StudentAmani, testutil.ClassSeven, day2, StatusLate),
	}
	report := agg.StudentReport(recs, roster, testutil.Date(t, "2025-05-01"), testutil.Date(t, "2025-05-31"))

	t.Run("headers are the distinct record dates", func(t *testing.T) {
		assert.Equal(t, []core.Date{day1, day2}, report.Grid.Headers)
	})

	t.Run("rows are sorted by name & backfilled", func(t *testing.T) {
		require.Len(t, report.Grid.Rows, 3)
		names := make([]string, 0, 3)
		for _, row := range report.Grid.Rows {
			names = append(names, row.EntityName())
			sr, ok := row.(StudentRow)
			require.True(t, ok)
			assert.Len(t, sr.Cells, 2)
		}
		assert.Equal(t, []string{"Amani", "Baraka", "Chausiku"}, names)

		baraka := report.Grid.Rows[1].(StudentRow)
		require.Contains(t, baraka.Cells, day2)
		assert.Nil(t, baraka.Cells[day2])
		require.NotNil(t, baraka.Cells[day1])
		assert.Equal(t, StatusPresent, *baraka.Cells[day1])

		amani := report.Grid.Rows[0].(StudentRow)
		assert.Equal(t, StatusLate, *amani.Cells[day2])
	})

	t.Run("summary", func(t *testing.T) {
		assert.Equal(t, Summary{
			Present:    2,
			Absent:     1,
			Late:       1,
			Total:      4,
			Percentage: 50,
			Tiers:      Tiers{Average: 0, Good: 1, Poor: 2}, // Amani 50%, Baraka 100%, Chausiku 0%
		}, report.Summary)
		require.Len(t, report.Entities, 3)
		assert.Equal(t, EntitySummary{ID: testutil.StudentBaraka, Name: "Baraka", Present: 1, Total: 1, Percentage: 100, Tier: TierGood}, report.Entities[1])
	})

	t.Run("idempotent", func(t *testing.T) {
		again := agg.StudentReport(recs, roster, testutil.Date(t, "2025-05-01"), testutil.Date(t, "2025-05-31"))
		assert.Equal(t, report, again)
	})
}

func TestAggregator_singleClassSummary(t *testing.T) {
	agg := NewAggregator(DefaultClassifier())
	day := testutil.Date(t, "2025-05-01")
	recs := []StudentRecord{
		studentRec(testutil.StudentAmani, testutil.ClassSeven, day, StatusPresent),
		studentRec(testutil.StudentBaraka, testutil.ClassSeven, day, StatusPresent),
		studentRec(testutil.StudentChausiku, testutil.ClassSeven, day, StatusAbsent),
	}
	report := agg.StudentReport(recs, testutil.Roster(), day, day)
	assert.Equal(t, 2, report.Summary.Present)
	assert.Equal(t, 1, report.Summary.Absent)
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 67, report.Summary.Percentage)
}

func TestAggregator_ClassReport(t *testing.T) {
	agg := NewAggregator(DefaultClassifier())
	day1 := testutil.Date(t, "2025-05-05")
	day2 := testutil.Date(t, "2025-05-06")

	recs := make([]StudentRecord, 0, 50)
	for i := 0; i < 25; i++ {
		st := StatusPresent
		if i >= 20 {
			st = StatusAbsent
		}
		recs = append(recs, studentRec(fmt.Sprintf("s%02d", i), testutil.ClassSeven, day1, st))
		recs = append(recs, studentRec(fmt.Sprintf("s%02d", i), testutil.ClassSeven, day2, StatusPresent))
	}
	// one student of another class, marked on day2 only
	recs = append(recs, studentRec(testutil.StudentDalila, testutil.ClassEight, day2, StatusAbsent))

	report := agg.ClassReport(recs, testutil.Roster(), testutil.Date(t, "2025-05-01"), testutil.Date(t, "2025-05-31"))
	assert.Equal(t, []core.Date{day1, day2}, report.Grid.Headers)
	require.Len(t, report.Grid.Rows, 2)

	seven, ok := report.Grid.Rows[0].(ClassRow)
	require.True(t, ok)
	assert.Equal(t, "Form 7", seven.Name)
	require.NotNil(t, seven.Cells[day1])
	require.NotNil(t, seven.Cells[day2])
	assert.Equal(t, 80, *seven.Cells[day1])
	assert.Equal(t, 100, *seven.Cells[day2])

	eight := report.Grid.Rows[1].(ClassRow)
	require.Contains(t, eight.Cells, day1)
	assert.Nil(t, eight.Cells[day1])
	assert.Equal(t, 0, *eight.Cells[day2])

	assert.Equal(t, Tiers{Good: 1, Poor: 1}, report.Summary.Tiers) // Form 7: 90%, Form 8: 0%
}

func TestAggregator_TeacherReport(t *testing.T) {
	agg := NewAggregator(DefaultClassifier())
	day := testutil.Date(t, "2025-05-02")
	recs := []TeacherRecord{
		{TeacherID: testutil.TeacherNeema, Date: day, Status: StatusLeave},
		{TeacherID: testutil.TeacherJuma, Date: day, Status: StatusPresent},
		{TeacherID: "unknown", Date: day, Status: StatusAbsent},
	}
	report := agg.TeacherReport(recs, testutil.Roster(), day, day)
	require.Len(t, report.Grid.Rows, 3)
	assert.Equal(t, []string{"Juma", "Neema", "unknown"}, []string{
		report.Grid.Rows[0].EntityName(), report.Grid.Rows[1].EntityName(), report.Grid.Rows[2].EntityName(),
	})
	assert.Equal(t, ReportTeacher, report.Grid.Rows[0].Kind())
	assert.Equal(t, Summary{Present: 1, Absent: 1, Leave: 1, Total: 3, Percentage: 33, Tiers: Tiers{Good: 1, Poor: 2}}, report.Summary)
}

func TestAggregator_tiersOverTerm(t *testing.T) {
	agg := NewAggregator(DefaultClassifier())
	start := testutil.Date(t, "2025-04-01")

	var recs []StudentRecord
	mark := func(studentID string, present, total int) {
		for i := 0; i < total; i++ {
			st := StatusAbsent
			if i < present {
				st = StatusPresent
			}
			recs = append(recs, studentRec(studentID, testutil.ClassSeven, start.AddDays(i), st))
		}
	}
	mark(testutil.StudentAmani, 23, 25)  // 92%
	mark(testutil.StudentBaraka, 4, 5)   // 80%
	mark(testutil.StudentChausiku, 3, 5) // 60%

	report := agg.StudentReport(recs, testutil.Roster(), start, testutil.Date(t, "2025-06-30"))
	assert.Equal(t, Tiers{Good: 1, Average: 1, Poor: 1}, report.Summary.Tiers)
	require.Len(t, report.Entities, 3)
	assert.Equal(t, TierGood, report.Entities[0].Tier)
	assert.Equal(t, 92, report.Entities[0].Percentage)
	assert.Equal(t, TierAverage, report.Entities[1].Tier)
	assert.Equal(t, TierPoor, report.Entities[2].Tier)
	assert.Len(t, report.Grid.Headers, 25)
}

func TestAggregator_empty(t *testing.T) {
	agg := NewAggregator(DefaultClassifier())
	from, to := testutil.Date(t, "2025-05-01"), testutil.Date(t, "2025-05-31")

	report := agg.StudentReport(nil, school.Roster{}, from, to)
	assert.Equal(t, EmptyReport(ReportStudent, from, to), report)
	assert.Empty(t, report.Grid.Headers)
	assert.Empty(t, report.Grid.Rows)
	assert.Equal(t, Summary{}, report.Summary)
}

func TestStudentRow_JSON(t *testing.T) {
	day1 := testutil.Date(t, "2025-05-01")
	day2 := testutil.Date(t, "2025-05-02")
	present := StatusPresent
	row := StudentRow{
		StudentID: "s1",
		Name:      "Amani",
		ClassID:   "c7",
		Cells:     map[core.Date]*Status{day1: &present, day2: nil},
	}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"student_id":"s1","name":"Amani","class_id":"c7","cells":{"2025-05-01":"present","2025-05-02":null}}`, string(data))
}
