// Package storetest holds the behaviour every storage backend must share,
// run against each backend from its own tests.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/testutil"
)

var now = time.Date(2025, time.May, 1, 7, 30, 0, 0, time.UTC)

func studentRecord(t *testing.T, studentID, classID, date string, st attendance.Status) attendance.StudentRecord {
	d := testutil.Date(t, date)
	return attendance.StudentRecord{
		SchoolID:      testutil.SchoolID,
		StudentID:     studentID,
		ClassID:       classID,
		Date:          d,
		Day:           attendance.DayLabel(d),
		Status:        st,
		EnteredByID:   "admin-1",
		EnteredByName: "Head Admin",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func teacherRecord(t *testing.T, teacherID, date string, st attendance.Status) attendance.TeacherRecord {
	d := testutil.Date(t, date)
	return attendance.TeacherRecord{
		SchoolID:    testutil.SchoolID,
		TeacherID:   teacherID,
		Date:        d,
		Day:         attendance.DayLabel(d),
		Status:      st,
		EnteredByID: "admin-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func classSeven(t *testing.T, date string) []attendance.StudentRecord {
	return []attendance.StudentRecord{
		studentRecord(t, testutil.StudentAmani, testutil.ClassSeven, date, attendance.StatusPresent),
		studentRecord(t, testutil.StudentBaraka, testutil.ClassSeven, date, attendance.StatusLate),
		studentRecord(t, testutil.StudentChausiku, testutil.ClassSeven, date, attendance.StatusAbsent),
	}
}

// TestDirectory checks roster storage: unknown schools, round trips & upserts.
func TestDirectory(t *testing.T, repo school.Repository) {
	ctx := context.Background()

	_, err := repo.GetRoster(ctx, "no-such-school")
	assert.Equal(t, school.ErrNotFound, errors.Cause(err))

	testutil.SaveRosters(t, repo, testutil.Roster(), testutil.OtherRoster())

	roster, err := repo.GetRoster(ctx, testutil.SchoolID)
	require.NoError(t, err)
	assert.Equal(t, testutil.SchoolID, roster.SchoolID)
	assert.ElementsMatch(t, testutil.Roster().Classes, roster.Classes)
	assert.ElementsMatch(t, testutil.Roster().Students, roster.Students)
	assert.ElementsMatch(t, testutil.Roster().Teachers, roster.Teachers)

	// saving again updates in place
	renamed := testutil.Roster()
	renamed.Students = []school.Student{{ID: testutil.StudentDalila, Name: "Dalila M.", ClassID: testutil.ClassSeven}}
	renamed.Classes, renamed.Teachers = nil, nil
	require.NoError(t, repo.SaveRoster(ctx, renamed))

	roster, err = repo.GetRoster(ctx, testutil.SchoolID)
	require.NoError(t, err)
	assert.Len(t, roster.Students, 4)
	st, ok := roster.Student(testutil.StudentDalila)
	require.True(t, ok)
	assert.Equal(t, "Dalila M.", st.Name)
	assert.Equal(t, testutil.ClassSeven, st.ClassID)
	assert.Equal(t, testutil.SchoolID, st.SchoolID)

	other, err := repo.GetRoster(ctx, testutil.OtherSchoolID)
	require.NoError(t, err)
	assert.Len(t, other.Students, 1)
}

// TestStudentRecords checks inserting, finding & updating student attendance.
func TestStudentRecords(t *testing.T, repo attendance.Repository) {
	ctx := context.Background()
	date := testutil.Date(t, "2025-05-01")

	created, err := repo.InsertStudentRecords(ctx, testutil.ClassSeven, date, classSeven(t, "2025-05-01"))
	require.NoError(t, err)
	require.Len(t, created, 3)
	for _, rec := range created {
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, date, rec.Date)
	}

	t.Run("class already marked", func(t *testing.T) {
		_, err := repo.InsertStudentRecords(ctx, testutil.ClassSeven, date, classSeven(t, "2025-05-01")[:1])
		assert.Equal(t, attendance.ErrAlreadyMarked, err)
	})

	t.Run("student already marked in another class", func(t *testing.T) {
		recs := []attendance.StudentRecord{
			studentRecord(t, testutil.StudentDalila, testutil.ClassEight, "2025-05-01", attendance.StatusPresent),
			studentRecord(t, testutil.StudentAmani, testutil.ClassEight, "2025-05-01", attendance.StatusPresent),
		}
		_, err := repo.InsertStudentRecords(ctx, testutil.ClassEight, date, recs)
		assert.Equal(t, attendance.ErrAlreadyMarked, err)

		// all or nothing
		found, err := repo.FindStudentRecords(ctx, attendance.StudentFilter{ClassIDs: []string{testutil.ClassEight}})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	_, err = repo.InsertStudentRecords(ctx, testutil.ClassSeven, testutil.Date(t, "2025-05-02"), classSeven(t, "2025-05-02"))
	require.NoError(t, err)
	_, err = repo.InsertStudentRecords(ctx, testutil.ClassEight, testutil.Date(t, "2025-05-02"), []attendance.StudentRecord{
		studentRecord(t, testutil.StudentDalila, testutil.ClassEight, "2025-05-02", attendance.StatusPresent),
	})
	require.NoError(t, err)

	t.Run("find", func(t *testing.T) {
		tests := []struct {
			name    string
			filter  attendance.StudentFilter
			wantLen int
		}{
			{name: "whole school", filter: attendance.StudentFilter{SchoolID: testutil.SchoolID}, wantLen: 7},
			{name: "other school", filter: attendance.StudentFilter{SchoolID: testutil.OtherSchoolID}, wantLen: 0},
			{name: "one class", filter: attendance.StudentFilter{ClassIDs: []string{testutil.ClassEight}}, wantLen: 1},
			{name: "two classes", filter: attendance.StudentFilter{ClassIDs: []string{testutil.ClassSeven, testutil.ClassEight}}, wantLen: 7},
			{name: "one student", filter: attendance.StudentFilter{StudentID: testutil.StudentAmani}, wantLen: 2},
			{
				name:    "one day",
				filter:  attendance.StudentFilter{From: testutil.Date(t, "2025-05-02"), To: testutil.Date(t, "2025-05-02")},
				wantLen: 4,
			},
			{name: "from only", filter: attendance.StudentFilter{From: testutil.Date(t, "2025-05-02")}, wantLen: 4},
			{name: "to only", filter: attendance.StudentFilter{To: testutil.Date(t, "2025-05-01")}, wantLen: 3},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				found, err := repo.FindStudentRecords(ctx, tc.filter)
				require.NoError(t, err)
				assert.Len(t, found, tc.wantLen)
			})
		}

		found, err := repo.FindStudentRecords(ctx, attendance.StudentFilter{ClassIDs: []string{testutil.ClassSeven}})
		require.NoError(t, err)
		require.Len(t, found, 6)
		assert.Equal(t, "2025-05-01", found[0].Date.String())
		assert.Equal(t, testutil.StudentAmani, found[0].StudentID)
		assert.Equal(t, "Thursday", found[0].Day)
		assert.Equal(t, "Head Admin", found[0].EnteredByName)
		assert.Equal(t, "2025-05-02", found[5].Date.String())
		assert.Equal(t, testutil.StudentChausiku, found[5].StudentID)
	})

	t.Run("update", func(t *testing.T) {
		later := now.Add(time.Hour)
		rec := studentRecord(t, testutil.StudentBaraka, testutil.ClassSeven, "2025-05-01", attendance.StatusPresent)
		rec.Notes = "arrived with a note"
		rec.EnteredByID = testutil.TeacherJuma
		rec.UpdatedAt = later

		updated, err := repo.UpdateStudentRecords(ctx, []attendance.StudentRecord{rec})
		require.NoError(t, err)
		require.Len(t, updated, 1)
		assert.Equal(t, attendance.StatusPresent, updated[0].Status)
		assert.Equal(t, "arrived with a note", updated[0].Notes)
		assert.Equal(t, testutil.TeacherJuma, updated[0].EnteredByID)
		assert.True(t, later.Equal(updated[0].UpdatedAt))
		assert.True(t, now.Equal(updated[0].CreatedAt))

		found, err := repo.FindStudentRecords(ctx, attendance.StudentFilter{StudentID: testutil.StudentBaraka, From: date, To: date})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, attendance.StatusPresent, found[0].Status)
		assert.Equal(t, updated[0].ID, found[0].ID)
	})

	t.Run("update unknown record", func(t *testing.T) {
		recs := []attendance.StudentRecord{
			studentRecord(t, testutil.StudentAmani, testutil.ClassSeven, "2025-05-01", attendance.StatusAbsent),
			studentRecord(t, testutil.StudentAmani, testutil.ClassSeven, "2025-06-01", attendance.StatusAbsent),
		}
		_, err := repo.UpdateStudentRecords(ctx, recs)
		assert.Equal(t, attendance.ErrRecordNotFound, err)

		// all or nothing
		found, err := repo.FindStudentRecords(ctx, attendance.StudentFilter{StudentID: testutil.StudentAmani, From: date, To: date})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, attendance.StatusPresent, found[0].Status)
	})
}

// TestTeacherRecords checks inserting, finding & updating teacher attendance.
func TestTeacherRecords(t *testing.T, repo attendance.Repository) {
	ctx := context.Background()
	date := testutil.Date(t, "2025-05-02")
	recs := []attendance.TeacherRecord{
		teacherRecord(t, testutil.TeacherJuma, "2025-05-02", attendance.StatusPresent),
		teacherRecord(t, testutil.TeacherNeema, "2025-05-02", attendance.StatusLeave),
	}

	created, err := repo.InsertTeacherRecords(ctx, testutil.SchoolID, date, recs)
	require.NoError(t, err)
	assert.Len(t, created, 2)

	_, err = repo.InsertTeacherRecords(ctx, testutil.SchoolID, date, []attendance.TeacherRecord{
		teacherRecord(t, testutil.TeacherZawadi, "2025-05-02", attendance.StatusPresent),
	})
	assert.Equal(t, attendance.ErrAlreadyMarked, err)

	found, err := repo.FindTeacherRecords(ctx, attendance.TeacherFilter{SchoolID: testutil.SchoolID})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, testutil.TeacherJuma, found[0].TeacherID)
	assert.Equal(t, "Friday", found[0].Day)

	found, err = repo.FindTeacherRecords(ctx, attendance.TeacherFilter{TeacherID: testutil.TeacherNeema, From: date})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, attendance.StatusLeave, found[0].Status)

	upd := teacherRecord(t, testutil.TeacherNeema, "2025-05-02", attendance.StatusPresent)
	updated, err := repo.UpdateTeacherRecords(ctx, []attendance.TeacherRecord{upd})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, attendance.StatusPresent, updated[0].Status)

	_, err = repo.UpdateTeacherRecords(ctx, []attendance.TeacherRecord{
		teacherRecord(t, testutil.TeacherZawadi, "2025-05-02", attendance.StatusPresent),
	})
	assert.Equal(t, attendance.ErrRecordNotFound, err)
}

// TestConcurrentInserts checks that concurrent creations for the same class & date
// result in exactly one stored batch.
func TestConcurrentInserts(t *testing.T, repo attendance.Repository) {
	date := testutil.Date(t, "2025-05-05")

	var (
		wg        sync.WaitGroup
		succeeded int64
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.InsertStudentRecords(context.Background(), testutil.ClassSeven, date, classSeven(t, "2025-05-05"))
			switch err {
			case nil:
				atomic.AddInt64(&succeeded, 1)
			case attendance.ErrAlreadyMarked:
			default:
				t.Errorf("InsertStudentRecords() unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, succeeded)
	found, err := repo.FindStudentRecords(context.Background(), attendance.StudentFilter{From: date, To: date})
	require.NoError(t, err)
	assert.Len(t, found, 3)
}
