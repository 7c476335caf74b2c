package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/testutil"
)

func TestScopeResolver_ResolveMarkableClasses(t *testing.T) {
	var r ScopeResolver
	roster := testutil.Roster()
	outsider := testutil.Admin()
	outsider.SchoolID = testutil.OtherSchoolID

	tests := []struct {
		name string
		usr  user.User
		want []string
	}{
		{name: "school admin", usr: testutil.Admin(), want: []string{testutil.ClassSeven, testutil.ClassEight}},
		{name: "class teacher", usr: testutil.Teacher(testutil.TeacherJuma), want: []string{testutil.ClassSeven}},
		{name: "teacher without class", usr: testutil.Teacher(testutil.TeacherZawadi), want: []string{}},
		{name: "student", usr: testutil.Student(testutil.StudentAmani), want: []string{}},
		{name: "admin of another school", usr: outsider, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveMarkableClasses(tt.usr, roster))
		})
	}
}

func TestScopeResolver_ResolveMarkableTeachers(t *testing.T) {
	var r ScopeResolver
	assert.True(t, r.ResolveMarkableTeachers(testutil.Admin()))
	assert.False(t, r.ResolveMarkableTeachers(testutil.Teacher(testutil.TeacherJuma)))
	assert.False(t, r.ResolveMarkableTeachers(testutil.Student(testutil.StudentAmani)))
}

func TestScopeResolver_authorize(t *testing.T) {
	var r ScopeResolver
	roster := testutil.Roster()
	juma := testutil.Teacher(testutil.TeacherJuma)

	assert.NoError(t, r.AuthorizeMarkClass(testutil.Admin(), roster, testutil.ClassEight))
	assert.NoError(t, r.AuthorizeMarkClass(juma, roster, testutil.ClassSeven))

	err := r.AuthorizeMarkClass(juma, roster, testutil.ClassEight)
	require.Error(t, err)
	assert.True(t, core.IsAuthorizationError(err))

	assert.True(t, core.IsAuthorizationError(r.AuthorizeMarkClass(testutil.Student(testutil.StudentAmani), roster, testutil.ClassSeven)))
	assert.True(t, core.IsAuthorizationError(r.AuthorizeMarkClass(testutil.Admin(), testutil.OtherRoster(), "class-x")))

	assert.NoError(t, r.AuthorizeMarkTeachers(testutil.Admin(), roster))
	assert.True(t, core.IsAuthorizationError(r.AuthorizeMarkTeachers(juma, roster)))
	assert.True(t, core.IsAuthorizationError(r.AuthorizeMarkTeachers(testutil.Admin(), testutil.OtherRoster())))
}

func TestScopeResolver_AuthorizeReport(t *testing.T) {
	var r ScopeResolver
	roster := testutil.Roster()
	juma := testutil.Teacher(testutil.TeacherJuma)

	tests := []struct {
		name        string
		usr         user.User
		q           ReportQuery
		wantClasses []string
		wantAuthErr bool
	}{
		{name: "admin: teacher report", usr: testutil.Admin(), q: ReportQuery{Type: ReportTeacher}},
		{name: "admin: whole school", usr: testutil.Admin(), q: ReportQuery{Type: ReportClass}},
		{name: "admin: one class", usr: testutil.Admin(), q: ReportQuery{Type: ReportStudent, ClassID: testutil.ClassEight}, wantClasses: []string{testutil.ClassEight}},
		{name: "teacher: teacher report", usr: juma, q: ReportQuery{Type: ReportTeacher}, wantAuthErr: true},
		{name: "teacher: own class", usr: juma, q: ReportQuery{Type: ReportStudent, ClassID: testutil.ClassSeven}, wantClasses: []string{testutil.ClassSeven}},
		{name: "teacher: other class", usr: juma, q: ReportQuery{Type: ReportStudent, ClassID: testutil.ClassEight}, wantAuthErr: true},
		{name: "teacher: class report", usr: juma, q: ReportQuery{Type: ReportClass}, wantClasses: []string{testutil.ClassSeven}},
		{name: "teacher without class", usr: testutil.Teacher(testutil.TeacherZawadi), q: ReportQuery{Type: ReportClass}, wantAuthErr: true},
		{name: "student", usr: testutil.Student(testutil.StudentAmani), q: ReportQuery{Type: ReportStudent, ClassID: testutil.ClassSeven}, wantAuthErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classes, err := r.AuthorizeReport(tt.usr, roster, tt.q)
			if tt.wantAuthErr {
				assert.True(t, core.IsAuthorizationError(err), "err = %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantClasses, classes)
		})
	}
}
