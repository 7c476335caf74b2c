package attendance

import (
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

const (
	reasonOtherSchool    = "not allowed to access another school's attendance"
	reasonMarkClass      = "not allowed to mark attendance for this class"
	reasonMarkTeachers   = "only admins can mark teacher attendance"
	reasonViewClass      = "not allowed to view attendance for this class"
	reasonTeacherReports = "only admins can view teacher attendance reports"
	reasonViewReports    = "not allowed to view attendance reports"
)

// ScopeResolver computes which classes & people a user may mark or view attendance for.
// The zero value is ready to use.
type ScopeResolver struct{}

func inSchool(usr user.User, roster school.Roster) bool {
	return usr.SchoolID != "" && usr.SchoolID == roster.SchoolID
}

// ResolveMarkableClasses returns the ids of the roster's classes usr may mark attendance for:
// every class for admins, homeroom classes for teachers, none for anyone else.
func (ScopeResolver) ResolveMarkableClasses(usr user.User, roster school.Roster) []string {
	switch {
	case !inSchool(usr, roster):
		return []string{}
	case usr.IsAdmin():
		return roster.ClassIDs()
	case usr.IsTeacher():
		return roster.HomeroomClassIDs(usr.ID)
	default:
		return []string{}
	}
}

// ResolveMarkableTeachers reports whether usr may mark teacher attendance.
func (ScopeResolver) ResolveMarkableTeachers(usr user.User) bool {
	return usr.IsAdmin()
}

// ResolveViewableClasses returns the ids of the classes whose student attendance usr may view.
// Students only ever read their own records.
func (r ScopeResolver) ResolveViewableClasses(usr user.User, roster school.Roster) []string {
	return r.ResolveMarkableClasses(usr, roster)
}

func (r ScopeResolver) AuthorizeMarkClass(usr user.User, roster school.Roster, classID string) error {
	if !inSchool(usr, roster) {
		return core.NewAuthorizationError(reasonOtherSchool)
	}
	if !core.ContainsString(r.ResolveMarkableClasses(usr, roster), classID) {
		return core.NewAuthorizationError(reasonMarkClass)
	}
	return nil
}

func (r ScopeResolver) AuthorizeMarkTeachers(usr user.User, roster school.Roster) error {
	if !inSchool(usr, roster) {
		return core.NewAuthorizationError(reasonOtherSchool)
	}
	if !r.ResolveMarkableTeachers(usr) {
		return core.NewAuthorizationError(reasonMarkTeachers)
	}
	return nil
}

func (r ScopeResolver) AuthorizeViewClass(usr user.User, roster school.Roster, classID string) error {
	if !inSchool(usr, roster) {
		return core.NewAuthorizationError(reasonOtherSchool)
	}
	if !core.ContainsString(r.ResolveViewableClasses(usr, roster), classID) {
		return core.NewAuthorizationError(reasonViewClass)
	}
	return nil
}

// AuthorizeReport checks that usr may run q and returns the class filter to apply.
// A nil class filter means the whole school.
func (r ScopeResolver) AuthorizeReport(usr user.User, roster school.Roster, q ReportQuery) ([]string, error) {
	if !inSchool(usr, roster) {
		return nil, core.NewAuthorizationError(reasonOtherSchool)
	}

	if q.Type == ReportTeacher {
		if !usr.IsAdmin() {
			return nil, core.NewAuthorizationError(reasonTeacherReports)
		}
		return nil, nil
	}

	viewable := r.ResolveViewableClasses(usr, roster)
	if q.ClassID != "" {
		if !core.ContainsString(viewable, q.ClassID) {
			return nil, core.NewAuthorizationError(reasonViewClass)
		}
		return []string{q.ClassID}, nil
	}
	if usr.IsAdmin() {
		return nil, nil
	}
	if len(viewable) == 0 {
		return nil, core.NewAuthorizationError(reasonViewReports)
	}
	return viewable, nil
}
