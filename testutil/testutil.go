package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/storage/database"
)

// Fixture ids
const (
	SchoolID      = "school-1"
	OtherSchoolID = "school-2"

	ClassSeven = "class-7"
	ClassEight = "class-8"

	TeacherJuma   = "teacher-1" // class teacher of ClassSeven
	TeacherNeema  = "teacher-2" // class teacher of ClassEight
	TeacherZawadi = "teacher-3"

	StudentAmani    = "student-1"
	StudentBaraka   = "student-2"
	StudentChausiku = "student-3"
	StudentDalila   = "student-4" // in ClassEight
)

// Roster returns the roster of SchoolID.
func Roster() school.Roster {
	return school.Roster{
		SchoolID: SchoolID,
		Classes: []school.Class{
			{ID: ClassSeven, SchoolID: SchoolID, Name: "Form 7", ClassTeacherID: TeacherJuma},
			{ID: ClassEight, SchoolID: SchoolID, Name: "Form 8", ClassTeacherID: TeacherNeema},
		},
		Students: []school.Student{
			{ID: StudentAmani, SchoolID: SchoolID, Name: "Amani", ClassID: ClassSeven},
			{ID: StudentBaraka, SchoolID: SchoolID, Name: "Baraka", ClassID: ClassSeven},
			{ID: StudentChausiku, SchoolID: SchoolID, Name: "Chausiku", ClassID: ClassSeven},
			{ID: StudentDalila, SchoolID: SchoolID, Name: "Dalila", ClassID: ClassEight},
		},
		Teachers: []school.Teacher{
			{ID: TeacherJuma, SchoolID: SchoolID, Name: "Juma"},
			{ID: TeacherNeema, SchoolID: SchoolID, Name: "Neema"},
			{ID: TeacherZawadi, SchoolID: SchoolID, Name: "Zawadi"},
		},
	}
}

// OtherRoster returns the roster of OtherSchoolID.
func OtherRoster() school.Roster {
	return school.Roster{
		SchoolID: OtherSchoolID,
		Classes:  []school.Class{{ID: "class-x", SchoolID: OtherSchoolID, Name: "Form X", ClassTeacherID: "teacher-x"}},
		Students: []school.Student{{ID: "student-x", SchoolID: OtherSchoolID, Name: "Xavier", ClassID: "class-x"}},
		Teachers: []school.Teacher{{ID: "teacher-x", SchoolID: OtherSchoolID, Name: "Xena"}},
	}
}

func Admin() user.User {
	return user.User{ID: "admin-1", Name: "Head Admin", Username: "admin", SchoolID: SchoolID, Roles: []string{user.RoleAdminSchool}}
}

func Teacher(id string) user.User {
	return user.User{ID: id, Name: "Mwalimu " + id, Username: id, SchoolID: SchoolID, Roles: []string{user.RoleTeacher}}
}

func Student(id string) user.User {
	return user.User{ID: id, Name: "Mwanafunzi " + id, Username: id, SchoolID: SchoolID, Roles: []string{user.RoleStudent}}
}

// Date parses a YYYY-MM-DD date or fails the test.
func Date(t testing.TB, s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("Date(%q) failed: %v", s, err)
	}
	return d
}

// OpenSQLite returns a migrated sqlite database living in a temporary directory.
func OpenSQLite(t testing.TB) *sqlx.DB {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return db
}

// SaveRosters stores rosters in repo or fails the test.
func SaveRosters(t testing.TB, repo school.Repository, rosters ...school.Roster) {
	for _, roster := range rosters {
		if err := repo.SaveRoster(context.Background(), roster); err != nil {
			t.Fatalf("SaveRoster() failed: %v", err)
		}
	}
}

// Validator returns a validator & its translator, set up the way the app sets them up.
func Validator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate, translator
}
