package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/mahudhurio/core/school"
)

type (
	classDoc struct {
		ID             string `bson:"_id"`
		SchoolID       string `bson:"school_id"`
		Name           string `bson:"name"`
		ClassTeacherID string `bson:"class_teacher_id,omitempty"`
	}

	// personDoc is a student (with a class) or a teacher (without).
	personDoc struct {
		ID       string `bson:"_id"`
		SchoolID string `bson:"school_id"`
		Name     string `bson:"name"`
		ClassID  string `bson:"class_id,omitempty"`
	}
)

type directory struct {
	db *DB
}

var _ school.Repository = (*directory)(nil) // interface compliance check

func NewDirectory(db *DB) *directory {
	return &directory{db: db}
}

func (dir *directory) find(ctx context.Context, coll, schoolID string, docs interface{}) error {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := dir.db.collection(coll).Find(ctx, bson.D{{Key: "school_id", Value: schoolID}}, opts)
	if err != nil {
		return errors.Wrapf(err, "finding %s", coll)
	}
	return errors.Wrapf(cur.All(ctx, docs), "decoding %s", coll)
}

func (dir *directory) GetRoster(ctx context.Context, schoolID string) (school.Roster, error) {
	var (
		classes  []classDoc
		students []personDoc
		teachers []personDoc
	)
	if err := dir.find(ctx, classesColl, schoolID, &classes); err != nil {
		return school.Roster{}, err
	}
	if err := dir.find(ctx, studentsColl, schoolID, &students); err != nil {
		return school.Roster{}, err
	}
	if err := dir.find(ctx, teachersColl, schoolID, &teachers); err != nil {
		return school.Roster{}, err
	}

	roster := school.Roster{SchoolID: schoolID}
	for _, c := range classes {
		roster.Classes = append(roster.Classes, school.Class{ID: c.ID, SchoolID: c.SchoolID, Name: c.Name, ClassTeacherID: c.ClassTeacherID})
	}
	for _, s := range students {
		roster.Students = append(roster.Students, school.Student{ID: s.ID, SchoolID: s.SchoolID, Name: s.Name, ClassID: s.ClassID})
	}
	for _, t := range teachers {
		roster.Teachers = append(roster.Teachers, school.Teacher{ID: t.ID, SchoolID: t.SchoolID, Name: t.Name})
	}

	if roster.IsEmpty() {
		return school.Roster{}, school.ErrNotFound
	}
	return roster, nil
}

func upsert(doc interface{}, id string) mongo.WriteModel {
	return mongo.NewReplaceOneModel().
		SetFilter(bson.D{{Key: "_id", Value: id}}).
		SetReplacement(doc).
		SetUpsert(true)
}

func (dir *directory) bulkWrite(ctx context.Context, coll string, models []mongo.WriteModel) error {
	if len(models) == 0 {
		return nil
	}
	_, err := dir.db.collection(coll).BulkWrite(ctx, models)
	return errors.Wrapf(err, "saving %s", coll)
}

// SaveRoster upserts the classes, teachers & students of roster.
func (dir *directory) SaveRoster(ctx context.Context, roster school.Roster) error {
	classes := make([]mongo.WriteModel, 0, len(roster.Classes))
	for _, c := range roster.Classes {
		classes = append(classes, upsert(classDoc{ID: c.ID, SchoolID: roster.SchoolID, Name: c.Name, ClassTeacherID: c.ClassTeacherID}, c.ID))
	}
	teachers := make([]mongo.WriteModel, 0, len(roster.Teachers))
	for _, t := range roster.Teachers {
		teachers = append(teachers, upsert(personDoc{ID: t.ID, SchoolID: roster.SchoolID, Name: t.Name}, t.ID))
	}
	students := make([]mongo.WriteModel, 0, len(roster.Students))
	for _, s := range roster.Students {
		students = append(students, upsert(personDoc{ID: s.ID, SchoolID: roster.SchoolID, Name: s.Name, ClassID: s.ClassID}, s.ID))
	}

	if err := dir.bulkWrite(ctx, classesColl, classes); err != nil {
		return err
	}
	if err := dir.bulkWrite(ctx, teachersColl, teachers); err != nil {
		return err
	}
	return dir.bulkWrite(ctx, studentsColl, students)
}
