package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type (
	// dates are stored as YYYY-MM-DD strings, so that ranges compare lexically
	studentDoc struct {
		ID            primitive.ObjectID `bson:"_id,omitempty"`
		SchoolID      string             `bson:"school_id"`
		StudentID     string             `bson:"student_id"`
		ClassID       string             `bson:"class_id"`
		Date          string             `bson:"date"`
		Day           string             `bson:"day"`
		Status        string             `bson:"status"`
		Notes         string             `bson:"notes,omitempty"`
		EnteredByID   string             `bson:"entered_by_id"`
		EnteredByName string             `bson:"entered_by_name,omitempty"`
		CreatedAt     time.Time          `bson:"created_at"`
		UpdatedAt     time.Time          `bson:"updated_at"`
	}

	teacherDoc struct {
		ID            primitive.ObjectID `bson:"_id,omitempty"`
		SchoolID      string             `bson:"school_id"`
		TeacherID     string             `bson:"teacher_id"`
		Date          string             `bson:"date"`
		Day           string             `bson:"day"`
		Status        string             `bson:"status"`
		Notes         string             `bson:"notes,omitempty"`
		EnteredByID   string             `bson:"entered_by_id"`
		EnteredByName string             `bson:"entered_by_name,omitempty"`
		CreatedAt     time.Time          `bson:"created_at"`
		UpdatedAt     time.Time          `bson:"updated_at"`
	}

	markDoc struct {
		ID       string    `bson:"_id"`
		MarkedAt time.Time `bson:"marked_at"`
	}
)

func newStudentDoc(rec attendance.StudentRecord) studentDoc {
	return studentDoc{
		ID:            primitive.NewObjectID(),
		SchoolID:      rec.SchoolID,
		StudentID:     rec.StudentID,
		ClassID:       rec.ClassID,
		Date:          rec.Date.String(),
		Day:           rec.Day,
		Status:        string(rec.Status),
		Notes:         rec.Notes,
		EnteredByID:   rec.EnteredByID,
		EnteredByName: rec.EnteredByName,
		CreatedAt:     rec.CreatedAt.UTC(),
		UpdatedAt:     rec.UpdatedAt.UTC(),
	}
}

func (doc studentDoc) record() attendance.StudentRecord {
	date, _ := core.ParseDate(doc.Date)
	return attendance.StudentRecord{
		ID:            doc.ID.Hex(),
		SchoolID:      doc.SchoolID,
		StudentID:     doc.StudentID,
		ClassID:       doc.ClassID,
		Date:          date,
		Day:           doc.Day,
		Status:        attendance.Status(doc.Status),
		Notes:         doc.Notes,
		EnteredByID:   doc.EnteredByID,
		EnteredByName: doc.EnteredByName,
		CreatedAt:     doc.CreatedAt.UTC(),
		UpdatedAt:     doc.UpdatedAt.UTC(),
	}
}

func newTeacherDoc(rec attendance.TeacherRecord) teacherDoc {
	return teacherDoc{
		ID:            primitive.NewObjectID(),
		SchoolID:      rec.SchoolID,
		TeacherID:     rec.TeacherID,
		Date:          rec.Date.String(),
		Day:           rec.Day,
		Status:        string(rec.Status),
		Notes:         rec.Notes,
		EnteredByID:   rec.EnteredByID,
		EnteredByName: rec.EnteredByName,
		CreatedAt:     rec.CreatedAt.UTC(),
		UpdatedAt:     rec.UpdatedAt.UTC(),
	}
}

func (doc teacherDoc) record() attendance.TeacherRecord {
	date, _ := core.ParseDate(doc.Date)
	return attendance.TeacherRecord{
		ID:            doc.ID.Hex(),
		SchoolID:      doc.SchoolID,
		TeacherID:     doc.TeacherID,
		Date:          date,
		Day:           doc.Day,
		Status:        attendance.Status(doc.Status),
		Notes:         doc.Notes,
		EnteredByID:   doc.EnteredByID,
		EnteredByName: doc.EnteredByName,
		CreatedAt:     doc.CreatedAt.UTC(),
		UpdatedAt:     doc.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func dateRange(filter bson.D, from, to core.Date) bson.D {
	rng := bson.D{}
	if !from.IsZero() {
		rng = append(rng, bson.E{Key: "$gte", Value: from.String()})
	}
	if !to.IsZero() {
		rng = append(rng, bson.E{Key: "$lte", Value: to.String()})
	}
	if len(rng) > 0 {
		filter = append(filter, bson.E{Key: "date", Value: rng})
	}
	return filter
}

// claim records that scope has been marked on date. Two transactions claiming the same
// (scope, date) conflict on the document id, so only one of them can commit.
func (repo *attendanceRepository) claim(sc mongo.SessionContext, scope string, date core.Date, markedAt time.Time) error {
	_, err := repo.db.collection(marksColl).InsertOne(sc, markDoc{ID: scope + "/" + date.String(), MarkedAt: markedAt})
	if mongo.IsDuplicateKeyError(err) {
		return attendance.ErrAlreadyMarked
	}
	return errors.Wrap(err, "claiming attendance")
}

func (repo *attendanceRepository) InsertStudentRecords(
	ctx context.Context,
	classID string,
	date core.Date,
	records []attendance.StudentRecord,
) ([]attendance.StudentRecord, error) {
	var created []attendance.StudentRecord

	err := repo.db.withTransaction(ctx, func(sc mongo.SessionContext) error {
		created = make([]attendance.StudentRecord, 0, len(records))
		if err := repo.claim(sc, "class/"+classID, date, time.Now().UTC()); err != nil {
			return err
		}

		docs := make([]interface{}, 0, len(records))
		for _, rec := range records {
			doc := newStudentDoc(rec)
			docs = append(docs, doc)
			created = append(created, doc.record())
		}
		if _, err := repo.db.collection(studentAttendanceColl).InsertMany(sc, docs); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return attendance.ErrAlreadyMarked
			}
			return errors.Wrap(err, "inserting student attendance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo *attendanceRepository) UpdateStudentRecords(ctx context.Context, records []attendance.StudentRecord) ([]attendance.StudentRecord, error) {
	var updated []attendance.StudentRecord
	coll := repo.db.collection(studentAttendanceColl)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := repo.db.withTransaction(ctx, func(sc mongo.SessionContext) error {
		updated = make([]attendance.StudentRecord, 0, len(records))
		for _, rec := range records {
			filter := bson.D{
				{Key: "student_id", Value: rec.StudentID},
				{Key: "class_id", Value: rec.ClassID},
				{Key: "date", Value: rec.Date.String()},
			}
			update := bson.D{{Key: "$set", Value: bson.D{
				{Key: "status", Value: string(rec.Status)},
				{Key: "notes", Value: rec.Notes},
				{Key: "entered_by_id", Value: rec.EnteredByID},
				{Key: "entered_by_name", Value: rec.EnteredByName},
				{Key: "updated_at", Value: rec.UpdatedAt.UTC()},
			}}}

			var doc studentDoc
			if err := coll.FindOneAndUpdate(sc, filter, update, opts).Decode(&doc); err != nil {
				if err == mongo.ErrNoDocuments {
					return attendance.ErrRecordNotFound
				}
				return errors.Wrap(err, "updating student attendance")
			}
			updated = append(updated, doc.record())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (repo *attendanceRepository) FindStudentRecords(ctx context.Context, filter attendance.StudentFilter) ([]attendance.StudentRecord, error) {
	query := bson.D{}
	if filter.SchoolID != "" {
		query = append(query, bson.E{Key: "school_id", Value: filter.SchoolID})
	}
	if len(filter.ClassIDs) > 0 {
		query = append(query, bson.E{Key: "class_id", Value: bson.D{{Key: "$in", Value: filter.ClassIDs}}})
	}
	if filter.StudentID != "" {
		query = append(query, bson.E{Key: "student_id", Value: filter.StudentID})
	}
	query = dateRange(query, filter.From, filter.To)

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "student_id", Value: 1}})
	cur, err := repo.db.collection(studentAttendanceColl).Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding student attendance")
	}
	var docs []studentDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding student attendance")
	}

	recs := make([]attendance.StudentRecord, 0, len(docs))
	for _, doc := range docs {
		recs = append(recs, doc.record())
	}
	return recs, nil
}

func (repo *attendanceRepository) InsertTeacherRecords(
	ctx context.Context,
	schoolID string,
	date core.Date,
	records []attendance.TeacherRecord,
) ([]attendance.TeacherRecord, error) {
	var created []attendance.TeacherRecord

	err := repo.db.withTransaction(ctx, func(sc mongo.SessionContext) error {
		created = make([]attendance.TeacherRecord, 0, len(records))
		if err := repo.claim(sc, "school/"+schoolID, date, time.Now().UTC()); err != nil {
			return err
		}

		docs := make([]interface{}, 0, len(records))
		for _, rec := range records {
			doc := newTeacherDoc(rec)
			docs = append(docs, doc)
			created = append(created, doc.record())
		}
		if _, err := repo.db.collection(teacherAttendanceColl).InsertMany(sc, docs); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return attendance.ErrAlreadyMarked
			}
			return errors.Wrap(err, "inserting teacher attendance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo *attendanceRepository) UpdateTeacherRecords(ctx context.Context, records []attendance.TeacherRecord) ([]attendance.TeacherRecord, error) {
	var updated []attendance.TeacherRecord
	coll := repo.db.collection(teacherAttendanceColl)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := repo.db.withTransaction(ctx, func(sc mongo.SessionContext) error {
		updated = make([]attendance.TeacherRecord, 0, len(records))
		for _, rec := range records {
			filter := bson.D{
				{Key: "teacher_id", Value: rec.TeacherID},
				{Key: "school_id", Value: rec.SchoolID},
				{Key: "date", Value: rec.Date.String()},
			}
			update := bson.D{{Key: "$set", Value: bson.D{
				{Key: "status", Value: string(rec.Status)},
				{Key: "notes", Value: rec.Notes},
				{Key: "entered_by_id", Value: rec.EnteredByID},
				{Key: "entered_by_name", Value: rec.EnteredByName},
				{Key: "updated_at", Value: rec.UpdatedAt.UTC()},
			}}}

			var doc teacherDoc
			if err := coll.FindOneAndUpdate(sc, filter, update, opts).Decode(&doc); err != nil {
				if err == mongo.ErrNoDocuments {
					return attendance.ErrRecordNotFound
				}
				return errors.Wrap(err, "updating teacher attendance")
			}
			updated = append(updated, doc.record())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (repo *attendanceRepository) FindTeacherRecords(ctx context.Context, filter attendance.TeacherFilter) ([]attendance.TeacherRecord, error) {
	query := bson.D{}
	if filter.SchoolID != "" {
		query = append(query, bson.E{Key: "school_id", Value: filter.SchoolID})
	}
	if filter.TeacherID != "" {
		query = append(query, bson.E{Key: "teacher_id", Value: filter.TeacherID})
	}
	query = dateRange(query, filter.From, filter.To)

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "teacher_id", Value: 1}})
	cur, err := repo.db.collection(teacherAttendanceColl).Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding teacher attendance")
	}
	var docs []teacherDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding teacher attendance")
	}

	recs := make([]attendance.TeacherRecord, 0, len(docs))
	for _, doc := range docs {
		recs = append(recs, doc.record())
	}
	return recs, nil
}
