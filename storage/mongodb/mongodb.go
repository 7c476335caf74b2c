package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/mahudhurio/core"
)

// Collections
const (
	studentAttendanceColl = "student_attendance"
	teacherAttendanceColl = "teacher_attendance"
	marksColl             = "attendance_marks" // one document per marked (class|school, date)
	classesColl           = "classes"
	studentsColl          = "students"
	teachersColl          = "teachers"
)

const defaultTimeout = 10 * time.Second

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect connects to the MongoDB server of conf, waits for it to answer & ensures the indexes exist.
func Connect(ctx context.Context, conf core.MongoConfig) (*DB, error) {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging mongodb")
	}

	db := &DB{client: client, db: client.Database(conf.Database)}
	if err = db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return db, nil
}

func (db *DB) Close(ctx context.Context) error {
	return errors.Wrap(db.client.Disconnect(ctx), "disconnecting from mongodb")
}

// Drop drops the whole database.
func (db *DB) Drop(ctx context.Context) error {
	return errors.Wrap(db.db.Drop(ctx), "dropping database")
}

func (db *DB) collection(name string) *mongo.Collection {
	return db.db.Collection(name)
}

// EnsureIndexes creates the unique (entity, date) indexes backing the one-record-per-day rule,
// plus the lookup indexes of the report queries.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		studentAttendanceColl: {
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "date", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "class_id", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "school_id", Value: 1}, {Key: "date", Value: 1}}},
		},
		teacherAttendanceColl: {
			{Keys: bson.D{{Key: "teacher_id", Value: 1}, {Key: "date", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "school_id", Value: 1}, {Key: "date", Value: 1}}},
		},
		classesColl:  {{Keys: bson.D{{Key: "school_id", Value: 1}}}},
		studentsColl: {{Keys: bson.D{{Key: "school_id", Value: 1}}}},
		teachersColl: {{Keys: bson.D{{Key: "school_id", Value: 1}}}},
	}
	for coll, models := range indexes {
		if _, err := db.collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// withTransaction runs fn in a transaction of a new session.
func (db *DB) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := db.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
