// Package storage opens the storage backend selected by the configuration.
package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/storage/database"
	inmemdb "github.com/trezcool/mahudhurio/storage/database/inmem"
	sqlxrepos "github.com/trezcool/mahudhurio/storage/database/sqlx"
	mongorepos "github.com/trezcool/mahudhurio/storage/mongodb"
)

// Stores holds the repositories of one backend.
type Stores struct {
	Attendance attendance.Repository
	Schools    school.Repository

	// SQL is the relational database behind the repositories; nil for other backends.
	SQL   *sqlx.DB
	close func() error
}

func (s Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open sets up the backend of conf.Database.Backend. The relational database is created
// & migrated when missing.
func Open(ctx context.Context, conf *core.Config) (Stores, error) {
	switch conf.Database.Backend {
	case core.BackendMemory:
		db, err := inmemdb.Open()
		if err != nil {
			return Stores{}, errors.Wrap(err, "opening in-memory database")
		}
		return Stores{
			Attendance: inmemdb.NewAttendanceRepository(db),
			Schools:    inmemdb.NewDirectory(db),
		}, nil

	case core.BackendMongo:
		db, err := mongorepos.Connect(ctx, conf.Mongo)
		if err != nil {
			return Stores{}, err
		}
		return Stores{
			Attendance: mongorepos.NewAttendanceRepository(db),
			Schools:    mongorepos.NewDirectory(db),
			close:      func() error { return db.Close(context.Background()) },
		}, nil

	case core.BackendPostgres:
		db, err := setUpDB(conf)
		if err != nil {
			return Stores{}, err
		}
		return Stores{
			Attendance: sqlxrepos.NewAttendanceRepository(db),
			Schools:    sqlxrepos.NewDirectory(db),
			SQL:        db,
			close:      db.Close,
		}, nil

	default:
		return Stores{}, errors.Errorf("unknown database backend %q", conf.Database.Backend)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, errors.Wrap(err, "creating database")
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
