package mongorepos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/storage/storetest"
)

// connect connects to a fresh database of the server at MONGO_TEST_URI, dropped at the end of the test.
// Transactions need the server to be a replica set.
func connect(t *testing.T) *DB {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	db, err := Connect(context.Background(), core.MongoConfig{
		URI:      uri,
		Database: "mahudhurio_test_" + uuid.NewString()[:8],
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_ = db.Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}

func TestDirectory(t *testing.T) {
	storetest.TestDirectory(t, NewDirectory(connect(t)))
}

func TestAttendanceRepository_students(t *testing.T) {
	storetest.TestStudentRecords(t, NewAttendanceRepository(connect(t)))
}

func TestAttendanceRepository_teachers(t *testing.T) {
	storetest.TestTeacherRecords(t, NewAttendanceRepository(connect(t)))
}

func TestAttendanceRepository_concurrentInserts(t *testing.T) {
	storetest.TestConcurrentInserts(t, NewAttendanceRepository(connect(t)))
}
