package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/storage/database"
	"github.com/trezcool/mahudhurio/testutil"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		stores, err := Open(ctx, core.NewTestConfig())
		require.NoError(t, err)
		assert.Nil(t, stores.SQL)
		testutil.SaveRosters(t, stores.Schools, testutil.Roster())
		assert.NoError(t, stores.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		conf := core.NewTestConfig()
		conf.Database.Backend = core.BackendPostgres
		conf.Database.Engine = database.EngineSQLite
		conf.Database.Name = filepath.Join(t.TempDir(), "mahudhurio.db")

		stores, err := Open(ctx, conf)
		require.NoError(t, err)
		require.NotNil(t, stores.SQL)
		testutil.SaveRosters(t, stores.Schools, testutil.Roster())

		roster, err := stores.Schools.GetRoster(ctx, testutil.SchoolID)
		require.NoError(t, err)
		assert.Len(t, roster.Students, 4)
		assert.NoError(t, stores.Close())
	})

	t.Run("unknown backend", func(t *testing.T) {
		conf := core.NewTestConfig()
		conf.Database.Backend = "cassandra"
		_, err := Open(ctx, conf)
		assert.EqualError(t, err, `unknown database backend "cassandra"`)
	})
}
