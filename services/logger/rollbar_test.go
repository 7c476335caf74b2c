package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	l := NewRollbarLogger(log.New(buf, "API : ", 0), core.NewTestConfig())
	l.Enable(false)
	return l
}

func TestRollbarLogger_prepare(t *testing.T) {
	l := newTestLogger(new(bytes.Buffer))
	usr := user.User{ID: "teacher-1", Name: "Juma", SchoolID: "school-1", Roles: []string{user.RoleTeacher}}
	err := errors.New("boom")

	args := l.prepare("marking attendance", []interface{}{err, usr, map[string]interface{}{"class_id": "class-7"}, usr})
	require.Len(t, args, 3)
	assert.Equal(t, "marking attendance", args[0])
	assert.Equal(t, err, args[1])
	assert.Equal(t, map[string]interface{}{
		"school_id": "school-1",
		"roles":     []string{user.RoleTeacher},
		"class_id":  "class-7",
	}, args[2])

	args = l.prepare("no user", nil)
	assert.Equal(t, []interface{}{"no user"}, args)
}

func TestRollbarLogger_print(t *testing.T) {
	buf := new(bytes.Buffer)
	l := newTestLogger(buf)

	l.Info("attendance marked", map[string]interface{}{"records": 3})
	assert.Equal(t, "API : attendance marked\nAPI : map[records:3]\n", buf.String())
}
