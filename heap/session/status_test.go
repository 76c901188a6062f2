package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshuapare/blockalloc/heap/alloc"
	"github.com/joshuapare/blockalloc/internal/txlog"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, StatusOK},
		{alloc.ErrInvalidName, StatusInvalidName},
		{alloc.ErrDuplicateVariable, StatusDuplicate},
		{alloc.ErrUnknownVariable, StatusUnknownVariable},
		{alloc.ErrOutOfMemory, StatusOutOfMemory},
		{errors.New("pool exploded"), StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func TestMessages_UnclassifiedEngineError(t *testing.T) {
	err := errors.New("pool exploded")
	for _, op := range []txlog.Op{txlog.OpAllocate, txlog.OpFree, txlog.OpReference} {
		res := Result{
			Tx:     txlog.Transaction{Line: 3, Op: op, Size: 4, Name: "a", Target: "b"},
			Status: statusOf(err),
			Err:    err,
		}
		assert.True(t, res.Status.Failed())
		assert.Equal(t, []string{"Error: pool exploded"}, messages(res), op.String())
	}
}
