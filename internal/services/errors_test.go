package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFromStore(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"record not found", gorm.ErrRecordNotFound, KindNotFound},
		{"wrapped not found", fmt.Errorf("query: %w", gorm.ErrRecordNotFound), KindNotFound},
		{"foreign key", gorm.ErrForeignKeyViolated, KindInvalidReference},
		{"duplicate", gorm.ErrDuplicatedKey, KindInvalidInput},
		{"other", errors.New("disk I/O error"), KindStorageFault},
		{"service error passes through", invalidOperation("nope"), KindInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fromStore(tt.err, "task")
			assert.Equal(t, tt.kind, KindOf(err))
			assert.True(t, IsKind(err, tt.kind))
		})
	}

	assert.NoError(t, fromStore(nil, "task"))
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("locked")
	err := storageFault("failed to access task", cause)

	assert.Equal(t, "StorageFault: failed to access task: locked", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "NotFound: task not found", notFound("task").Error())
	assert.Equal(t, KindStorageFault, KindOf(errors.New("plain")))
	assert.False(t, IsKind(errors.New("plain"), KindStorageFault))
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "7 days", formatDays(DefaultRetentionWindow))
	assert.Equal(t, "1 day", formatDays(24*time.Hour))
	assert.Equal(t, "2h0m0s", formatDays(2*time.Hour))
}
