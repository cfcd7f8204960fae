package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigTimestampTouch(t *testing.T) {
	db := testDB(t)
	service := NewConfigTimestampService(db)

	// nothing recorded yet
	last, err := service.LastUpdate()
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	require.NoError(t, service.Touch())
	first, err := service.LastUpdate()
	require.NoError(t, err)
	assert.False(t, first.IsZero())

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, service.Touch())
	second, err := service.LastUpdate()
	require.NoError(t, err)
	assert.True(t, second.After(first))

	// touch keeps a single row
	var count int64
	require.NoError(t, db.Model(&ConfigTimestamp{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
