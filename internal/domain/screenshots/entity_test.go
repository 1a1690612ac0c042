package screenshots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkDeletedAndRestore(t *testing.T) {
	s := &Screenshot{ID: "a"}
	assert.Equal(t, StateActive, s.State())

	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	s.MarkDeleted(first)
	require.NotNil(t, s.DeletedAt)
	assert.True(t, s.IsDeleted)
	assert.Equal(t, time.UTC, s.DeletedAt.Location())
	assert.Equal(t, StateSoftDeleted, s.State())

	later := first.Add(time.Hour)
	s.MarkDeleted(later)
	assert.True(t, s.DeletedAt.Equal(later))

	s.Restore()
	assert.False(t, s.IsDeleted)
	assert.Nil(t, s.DeletedAt)

	s.Restore()
	assert.Equal(t, StateActive, s.State())
}

func TestRooms(t *testing.T) {
	p := Shape(&Screenshot{ID: "x", Owner: Owner{UserID: "u1", Email: "a@b.c", Name: "A"}})
	assert.Equal(t, []string{"all", "user:u1", "email:a@b.c", "admins"}, Rooms(p))

	assert.Equal(t, []string{"all", "admins"}, Rooms(Payload{ID: "y"}))
}
