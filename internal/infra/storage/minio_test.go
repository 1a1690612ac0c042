package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURL(t *testing.T) {
	s := &Store{publicURL: "https://cdn.example.com/shots"}
	assert.Equal(t, "https://cdn.example.com/shots/screenshots/u1/2024-05-01/a.jpg", s.URL("screenshots/u1/2024-05-01/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/shots/x.jpg", s.URL("/x.jpg"))
}
