package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountiesList(t *testing.T) {
	assert.Len(t, Counties, 26)
	assert.Equal(t, "Carlow", Counties[0])
	assert.Equal(t, "Wicklow", Counties[len(Counties)-1])
}

func TestValidCounty(t *testing.T) {
	assert.True(t, ValidCounty("Dublin"))
	assert.True(t, ValidCounty("Laois"))

	assert.False(t, ValidCounty("dublin")) // case sensitive
	assert.False(t, ValidCounty(""))
	assert.False(t, ValidCounty("Antrim")) // not in scope
}
