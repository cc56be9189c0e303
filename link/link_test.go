package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStampSymmetric(t *testing.T) {
	s := NewStamp(2)
	s.Set(0, 0, 1)
	s.Set(0, 1, -1)
	s.Set(1, 0, -1)
	s.Set(1, 1, 1)
	assert.True(t, s.IsSymmetric(1e-9))

	s.Set(1, 0, -2)
	assert.False(t, s.IsSymmetric(1e-9))
}

func TestBlockageValidate(t *testing.T) {
	assert.NoError(t, Blockage{Active: true, Fraction: 0.5}.Validate())
	assert.ErrorIs(t, Blockage{Active: true, Fraction: 1.5}.Validate(), ErrBlockageOutOfRange)
	assert.ErrorIs(t, Blockage{Active: true, Fraction: -0.1}.Validate(), ErrBlockageOutOfRange)
}
