package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrategy_Equal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		strategy Strategy
		column   string
		property string
		expected bool
	}{
		{Normalized, "user_id", "UserID", true},
		{Normalized, "USER-ID", "userId", true},
		{Normalized, "username", "UserID", false},
		{CaseInsensitive, "USERID", "UserID", true},
		{CaseInsensitive, "user_id", "UserID", false},
		{Exact, "UserID", "UserID", true},
		{Exact, "userid", "UserID", false},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String()+"/"+tt.column, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.strategy.Equal(tt.column, tt.property))
		})
	}
}

func TestStrategy_Split(t *testing.T) {
	t.Parallel()

	splits := Normalized.Split("students_phones_value")
	assert.Equal(t, []Split{
		{Head: "students", Rest: "phones_value"},
		{Head: "studentsphones", Rest: "value"},
	}, splits)

	assert.Equal(t, []Split{{Head: "address", Rest: "city.name", Dotted: true}},
		Normalized.Split("Address.city.name"))

	assert.Equal(t, []Split{{Head: "child", Rest: "Name"}}, Normalized.Split("childName"))
	assert.Nil(t, Normalized.Split("name"))

	assert.Equal(t, []Split{{Head: "a", Rest: "b_c"}, {Head: "a_b", Rest: "c"}}, Exact.Split("a_b_c"))
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	for _, s := range []Strategy{Normalized, CaseInsensitive, Exact} {
		parsed, ok := ParseStrategy(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, parsed)
	}

	_, ok := ParseStrategy("fuzzy")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Strategy(42).String())
}
