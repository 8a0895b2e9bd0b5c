package maperr_test

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flat-mapper/column"
	"flat-mapper/maperr"
)

type person struct {
	ID   int
	Name string
}

func TestCellParseError_Unwrap(t *testing.T) {
	t.Parallel()

	_, cause := strconv.Atoi("x")
	err := fmt.Errorf("row 3: %w", &maperr.CellParseError{
		Column: column.NewKey("id", 0),
		Raw:    "1x",
		Cause:  cause,
	})

	var parseErr *maperr.CellParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "1x", parseErr.Raw)
	assert.ErrorIs(t, err, strconv.ErrSyntax)
	assert.Contains(t, err.Error(), `column id#0: cannot decode "1x"`)
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	shape := reflect.TypeOf(person{})

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "unresolved with suggestions",
			err: &maperr.UnresolvedPropertyError{
				Shape: shape, Column: column.NewKey("nmae", 1), Name: "nmae", Suggestions: []string{"Name"},
			},
			want: `column nmae#1: no property "nmae" on maperr_test.person (did you mean Name?)`,
		},
		{
			name: "ambiguous",
			err:  &maperr.AmbiguousPropertyError{Shape: shape, Name: "id", Candidates: []string{"ID", "SetID"}},
			want: `property "id" on maperr_test.person is ambiguous between ID and SetID`,
		},
		{
			name: "missing injection",
			err:  &maperr.MissingInjectionPointError{Shape: shape, Parameters: []string{"id"}},
			want: "constructor of maperr_test.person has no column for parameter(s) id",
		},
		{
			name: "no decoder",
			err:  &maperr.NoDecoderError{Type: reflect.TypeOf(make(chan int)), Column: column.NewKey("c", 2)},
			want: "column c#2: no decoder for chan int",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRowError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &maperr.RowError{Row: 7, Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "row 7: boom", err.Error())
}
