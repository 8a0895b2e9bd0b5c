package mapping

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flat-mapper/column"
	"flat-mapper/internal/match"
)

func TestParse(t *testing.T) {
	t.Parallel()

	yaml := `
date_format: "2006-01-02"
time_zone: UTC
match: exact
keys: id
columns:
  - name: students_id
    key: true
  - name: born
    rename: birth_date
    date_format: "02/01/2006"
  - name: internal
    ignore: true
`

	f, err := Parse([]byte(yaml))
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, DefaultVersion, f.Version)
	assert.Equal(t, "2006-01-02", f.DateFormat)
	assert.Equal(t, StringOrArray{"id"}, f.Keys)
	require.Len(t, f.Columns, 3)

	assert.Equal(t, ScopeAny, f.Columns[0].KeyScope, "key scope defaults to any")
	assert.Equal(t, "birth_date", f.Columns[1].Rename)
	assert.True(t, f.Columns[2].Ignore)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("columns: {name: x"))
	require.Error(t, err)

	_, err = Parse([]byte("keys: {a: b}"))
	require.Error(t, err)
}

func TestParseStringOrArray(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte("keys: [id, students_id]"))
	require.NoError(t, err)
	assert.Equal(t, StringOrArray{"id", "students_id"}, f.Keys)
	assert.Equal(t, "id", f.Keys.First())
	assert.True(t, f.Keys.Contains("students_id"))

	f, err = Parse([]byte(`keys: ""`))
	require.NoError(t, err)
	assert.Empty(t, f.Keys)
	assert.Empty(t, f.Keys.First())
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "columns.yaml")
	f := &File{
		Version: DefaultVersion,
		Keys:    StringOrArray{"id"},
		Columns: []Column{{Name: "id", Key: true, KeyScope: ScopeTop}},
	}

	require.NoError(t, WriteFile(f, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, f, loaded)

	data, err := Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), "keys: id\n")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		file     *File
		errs     []error
		warnings int
	}{
		{name: "nil", file: nil, errs: []error{nil}},
		{name: "valid", file: &File{Version: "1", Columns: []Column{{Name: "id", Key: true}}}},
		{name: "version", file: &File{Version: "2"}, errs: []error{ErrUnsupportedVersion}},
		{name: "strategy", file: &File{Version: "1", Match: "fuzzy"}, errs: []error{ErrUnknownStrategy}},
		{name: "zone", file: &File{Version: "1", TimeZone: "Mars/Olympus"}, errs: []error{ErrBadTimeZone}},
		{
			name: "columns",
			file: &File{Version: "1", Columns: []Column{
				{},
				{Name: "a", KeyScope: "middle", Key: true},
				{Name: "a"},
			}},
			errs: []error{ErrEmptyColumnName, ErrUnknownKeyScope, ErrDuplicateColumn},
		},
		{
			name:     "warnings",
			file:     &File{Version: "1", Columns: []Column{{Name: "a", KeyScope: ScopeTop}, {Name: "b", Ignore: true, Rename: "c"}}},
			warnings: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			diags := Validate(tt.file)
			require.Len(t, diags.Errors, len(tt.errs), diags.Describe())

			for i, want := range tt.errs {
				if want != nil {
					assert.ErrorIs(t, diags.Errors[i].Err, want)
				}
			}

			assert.Len(t, diags.Warnings, tt.warnings)
		})
	}
}

func TestCompile(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte(`
date_format: "2006-01-02"
time_zone: UTC
match: case_insensitive
keys: [id]
columns:
  - name: students_id
    key: true
    key_scope: top
  - name: born
    rename: birth_date
  - name: skip
    ignore: true
`))
	require.NoError(t, err)

	cfg, err := Compile(f)
	require.NoError(t, err)

	assert.Equal(t, "2006-01-02", cfg.DateFormat)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.True(t, cfg.HasStrategy)
	assert.Equal(t, match.CaseInsensitive, cfg.Strategy)
	assert.Equal(t, []string{"id", "students_id"}, cfg.Keys)

	scoped := cfg.Columns["students_id"]
	assert.True(t, scoped.IsKey())
	assert.True(t, scoped.KeyAppliesTo(column.Property{}))
	assert.False(t, scoped.KeyAppliesTo(column.Property{Nested: true}))

	name, ok := cfg.Columns["born"].RenamedTo()
	assert.True(t, ok)
	assert.Equal(t, "birth_date", name)
	assert.True(t, cfg.Columns["skip"].IsIgnored())

	_, err = Compile(&File{Version: "1", TimeZone: "Mars/Olympus"})
	require.ErrorIs(t, err, ErrBadTimeZone)
}

func TestCheckHeader(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte(`
keys: id
columns:
  - name: students_id
    key: true
  - name: born
    date_format: "02/01/2006"
`))
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   []string
		errors   []string
		warnings []string
	}{
		{name: "complete", header: []string{"ID", "Students-Id", "born"}},
		{name: "missing key", header: []string{"students_id", "born"}, errors: []string{"id"}},
		{name: "missing column", header: []string{"id", "students_id"}, warnings: []string{"born"}},
		{name: "missing nested key", header: []string{"id"}, errors: []string{"students_id"}, warnings: []string{"born"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			diags := CheckHeader(f, tt.header)

			var errs, warns []string
			for _, d := range diags.Errors {
				assert.ErrorIs(t, d.Err, ErrKeyNotInHeader)
				errs = append(errs, d.Column)
			}

			for _, d := range diags.Warnings {
				warns = append(warns, d.Column)
			}

			assert.Equal(t, tt.errors, errs)
			assert.Equal(t, tt.warnings, warns)
		})
	}
}
