package column_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flat-mapper/column"
)

func TestCompose_RightBiased(t *testing.T) {
	t.Parallel()

	def := column.Compose(
		column.DateFormat("2006-01-02"),
		column.Rename("first"),
		column.Rename("second"),
	)

	name, ok := def.RenamedTo()
	require.True(t, ok)
	assert.Equal(t, "second", name)

	layout, ok := def.DateLayout()
	require.True(t, ok)
	assert.Equal(t, "2006-01-02", layout)
	assert.False(t, def.IsKey())
}

func TestCompose_UnsetAttributesKeepDefaults(t *testing.T) {
	t.Parallel()

	base := column.Compose(column.AsKey(), column.DateFormat("15:04"))
	def := base.Compose(column.Rename("x"))

	assert.True(t, def.IsKey())
	layout, _ := def.DateLayout()
	assert.Equal(t, "15:04", layout)

	cleared := def.Compose(column.NotKey())
	assert.False(t, cleared.IsKey())
}

func TestCompose_Associative(t *testing.T) {
	t.Parallel()

	utc := time.UTC
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		paris = time.FixedZone("CET", 3600)
	}

	defs := []column.Definition{
		column.Identity(),
		column.Rename("a"),
		column.Rename("b"),
		column.DateFormat("2006"),
		column.TimeZone(utc),
		column.TimeZone(paris),
		column.AsKey(),
		column.NotKey(),
		column.Ignore(),
	}

	describe := func(d column.Definition) string {
		return d.String() + fmt.Sprint(d.Location())
	}

	for _, a := range defs {
		for _, b := range defs {
			for _, c := range defs {
				left := column.Compose(column.Compose(a, b), c)
				right := column.Compose(a, column.Compose(b, c))
				assert.Equal(t, describe(left), describe(right))
			}
		}
	}
}

func TestDefinition_KeyScope(t *testing.T) {
	t.Parallel()

	top := column.Property{Path: "id", Type: reflect.TypeOf(0)}
	nested := column.Property{Path: "students.id", Type: reflect.TypeOf(0), Nested: true}

	anyKey := column.AsKey()
	assert.True(t, anyKey.KeyAppliesTo(top))
	assert.True(t, anyKey.KeyAppliesTo(nested))

	topKey := column.AsKeyFor(column.TopLevel)
	assert.True(t, topKey.KeyAppliesTo(top))
	assert.False(t, topKey.KeyAppliesTo(nested))

	assert.False(t, column.Identity().KeyAppliesTo(top))
}

func TestDefinition_ApplyRename(t *testing.T) {
	t.Parallel()

	key := column.NewKey("user_name", 3)
	renamed := column.Rename("name").Apply(key)

	assert.Equal(t, column.Key{Name: "name", Index: 3}, renamed)
	assert.Equal(t, key, column.Identity().Apply(key))
	assert.Equal(t, "name#3", renamed.String())
}

func TestDecodeFunc(t *testing.T) {
	t.Parallel()

	def := column.DecodeFunc(func(cell []byte) (any, error) {
		return "Hello!", nil
	})

	require.NotNil(t, def.Decoder())
	v, err := def.Decoder().Decode([]byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "Hello!", v)
}
