package csv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	f, err := New("products.csv", strings.NewReader("\ufeffcategory, product,note\nICE,high_speed_train,x\n,bus,\n"))
	require.NoError(t, err)

	category := f.RequiredColumn("category")
	product := f.RequiredColumn("product")
	note := f.OptionalColumn("note")
	operator := f.RequiredColumn("operator")
	assert.Equal(t, []string{"operator"}, f.MissingColumns())

	require.True(t, f.NextRow())
	assert.Equal(t, "ICE", category.Read())
	assert.Equal(t, "high_speed_train", product.Read())
	assert.Equal(t, "x", note.Read())
	assert.Empty(t, f.MissingRowKeys())

	require.True(t, f.NextRow())
	assert.Equal(t, 2, f.RowNumber())
	assert.Equal(t, "", category.Read())
	assert.Equal(t, "", operator.Read())
	assert.Equal(t, []string{"category", "operator"}, f.MissingRowKeys())

	assert.False(t, f.NextRow())
	assert.NoError(t, f.Err())
}

func TestEmptyFile(t *testing.T) {
	_, err := New("empty.csv", strings.NewReader(""))
	assert.Error(t, err)
}
