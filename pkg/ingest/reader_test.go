package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := "Region,Sale Amount,Active\nwest,10,true\neast,20,false\n"

	table, err := ReadCSV(strings.NewReader(input), "sales")

	require.NoError(t, err)
	assert.Equal(t, "sales", table.Name)
	assert.Equal(t, []string{"region", "sale_amount", "active"}, table.Columns)
	assert.Equal(t, []string{TypeText, TypeBigint, TypeBoolean}, table.Types)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"west", "10", "true"}, table.Rows[0])
}

func TestReadCSVRaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n3,4,5,6\n"

	table, err := ReadCSV(strings.NewReader(input), "data")

	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"1", "2", ""}, table.Rows[0], "short rows padded")
	assert.Equal(t, []string{"3", "4", "5"}, table.Rows[1], "long rows truncated to header width")
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "empty")

	assert.Error(t, err)
}

func TestReadCSVHeaderOnly(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("a,b\n"), "data")

	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.Equal(t, []string{TypeText, TypeText}, table.Types)
}
