package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONObjectArray(t *testing.T) {
	header, rows, err := DecodeJSON(strings.NewReader(`[{"id":1,"name":"alpha"},{"id":2,"name":"beta"}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, header)
	assert.Equal(t, [][]string{{"1", "alpha"}, {"2", "beta"}}, rows)
}

func TestDecodeJSONObjectArrayUnionsKeys(t *testing.T) {
	header, rows, err := DecodeJSON(strings.NewReader(`[{"id":1},{"id":2,"name":"beta"}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, header)
	assert.Equal(t, [][]string{{"1", ""}, {"2", "beta"}}, rows)
}

func TestDecodeJSONEnvelopeWithPositionalRows(t *testing.T) {
	header, rows, err := DecodeJSON(strings.NewReader(`{"columns":["id","name"],"data":[[1,"alpha"],[2,"beta"]]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, header)
	assert.Equal(t, [][]string{{"1", "alpha"}, {"2", "beta"}}, rows)
}

func TestDecodeJSONEnvelopeWithKeyedRows(t *testing.T) {
	header, rows, err := DecodeJSON(strings.NewReader(`{"columns":["id","name"],"data":[{"id":1,"name":"alpha"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, header)
	assert.Equal(t, [][]string{{"1", "alpha"}}, rows)
}

func TestDecodeJSONPreservesNumberFormatting(t *testing.T) {
	_, rows, err := DecodeJSON(strings.NewReader(`[{"price":19.50}]`))
	require.NoError(t, err)
	assert.Equal(t, "19.50", rows[0][0])
}

func TestDecodeJSONRejectsUnsupportedShape(t *testing.T) {
	_, _, err := DecodeJSON(strings.NewReader(`"just a string"`))
	assert.Error(t, err)
}

func TestDecodeJSONRejectsNonObjectRow(t *testing.T) {
	_, _, err := DecodeJSON(strings.NewReader(`[1, 2, 3]`))
	assert.Error(t, err)
}

func TestDecodeJSONEnvelopeMissingDataErrors(t *testing.T) {
	_, _, err := DecodeJSON(strings.NewReader(`{"columns":["id"]}`))
	assert.Error(t, err)
}

func TestDecodeJSONMalformedErrors(t *testing.T) {
	_, _, err := DecodeJSON(strings.NewReader(`{not json`))
	assert.Error(t, err)
}
