package features

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveRanges_KnownColumn(t *testing.T) {
	csv := "trestbps,chol,target\n130,250,1\n140,200,0\n120,300,1\n150,180,0\n"

	specs, err := DeriveRanges(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, FeatureSpec{Name: "trestbps", Min: 120, Max: 150}, specs[0])
	assert.Equal(t, FeatureSpec{Name: "chol", Min: 180, Max: 300}, specs[1])
}

func TestDeriveReference_ExcludesLabelColumn(t *testing.T) {
	csv := "age,sex,target\n63,1,1\n37,0,0\n"

	ref, err := DeriveReference(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "sex"}, Names(ref.Specs))
	assert.Equal(t, "target", ref.LabelColumn)
	assert.Equal(t, 2, ref.Rows)
}

func TestDeriveReference_LabelColumnMayBeNonNumeric(t *testing.T) {
	csv := "age,diagnosis\n63,yes\n37,no\n"

	specs, err := DeriveRanges(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []FeatureSpec{{Name: "age", Min: 37, Max: 63}}, specs)
}

func TestDeriveReference_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		column  string
		row     int
		message string
	}{
		{name: "empty input", input: "", message: "missing header"},
		{name: "label only", input: "target\n1\n", message: "at least one feature column"},
		{name: "no data rows", input: "age,target\n", column: "age", message: "column is empty"},
		{name: "non-numeric value", input: "age,target\n63,1\nold,0\n", column: "age", row: 2, message: "non-numeric"},
		{name: "empty cell", input: "age,chol,target\n63,,1\n", column: "chol", row: 1, message: "empty value"},
		{name: "NaN literal", input: "age,target\nNaN,1\n", column: "age", row: 1, message: "non-finite"},
		{name: "ragged row", input: "age,chol,target\n63,200,1\n40,0\n", row: 2, message: "malformed record"},
		{name: "duplicate header", input: "age,age,target\n1,2,0\n", column: "age", message: "duplicate"},
		{name: "blank header", input: "age, ,target\n1,2,0\n", message: "has no name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveReference(strings.NewReader(tt.input))
			require.Error(t, err)

			var dfe *DataFormatError
			require.True(t, errors.As(err, &dfe), "expected DataFormatError, got %T", err)
			assert.Equal(t, tt.column, dfe.Column)
			assert.Equal(t, tt.row, dfe.Row)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadRanges_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heart.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffage,oldpeak,target\n63,2.3,1\n41,0.0,0\n"), 0o644))

	specs, err := LoadRanges(path)
	require.NoError(t, err)
	assert.Equal(t, []FeatureSpec{
		{Name: "age", Min: 41, Max: 63},
		{Name: "oldpeak", Min: 0, Max: 2.3},
	}, specs)
}

func TestLoadRanges_ErrorCarriesPath(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.csv")
	_, err := LoadRanges(missing)
	var dfe *DataFormatError
	require.True(t, errors.As(err, &dfe))
	assert.Equal(t, missing, dfe.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("age,target\nx,1\n"), 0o644))
	_, err = LoadRanges(bad)
	require.True(t, errors.As(err, &dfe))
	assert.Equal(t, bad, dfe.Path)
	assert.Contains(t, err.Error(), bad)
}

func TestLoadReference_ShippedDataset(t *testing.T) {
	ref, err := LoadReference(filepath.Join("..", "..", "data", "heart.csv"))
	require.NoError(t, err)

	require.Len(t, ref.Specs, 13)
	assert.Equal(t, "target", ref.LabelColumn)
	assert.Equal(t, FeatureSpec{Name: "age", Min: 29, Max: 77}, ref.Specs[0])
	assert.Equal(t, FeatureSpec{Name: "oldpeak", Min: 0, Max: 6.2}, ref.Specs[9])
	for _, s := range ref.Specs {
		assert.LessOrEqual(t, s.Min, s.Max, s.Name)
	}
}
