package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Model,Parents,Predecessor,Institute,Country,Family,CMIP3 names,CMIP5 names,CMIP6 names\n"

func TestLoad(t *testing.T) {
	data := header +
		`HadCM3,,,MOHC,UK,UM,"ukmo_hadcm3",HadCM3,` + "\n" +
		`HadGEM2-ES,"HadCM3, ECHAM5",,MOHC,UK,UM,,HadGEM2-ES,` + "\n" +
		`UKESM1-0-LL,,HadGEM2-ES,MOHC,UK,UM,,,UKESM1-0-LL` + "\n" +
		`OldModel,,,Inst,XX,,,,` + "\n"

	records, err := Load(strings.NewReader(data), nil)
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "HadCM3", records[0].Name)
	assert.True(t, records[0].Active)
	assert.Equal(t, []string{"ukmo_hadcm3", "HadCM3"}, records[0].Variants)

	assert.Equal(t, []string{"HadCM3", "ECHAM5"}, records[1].Parents)
	assert.Equal(t, "HadGEM2-ES", records[2].Predecessor)

	assert.False(t, records[3].Active)
	assert.Empty(t, records[3].Variants)
	assert.Empty(t, records[3].Parents)
	assert.Equal(t, "", records[3].Family)
}

func TestLoadMissingColumn(t *testing.T) {
	_, err := Load(strings.NewReader("Model,Parents\nA,\n"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "Predecessor")
}

func TestLoadShortRowsAreEmpty(t *testing.T) {
	records, err := Load(strings.NewReader(header+"A,,,I\n"), nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "I", records[0].Institute)
	assert.Equal(t, "", records[0].Country)
	assert.False(t, records[0].Active)
}

func TestLoadDuplicateModel(t *testing.T) {
	_, err := Load(strings.NewReader(header+"A,,,,,,,,\nA,,,,,,,,\n"), nil)
	assert.ErrorIs(t, err, ErrDuplicateModel)
}

func TestLoadCustomGenerations(t *testing.T) {
	data := "Model,Parents,Predecessor,Institute,Country,Family,CMIP7 names\nA,,,,,,a1\n"
	records, err := Load(strings.NewReader(data), []string{"CMIP7"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Active)
	assert.Equal(t, []string{"a1"}, records[0].Variants)
}

func TestLoadSubset(t *testing.T) {
	names, err := LoadSubset(strings.NewReader("Model\nA\n\n B \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)

	names, err = LoadSubset(strings.NewReader("Model\n"))
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)

	_, err = LoadSubset(strings.NewReader("Name\nA\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestGroupKey(t *testing.T) {
	m := ModelRecord{Name: "A", Institute: "I", Country: "C", Family: "F"}
	for key, want := range map[string]string{"model": "A", "institute": "I", "country": "C", "family": "F"} {
		got, ok := m.GroupKey(key)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := m.GroupKey("code")
	assert.False(t, ok)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,, b,"))
}

func TestDeriveActive(t *testing.T) {
	records := []ModelRecord{
		{Name: "A", Active: false, Variants: []string{"a1"}},
		{Name: "B", Active: true},
	}
	DeriveActive(records)
	assert.True(t, records[0].Active)
	assert.False(t, records[1].Active)
}
