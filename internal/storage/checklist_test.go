package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"Conforme", StatusConforming},
		{"  conforme ", StatusConforming},
		{"OK", StatusConforming},
		{"Não Conforme", StatusNonConforming},
		{"NAO   CONFORME", StatusNonConforming},
		{"nc", StatusNonConforming},
		{"N/A", StatusNotApplicable},
		{"Não aplicável", StatusNotApplicable},
		{"", StatusUnset},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	_, err := ParseStatus("talvez")
	assert.Error(t, err)
}

func TestStatus_UnmarshalJSON(t *testing.T) {
	var body struct {
		Status Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"nao conforme"}`), &body))
	assert.Equal(t, StatusNonConforming, body.Status)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"maybe"}`), &body))
}

func TestYesNo_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Rejected YesNo `json:"rejected"`
	}{Rejected: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rejected":"Sim"}`, string(data))

	var y YesNo
	require.NoError(t, json.Unmarshal([]byte(`"Não"`), &y))
	assert.False(t, bool(y))
	require.NoError(t, json.Unmarshal([]byte(`true`), &y))
	assert.True(t, bool(y))
	assert.Error(t, json.Unmarshal([]byte(`"talvez"`), &y))
}

func TestYesNo_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want YesNo
	}{
		{"string sim", "Sim", true},
		{"string nao", "Não", false},
		{"bytes", []byte("Sim"), true},
		{"bool", true, true},
		{"int", int64(1), true},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := YesNo(!tt.want)
			require.NoError(t, y.Scan(tt.src))
			assert.Equal(t, tt.want, y)
		})
	}

	var y YesNo
	assert.Error(t, y.Scan(3.5))
}

func TestYesNo_Value(t *testing.T) {
	v, err := YesNo(false).Value()
	require.NoError(t, err)
	assert.Equal(t, "Não", v)
}
