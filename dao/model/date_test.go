package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		Day  Date  `json:"day"`
		Opt  *Date `json:"opt"`
		Zero Date  `json:"zero"`
	}
	w := wrapper{Day: NewDate(2024, time.February, 29)}
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2024-02-29","opt":null,"zero":null}`, string(data))

	var back wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2024-02-29","opt":"2025-01-05","zero":""}`), &back))
	assert.True(t, back.Day.Equal(w.Day))
	require.NotNil(t, back.Opt)
	assert.Equal(t, "2025-01-05", back.Opt.String())
	assert.True(t, back.Zero.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"day":"29/02/2024"}`), &back))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 5, 6, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-06", d.String())

	require.NoError(t, d.Scan("2023-11-02 00:00:00+00:00"))
	assert.Equal(t, "2023-11-02", d.String())

	require.NoError(t, d.Scan([]byte("2022-01-31")))
	assert.Equal(t, "2022-01-31", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("2022"))
}

func TestDateValue(t *testing.T) {
	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewDate(2024, 1, 2).Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), v)
}
