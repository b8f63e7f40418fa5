package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	type payload struct {
		Start Date  `json:"start"`
		End   *Date `json:"end"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-03-15","end":null}`), &p))
	assert.Equal(t, NewDate(2024, time.March, 15), p.Start)
	assert.Nil(t, p.End)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-03-15","end":null}`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"15/03/2024"}`), &p))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)
}
