package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldName(t *testing.T) {
	cases := map[string]string{
		"Full Name":            "full_name",
		"  Email  ":            "email",
		"Phone-Number":         "phone_number",
		"Parent's Name":        "parent_s_name",
		"Date of Birth (DOB)":  "date_of_birth_dob",
		"Médecin traitant":     "medecin_traitant",
		"U-14 / U-16 category": "u_14_u_16_category",
		"!!!":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, FieldName(in), "label %q", in)
	}
}

func TestFieldName_SameLabelSameName(t *testing.T) {
	assert.Equal(t, FieldName("Name"), FieldName("name "))
}

func TestURL(t *testing.T) {
	assert.Equal(t, "summer-trials-2024", URL("Summer Trials 2024!"))
}

func TestUnique(t *testing.T) {
	used := map[string]bool{"trials": true, "trials-2": true}
	taken := func(_ context.Context, c string) (bool, error) { return used[c], nil }

	got, err := Unique(context.Background(), "trials", taken)
	require.NoError(t, err)
	assert.Equal(t, "trials-3", got)

	got, err = Unique(context.Background(), "camp", taken)
	require.NoError(t, err)
	assert.Equal(t, "camp", got)

	got, err = Unique(context.Background(), "", taken)
	require.NoError(t, err)
	assert.Equal(t, "event", got)
}

func TestUnique_PropagatesLookupError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Unique(context.Background(), "x", func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
