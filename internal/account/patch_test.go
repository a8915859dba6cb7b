package account

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantSet   bool
		wantClear bool
		wantValue string
	}{
		{
			name:    "absent field stays unset",
			payload: `{}`,
		},
		{
			name:      "null clears",
			payload:   `{"firstName": null}`,
			wantClear: true,
		},
		{
			name:      "empty string clears",
			payload:   `{"firstName": ""}`,
			wantClear: true,
		},
		{
			name:      "whitespace-only clears",
			payload:   `{"firstName": "   "}`,
			wantClear: true,
		},
		{
			name:      "value sets",
			payload:   `{"firstName": "Ada"}`,
			wantSet:   true,
			wantValue: "Ada",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var patch AccountPatch
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &patch))

			value, set := patch.FirstName.Value()
			assert.Equal(t, tt.wantSet, set)
			assert.Equal(t, tt.wantValue, value)
			assert.Equal(t, tt.wantSet || tt.wantClear, patch.FirstName.Present())
		})
	}
}

func TestAccountPatch_Apply(t *testing.T) {
	acct := &Account{
		Email:     "ada@x.com",
		Name:      "ada",
		FirstName: strPtr("Ada"),
		Phone:     strPtr("555-0101"),
	}

	patch := AccountPatch{
		LastName: SetField("Lovelace"),
		Phone:    ClearField(),
	}
	patch.Apply(acct)

	require.NotNil(t, acct.LastName)
	assert.Equal(t, "Lovelace", *acct.LastName)
	assert.Nil(t, acct.Phone)
	// FirstName was absent from the patch and survives.
	require.NotNil(t, acct.FirstName)
	assert.Equal(t, "Ada", *acct.FirstName)
	assert.Equal(t, "Ada Lovelace", acct.Name)
}

func TestAccountPatch_NameFallsBackToEmail(t *testing.T) {
	acct := &Account{
		Email:     "ada@x.com",
		Name:      "Ada Lovelace",
		FirstName: strPtr("Ada"),
		LastName:  strPtr("Lovelace"),
	}

	patch := AccountPatch{FirstName: ClearField(), LastName: ClearField()}
	patch.Apply(acct)

	assert.Equal(t, "ada", acct.Name)
}

func TestProfilePatch_Apply(t *testing.T) {
	profile := &Profile{
		UserID: "u1",
		Bio:    strPtr("old bio"),
		City:   strPtr("London"),
	}

	patch := ProfilePatch{
		Bio:     SetField("new bio"),
		Country: SetField("UK"),
		City:    ClearField(),
	}
	patch.Apply(profile)

	require.NotNil(t, profile.Bio)
	assert.Equal(t, "new bio", *profile.Bio)
	require.NotNil(t, profile.Country)
	assert.Equal(t, "UK", *profile.Country)
	assert.Nil(t, profile.City)
}
