package mapper

import (
	"testing"
	"time"

	"memberhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMapper() *Mapper {
	m := New()
	m.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	return m
}

func TestMap_PartitionsRows(t *testing.T) {
	rows := []Row{
		{"first_name": "John", "last_name": "Doe", "dob": "1990-05-15", "email": "john@example.com"},
		{"first_name": "Sarah", "dob": "1985-08-22"},
		{"First Name": "Mike", "Last Name": "Wilson", "Date of Birth": "1995-12-03", "Email": "not-an-email"},
		{"name": "Emma Grace Brown", "DOB": "1992-03-20"},
	}

	res := newTestMapper().Map(rows)

	assert.Equal(t, len(rows), len(res.Valid)+len(res.Invalid))
	require.Len(t, res.Valid, 2)
	assert.Equal(t, []string{
		"Row 2: Missing required fields (last_name)",
		"Row 3: Invalid email format",
	}, res.Invalid)

	assert.Equal(t, "John", res.Valid[0].FirstName)
	assert.Equal(t, "Emma", res.Valid[1].FirstName)
	assert.Equal(t, "Grace Brown", res.Valid[1].LastName)
}

func TestMap_UsesSourceRowNumber(t *testing.T) {
	valid := Row{"first_name": "John", "last_name": "Doe", "dob": "1990-05-15"}
	valid.SetSource(1)
	invalid := Row{"first_name": "Sarah", "dob": "1985-08-22"}
	invalid.SetSource(4)

	res := newTestMapper().Map([]Row{valid, invalid})
	require.Len(t, res.Valid, 1)
	assert.Equal(t, "John", res.Valid[0].FirstName)
	assert.Equal(t, []string{"Row 4: Missing required fields (last_name)"}, res.Invalid)
}

func TestMap_EmptyInput(t *testing.T) {
	res := newTestMapper().Map(nil)
	assert.Empty(t, res.Valid)
	assert.Empty(t, res.Invalid)
}

func TestForm_Synonyms(t *testing.T) {
	m := newTestMapper()

	tests := []struct {
		name string
		row  Row
		want func(t *testing.T, f models.Form)
	}{
		{
			name: "dob spellings",
			row:  Row{"Date of Birth": "1990-01-01"},
			want: func(t *testing.T, f models.Form) { assert.Equal(t, "1990-01-01", f.DOB) },
		},
		{
			name: "first non-empty synonym wins",
			row:  Row{"dob": "", "DOB": "", "birthdate": "1980-02-02"},
			want: func(t *testing.T, f models.Form) { assert.Equal(t, "1980-02-02", f.DOB) },
		},
		{
			name: "priority order",
			row:  Row{"address": "Fallback St, Lagos", "local_address": "12 Main St, Springfield"},
			want: func(t *testing.T, f models.Form) { assert.Equal(t, "12 Main St, Springfield", f.LocalAddress) },
		},
		{
			name: "phones",
			row:  Row{"Phone": "+1", "WhatsApp": "+2", "Emergency Contact": "+3", "Alt Contact": "+4"},
			want: func(t *testing.T, f models.Form) {
				assert.Equal(t, "+1", f.PrimaryPhone)
				assert.Equal(t, "+2", f.WhatsAppPhone)
				assert.Equal(t, "+3", f.EmergencyPhone)
				assert.Equal(t, "", f.OriginPhone)
			},
		},
		{
			name: "defaults",
			row:  Row{},
			want: func(t *testing.T, f models.Form) {
				assert.Equal(t, "2024-03-15", f.ChurchJoiningDate)
				assert.Equal(t, models.FamilyHere, f.FamilyStatus)
			},
		},
		{
			name: "join date kept",
			row:  Row{"Join Date": "2023-07-01"},
			want: func(t *testing.T, f models.Form) { assert.Equal(t, "2023-07-01", f.ChurchJoiningDate) },
		},
		{
			name: "family status normalized",
			row:  Row{"family_status": "origin"},
			want: func(t *testing.T, f models.Form) { assert.Equal(t, models.FamilyOriginCountry, f.FamilyStatus) },
		},
		{
			name: "explicit names beat combined name",
			row:  Row{"name": "Ignored Person", "first_name": "Jane", "last_name": "Smith"},
			want: func(t *testing.T, f models.Form) {
				assert.Equal(t, "Jane", f.FirstName)
				assert.Equal(t, "Smith", f.LastName)
			},
		},
		{
			name: "single token name",
			row:  Row{"Name": "  Cher  "},
			want: func(t *testing.T, f models.Form) {
				assert.Equal(t, "Cher", f.FirstName)
				assert.Equal(t, "", f.LastName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, m.Form(tt.row))
		})
	}
}

func TestForm_BooleanCoercion(t *testing.T) {
	m := newTestMapper()
	for _, v := range []string{"true", "TRUE", " 1 ", "yes", "Y"} {
		assert.True(t, m.Form(Row{"is_employed": v}).IsEmployed, v)
	}
	for _, v := range []string{"", "false", "0", "no", "employed"} {
		assert.False(t, m.Form(Row{"is_employed": v}).IsEmployed, v)
	}
}

func TestValidate(t *testing.T) {
	base := models.Form{FirstName: "A", LastName: "B", DOB: "2000-01-01"}
	assert.Empty(t, Validate(base))

	noDOB := base
	noDOB.DOB = " "
	assert.Equal(t, "Missing required fields (dob)", Validate(noDOB))

	assert.Equal(t, "Missing required fields (first_name, last_name, dob)", Validate(models.Form{}))

	badEmail := base
	badEmail.Email = "a@b"
	assert.Equal(t, "Invalid email format", Validate(badEmail))

	goodEmail := base
	goodEmail.Email = "a@b.co"
	assert.Empty(t, Validate(goodEmail))
}
