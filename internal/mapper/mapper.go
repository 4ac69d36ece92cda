// Package mapper turns loosely keyed import rows into member forms.
package mapper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"memberhub/internal/models"
)

// Row is one record of import data keyed by column header.
type Row map[string]string

// SourceKey holds the 1-based data row number in the source file. Decoders
// set it when they skip blank lines so messages match what the user sees.
const SourceKey = "#row"

// SetSource records the row's position in the source file.
func (r Row) SetSource(n int) {
	r[SourceKey] = strconv.Itoa(n)
}

func (r Row) number(fallback int) int {
	if n, err := strconv.Atoi(r[SourceKey]); err == nil && n > 0 {
		return n
	}
	return fallback
}

type Result struct {
	Valid   []models.Form `json:"valid"`
	Invalid []string      `json:"invalid"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type field struct {
	keys []string
	def  func(now time.Time) string
	set  func(f *models.Form, v string)
}

// fields lists, per canonical field, the accepted header spellings in
// priority order. Keys are stored normalized (see normalizeKey).
var fields = []field{
	{keys: []string{"title", "salutation"}, set: func(f *models.Form, v string) { f.Title = v }},
	{keys: []string{"firstname", "first", "givenname"}, set: func(f *models.Form, v string) { f.FirstName = v }},
	{keys: []string{"middlename", "middle"}, set: func(f *models.Form, v string) { f.MiddleName = v }},
	{keys: []string{"lastname", "last", "surname"}, set: func(f *models.Form, v string) { f.LastName = v }},
	{keys: []string{"familyname"}, set: func(f *models.Form, v string) { f.FamilyName = v }},
	{keys: []string{"dob", "dateofbirth", "birthdate", "birthday"}, set: func(f *models.Form, v string) { f.DOB = v }},
	{keys: []string{"email", "emailaddress", "mail"}, set: func(f *models.Form, v string) { f.Email = v }},
	{keys: []string{"baptismdate"}, set: func(f *models.Form, v string) { f.BaptismDate = v }},
	{keys: []string{"baptismchurch"}, set: func(f *models.Form, v string) { f.BaptismChurch = v }},
	{keys: []string{"baptismcountry"}, set: func(f *models.Form, v string) { f.BaptismCountry = v }},
	{
		keys: []string{"familystatus", "status"},
		def:  func(time.Time) string { return models.FamilyHere },
		set:  func(f *models.Form, v string) { f.FamilyStatus = normalizeFamilyStatus(v) },
	},
	{keys: []string{"carsel", "cellgroup"}, set: func(f *models.Form, v string) { f.Carsel = v }},
	{keys: []string{"localaddress", "address"}, set: func(f *models.Form, v string) { f.LocalAddress = v }},
	{
		keys: []string{"churchjoiningdate", "joindate", "joiningdate", "joineddate"},
		def:  func(now time.Time) string { return now.Format(time.DateOnly) },
		set:  func(f *models.Form, v string) { f.ChurchJoiningDate = v },
	},
	{keys: []string{"profilepic", "profilepicurl", "profilepicture", "photourl"}, set: func(f *models.Form, v string) { f.ProfilePic = v }},
	{keys: []string{"familyphoto", "familyphotourl"}, set: func(f *models.Form, v string) { f.FamilyPhoto = v }},
	{keys: []string{"primaryphone", "phone", "phonenumber", "mobile"}, set: func(f *models.Form, v string) { f.PrimaryPhone = v }},
	{keys: []string{"whatsappphone", "whatsapp", "whatsappnumber"}, set: func(f *models.Form, v string) { f.WhatsAppPhone = v }},
	{keys: []string{"emergencyphone", "emergencycontact", "altcontact"}, set: func(f *models.Form, v string) { f.EmergencyPhone = v }},
	{keys: []string{"originphone", "origincountryphone", "homecountryphone"}, set: func(f *models.Form, v string) { f.OriginPhone = v }},
	{keys: []string{"isemployed", "employed"}, set: func(f *models.Form, v string) { f.IsEmployed = parseBool(v) }},
	{keys: []string{"companyname", "company", "employer"}, set: func(f *models.Form, v string) { f.CompanyName = v }},
	{keys: []string{"designation", "jobtitle"}, set: func(f *models.Form, v string) { f.Designation = v }},
	{keys: []string{"profession", "occupation"}, set: func(f *models.Form, v string) { f.Profession = v }},
	{keys: []string{"employmentstartdate", "startdate"}, set: func(f *models.Form, v string) { f.EmploymentStartDate = v }},
	{keys: []string{"ismarried", "married"}, set: func(f *models.Form, v string) { f.IsMarried = parseBool(v) }},
}

var nameKeys = []string{"name", "fullname"}

type Mapper struct {
	now func() time.Time
}

func New() *Mapper {
	return &Mapper{now: time.Now}
}

// Map partitions rows into valid forms and row-numbered reasons. Every row
// lands in exactly one of the two lists.
func (m *Mapper) Map(rows []Row) Result {
	res := Result{Valid: []models.Form{}, Invalid: []string{}}
	for i, row := range rows {
		form := m.Form(row)
		if reason := Validate(form); reason != "" {
			res.Invalid = append(res.Invalid, fmt.Sprintf("Row %d: %s", row.number(i+1), reason))
			continue
		}
		res.Valid = append(res.Valid, form)
	}
	return res
}

// Form resolves a single row without validating it.
func (m *Mapper) Form(row Row) models.Form {
	normalized := make(map[string]string, len(row))
	for k, v := range row {
		if k == SourceKey {
			continue
		}
		key := normalizeKey(k)
		if existing := normalized[key]; existing != "" {
			continue
		}
		normalized[key] = strings.TrimSpace(v)
	}

	now := m.now()
	var form models.Form
	for _, fd := range fields {
		v := lookup(normalized, fd.keys)
		if v == "" && fd.def != nil {
			v = fd.def(now)
		}
		if v != "" {
			fd.set(&form, v)
		}
	}

	if form.FirstName == "" && form.LastName == "" {
		if full := lookup(normalized, nameKeys); full != "" {
			form.FirstName, form.LastName = splitName(full)
		}
	}
	return form
}

// Validate returns the reason a form cannot be imported, or "" when it can.
func Validate(f models.Form) string {
	var missing []string
	if strings.TrimSpace(f.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(f.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(f.DOB) == "" {
		missing = append(missing, "dob")
	}
	if len(missing) > 0 {
		return "Missing required fields (" + strings.Join(missing, ", ") + ")"
	}
	if f.Email != "" && !emailPattern.MatchString(f.Email) {
		return "Invalid email format"
	}
	return ""
}

func lookup(row map[string]string, keys []string) string {
	for _, k := range keys {
		if v := row[k]; v != "" {
			return v
		}
	}
	return ""
}

func normalizeKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(k) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

func normalizeFamilyStatus(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "here":
		return models.FamilyHere
	case "origin", "origin country":
		return models.FamilyOriginCountry
	}
	return v
}
