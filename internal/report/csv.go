package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"memberhub/internal/models"
	dto "memberhub/pkg/models"
)

var memberColumns = []string{
	"id", "title", "first_name", "middle_name", "last_name", "family_name", "dob", "email",
	"family_status", "carsel", "local_address", "church_joining_date",
	"primary_phone", "whatsapp_phone", "emergency_phone", "origin_phone", "profession",
}

// writeCSV renders a header row followed by the rows. Fields holding a comma,
// quote or line break are quoted with inner quotes doubled.
func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// MembersCSV is the full member listing, one row per member.
func MembersCSV(members []models.Member) ([]byte, error) {
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{
			m.ID.String(), m.Title, m.FirstName, m.MiddleName, m.LastName, m.FamilyName, m.DOB, m.Email,
			m.FamilyStatus, m.Carsel, m.LocalAddress, m.ChurchJoiningDate,
			m.PhoneNumber(models.PhonePrimary),
			m.PhoneNumber(models.PhoneWhatsApp),
			m.PhoneNumber(models.PhoneEmergency),
			m.PhoneNumber(models.PhoneOriginCountry),
			m.Profession(),
		})
	}
	return writeCSV(memberColumns, rows)
}

// CountsCSV renders a two-column tally.
func CountsCSV(labelColumn string, counts []dto.Count) ([]byte, error) {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Label, strconv.Itoa(c.Count)})
	}
	return writeCSV([]string{labelColumn, "count"}, rows)
}

type table struct {
	file   string
	column string
	counts func(dto.Analyses) []dto.Count
}

var analysisTables = []table{
	{"age_distribution.csv", "range", func(a dto.Analyses) []dto.Count { return a.AgeGroups }},
	{"geographic_distribution.csv", "city", func(a dto.Analyses) []dto.Count { return a.GeographicDistribution }},
	{"join_trends.csv", "month", func(a dto.Analyses) []dto.Count { return a.JoinTrends }},
	{"family_status.csv", "family_status", func(a dto.Analyses) []dto.Count { return a.FamilyStatus }},
	{"phone_types.csv", "phone_type", func(a dto.Analyses) []dto.Count { return a.PhoneTypes }},
	{"professions.csv", "profession", func(a dto.Analyses) []dto.Count { return a.ProfessionCounts }},
}
