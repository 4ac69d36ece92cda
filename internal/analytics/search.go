package analytics

import (
	"strings"

	"memberhub/internal/models"
)

// Search filters members by a case-insensitive substring of name, email,
// profession or city. An empty query returns the input unchanged.
func Search(members []models.Member, query string) []models.Member {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return members
	}

	out := []models.Member{}
	for _, m := range members {
		haystack := []string{
			m.FullName(), m.MiddleName, m.FamilyName,
			m.Email, m.Profession(), City(m.LocalAddress),
		}
		for _, h := range haystack {
			if strings.Contains(strings.ToLower(h), q) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
