// Package analytics derives chart and report series from the member
// collection. Every function is a pure projection: input slices are never
// modified and results depend only on the members and the engine clock.
package analytics

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"memberhub/internal/lib/logger"
	"memberhub/internal/models"
	dto "memberhub/pkg/models"
)

const (
	DashboardCities      = 8
	DashboardProfessions = 5
	BirthdayWindowDays   = 30
	RecentMembersLimit   = 5

	Unknown = "Unknown"
)

// AgeBuckets are the histogram ranges in display order.
var AgeBuckets = []string{"0-17", "18-25", "26-35", "36-45", "46-55", "55+"}

type Engine struct {
	log *slog.Logger
	now func() time.Time
}

func New(log *slog.Logger) *Engine {
	return NewWithClock(log, time.Now)
}

func NewWithClock(log *slog.Logger, now func() time.Time) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{log: log.With(slog.String("component", "analytics")), now: now}
}

func (e *Engine) Now() time.Time {
	return e.now()
}

// AgeDistribution buckets members by now.Year() - birth year. Month and day
// are ignored, so a member whose birthday is still ahead this year is counted
// one year older.
func (e *Engine) AgeDistribution(members []models.Member) []dto.Count {
	counts := make([]int, len(AgeBuckets))
	year := e.now().Year()
	for _, m := range members {
		dob, ok := ParseDate(m.DOB)
		if !ok {
			e.skip("age", m.ID, m.DOB)
			continue
		}
		counts[ageBucket(year-dob.Year())]++
	}

	out := make([]dto.Count, len(AgeBuckets))
	for i, label := range AgeBuckets {
		out[i] = dto.Count{Label: label, Count: counts[i]}
	}
	return out
}

func ageBucket(age int) int {
	switch {
	case age < 18:
		return 0
	case age <= 25:
		return 1
	case age <= 35:
		return 2
	case age <= 45:
		return 3
	case age <= 55:
		return 4
	default:
		return 5
	}
}

// City is the trimmed second comma-separated segment of an address.
func City(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return Unknown
	}
	if city := strings.TrimSpace(parts[1]); city != "" {
		return city
	}
	return Unknown
}

// GeographicDistribution counts members per city, most frequent first.
// A limit of 0 returns every city.
func (e *Engine) GeographicDistribution(members []models.Member, limit int) []dto.Count {
	counts := map[string]int{}
	for _, m := range members {
		counts[City(m.LocalAddress)]++
	}
	return truncate(byCountDesc(counts), limit)
}

// JoinTrend counts joins per YYYY-MM, oldest month first.
func (e *Engine) JoinTrend(members []models.Member) []dto.Count {
	counts := map[string]int{}
	for _, m := range members {
		joined, ok := ParseDate(m.ChurchJoiningDate)
		if !ok {
			e.skip("join trend", m.ID, m.ChurchJoiningDate)
			continue
		}
		counts[joined.Format("2006-01")]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]dto.Count, 0, len(keys))
	for _, k := range keys {
		out = append(out, dto.Count{Label: k, Count: counts[k]})
	}
	return out
}

// UpcomingBirthdays lists members whose next birthday falls within
// [today, today+windowDays], soonest first.
func (e *Engine) UpcomingBirthdays(members []models.Member, windowDays int) []dto.Birthday {
	today := dateOf(e.now())
	end := today.AddDate(0, 0, windowDays)

	type entry struct {
		b    dto.Birthday
		when time.Time
	}
	var found []entry
	for _, m := range members {
		dob, ok := ParseDate(m.DOB)
		if !ok {
			e.skip("birthdays", m.ID, m.DOB)
			continue
		}
		next := birthdayIn(today.Year(), dob.Month(), dob.Day())
		if next.Before(today) {
			next = birthdayIn(today.Year()+1, dob.Month(), dob.Day())
		}
		if next.After(end) {
			continue
		}
		found = append(found, entry{
			b: dto.Birthday{
				ID:        m.ID.String(),
				Name:      m.FullName(),
				Date:      next.Format(time.DateOnly),
				DaysUntil: int(next.Sub(today).Hours() / 24),
			},
			when: next,
		})
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].when.Before(found[j].when) })

	out := make([]dto.Birthday, len(found))
	for i, f := range found {
		out[i] = f.b
	}
	return out
}

// FamilyStatus tallies the fixed statuses (always present) plus any other
// value seen.
func (e *Engine) FamilyStatus(members []models.Member) []dto.Count {
	counts := map[string]int{}
	for _, m := range members {
		counts[orUnknown(m.FamilyStatus)]++
	}
	return withFixed(models.FamilyStatuses, counts)
}

// PhoneTypes counts every phone record, not distinct members.
func (e *Engine) PhoneTypes(members []models.Member) []dto.Count {
	counts := map[string]int{}
	for _, m := range members {
		for _, p := range m.Phones {
			counts[orUnknown(p.PhoneType)]++
		}
	}
	return withFixed(models.PhoneTypes, counts)
}

// Professions ranks professions by member count. A limit of 0 returns all.
func (e *Engine) Professions(members []models.Member, limit int) []dto.Count {
	counts := map[string]int{}
	for _, m := range members {
		if p := m.Profession(); p != "" {
			counts[p]++
		}
	}
	return truncate(byCountDesc(counts), limit)
}

func (e *Engine) Stats(members []models.Member) dto.Stats {
	now := e.now()
	professions := map[string]bool{}
	newThisMonth := 0
	for _, m := range members {
		if p := m.Profession(); p != "" {
			professions[p] = true
		}
		if joined, ok := ParseDate(m.ChurchJoiningDate); ok &&
			joined.Year() == now.Year() && joined.Month() == now.Month() {
			newThisMonth++
		}
	}
	return dto.Stats{
		TotalMembers:  len(members),
		ActiveMembers: len(members),
		NewThisMonth:  newThisMonth,
		Departments:   len(professions),
	}
}

// RecentMembers returns the latest joiners. Members without a readable
// joining date sort last.
func (e *Engine) RecentMembers(members []models.Member, limit int) []dto.RecentMember {
	idx := make([]int, len(members))
	joined := make([]time.Time, len(members))
	for i, m := range members {
		idx[i] = i
		joined[i], _ = ParseDate(m.ChurchJoiningDate)
	}
	sort.SliceStable(idx, func(a, b int) bool { return joined[idx[a]].After(joined[idx[b]]) })

	if limit > 0 && len(idx) > limit {
		idx = idx[:limit]
	}
	out := make([]dto.RecentMember, 0, len(idx))
	for _, i := range idx {
		m := members[i]
		out = append(out, dto.RecentMember{
			ID:       m.ID.String(),
			Name:     m.FullName(),
			Email:    m.Email,
			JoinDate: m.ChurchJoiningDate,
			City:     City(m.LocalAddress),
		})
	}
	return out
}

// Analyses runs every aggregation. Limits apply to cities and professions;
// 0 means unlimited.
func (e *Engine) Analyses(members []models.Member, cityLimit, professionLimit int) dto.Analyses {
	return dto.Analyses{
		AgeGroups:              e.AgeDistribution(members),
		GeographicDistribution: e.GeographicDistribution(members, cityLimit),
		JoinTrends:             e.JoinTrend(members),
		FamilyStatus:           e.FamilyStatus(members),
		PhoneTypes:             e.PhoneTypes(members),
		ProfessionCounts:       e.Professions(members, professionLimit),
		UpcomingBirthdays:      e.UpcomingBirthdays(members, BirthdayWindowDays),
	}
}

func (e *Engine) Dashboard(members []models.Member) dto.Dashboard {
	return dto.Dashboard{
		Stats:         e.Stats(members),
		Analyses:      e.Analyses(members, DashboardCities, DashboardProfessions),
		RecentMembers: e.RecentMembers(members, RecentMembersLimit),
	}
}

// Full is the unlimited bundle used for reports.
func (e *Engine) Full(members []models.Member) dto.Analyses {
	return e.Analyses(members, 0, 0)
}

func (e *Engine) skip(series string, id models.ID, value string) {
	e.log.Debug("skipping unparseable date",
		slog.String("series", series),
		slog.String("member_id", id.String()),
		slog.String("value", value),
	)
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return Unknown
	}
	return s
}

func byCountDesc(counts map[string]int) []dto.Count {
	out := make([]dto.Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, dto.Count{Label: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func truncate(counts []dto.Count, limit int) []dto.Count {
	if limit > 0 && len(counts) > limit {
		return counts[:limit]
	}
	return counts
}

func withFixed(fixed []string, counts map[string]int) []dto.Count {
	out := make([]dto.Count, 0, len(fixed)+len(counts))
	known := make(map[string]bool, len(fixed))
	for _, k := range fixed {
		known[k] = true
		out = append(out, dto.Count{Label: k, Count: counts[k]})
	}
	var extra []string
	for k := range counts {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, dto.Count{Label: k, Count: counts[k]})
	}
	return out
}
