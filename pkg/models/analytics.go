package models

// Count is one category of a tally or histogram.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Birthday is an entry of the upcoming-birthdays window.
type Birthday struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"` // YYYY-MM-DD
	DaysUntil int    `json:"days_until"`
}

// Stats are the headline totals. Field names follow the admin UI.
type Stats struct {
	TotalMembers  int `json:"totalMembers"`
	ActiveMembers int `json:"activeMembers"`
	NewThisMonth  int `json:"newThisMonth"`
	Departments   int `json:"departments"` // distinct professions
}

type RecentMember struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	JoinDate string `json:"join_date"`
	City     string `json:"city"`
}

// Analyses holds every aggregation of the member collection.
type Analyses struct {
	AgeGroups              []Count    `json:"ageGroups"`
	GeographicDistribution []Count    `json:"geographicDistribution"`
	JoinTrends             []Count    `json:"joinTrends"`
	FamilyStatus           []Count    `json:"familyStatus"`
	PhoneTypes             []Count    `json:"phoneTypes"`
	ProfessionCounts       []Count    `json:"professionCounts"`
	UpcomingBirthdays      []Birthday `json:"upcomingBirthdays"`
}

// Dashboard is the analytics page payload: stats, dashboard-limited
// analyses and the most recently joined members.
type Dashboard struct {
	Stats         Stats          `json:"stats"`
	Analyses      Analyses       `json:"analyses"`
	RecentMembers []RecentMember `json:"recentMembers"`
}

// Summary is written as summary.json at the root of a report archive.
type Summary struct {
	GeneratedAt string   `json:"generatedAt"`
	Totals      Stats    `json:"totals"`
	Analyses    Analyses `json:"analyses"`
}
