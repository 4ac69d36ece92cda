package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	PhonePrimary       = "Primary"
	PhoneWhatsApp      = "WhatsApp"
	PhoneEmergency     = "Emergency"
	PhoneOriginCountry = "Origin Country"

	FamilyHere          = "Here"
	FamilyOriginCountry = "Origin Country"
)

// PhoneTypes lists the fixed phone categories in display order.
var PhoneTypes = []string{PhonePrimary, PhoneWhatsApp, PhoneEmergency, PhoneOriginCountry}

// FamilyStatuses lists the fixed family status categories in display order.
var FamilyStatuses = []string{FamilyHere, FamilyOriginCountry}

// ID is a member identifier. The webhook sends either numbers or strings,
// both are kept in their textual form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("member id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Profile holds the scalar fields of a member record.
type Profile struct {
	Title             string `gorm:"type:varchar(20)" json:"title,omitempty"`
	FirstName         string `gorm:"type:varchar(255)" json:"first_name"`
	MiddleName        string `gorm:"type:varchar(255)" json:"middle_name,omitempty"`
	LastName          string `gorm:"type:varchar(255)" json:"last_name"`
	FamilyName        string `gorm:"type:varchar(255)" json:"family_name,omitempty"`
	DOB               string `gorm:"column:dob;type:varchar(32)" json:"dob"`
	Email             string `gorm:"type:varchar(255)" json:"email,omitempty"`
	BaptismDate       string `gorm:"type:varchar(32)" json:"baptism_date,omitempty"`
	BaptismChurch     string `gorm:"type:varchar(255)" json:"baptism_church,omitempty"`
	BaptismCountry    string `gorm:"type:varchar(100)" json:"baptism_country,omitempty"`
	FamilyStatus      string `gorm:"type:varchar(50)" json:"family_status"`
	Carsel            string `gorm:"type:varchar(100)" json:"carsel,omitempty"`
	LocalAddress      string `gorm:"type:text" json:"local_address"`
	ChurchJoiningDate string `gorm:"type:varchar(32)" json:"church_joining_date"`
	ProfilePic        string `gorm:"type:text" json:"profile_pic,omitempty"`
	FamilyPhoto       string `gorm:"type:text" json:"family_photo,omitempty"`
}

// Member is the root entity of the local collection.
type Member struct {
	ID ID `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Profile

	Phones        []Phone              `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE;" json:"phones"`
	Employment    *Employment          `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE;" json:"employment"`
	Relationships []FamilyRelationship `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE;" json:"relationships"`

	Position  int64     `gorm:"index" json:"-"` // collection order
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Member) TableName() string {
	return "members"
}

// FullName joins first and last name.
func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// PhoneNumber returns the first number of the given type.
func (m Member) PhoneNumber(phoneType string) string {
	for _, p := range m.Phones {
		if p.PhoneType == phoneType {
			return p.PhoneNumber
		}
	}
	return ""
}

// Profession returns the employment profession, empty without employment.
func (m Member) Profession() string {
	if m.Employment == nil {
		return ""
	}
	return strings.TrimSpace(m.Employment.Profession)
}

// Normalize replaces nil collections with empty ones so JSON renders [] not null.
func (m *Member) Normalize() {
	if m.Phones == nil {
		m.Phones = []Phone{}
	}
	if m.Relationships == nil {
		m.Relationships = []FamilyRelationship{}
	}
}

// Phone is owned by a member; several phones of the same type are allowed.
type Phone struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	MemberID    ID     `gorm:"index;type:varchar(64)" json:"-"`
	PhoneType   string `gorm:"type:varchar(50)" json:"phone_type"`
	PhoneNumber string `gorm:"type:varchar(50)" json:"phone_number"`
	IsActive    bool   `json:"is_active"`
}

func (Phone) TableName() string {
	return "member_phones"
}

type Employment struct {
	ID                  uint   `gorm:"primaryKey" json:"-"`
	MemberID            ID     `gorm:"uniqueIndex;type:varchar(64)" json:"-"`
	IsEmployed          bool   `json:"is_employed"`
	CompanyName         string `gorm:"type:varchar(255)" json:"company_name,omitempty"`
	Designation         string `gorm:"type:varchar(255)" json:"designation,omitempty"`
	Profession          string `gorm:"type:varchar(255)" json:"profession,omitempty"`
	EmploymentStartDate string `gorm:"type:varchar(32)" json:"employment_start_date,omitempty"`
	IsCurrent           bool   `json:"is_current"`
}

func (Employment) TableName() string {
	return "member_employment"
}

// PartialMember is the inline record of a relative that does not exist yet.
type PartialMember struct {
	Title             string `json:"title,omitempty"`
	FirstName         string `json:"first_name"`
	MiddleName        string `json:"middle_name,omitempty"`
	LastName          string `json:"last_name"`
	DOB               string `json:"dob,omitempty"`
	Email             string `json:"email,omitempty"`
	FamilyStatus      string `json:"family_status,omitempty"`
	ChurchJoiningDate string `json:"church_joining_date,omitempty"`
}

// FamilyRelationship is a snapshot taken when the owning member is created.
type FamilyRelationship struct {
	ID               uint           `gorm:"primaryKey" json:"-"`
	MemberID         ID             `gorm:"index;type:varchar(64)" json:"-"`
	RelationshipType string         `gorm:"type:varchar(20)" json:"relationship_type"`
	RelatedMemberID  ID             `gorm:"type:varchar(64)" json:"related_member_id,omitempty"`
	RelatedMember    *PartialMember `gorm:"serializer:json;type:text" json:"related_member,omitempty"`
}

func (FamilyRelationship) TableName() string {
	return "member_relationships"
}

// DetailedMember is the FETCH_MEMBER_DETAILS shape: phones come as a
// type -> number map and relationships under "family".
type DetailedMember struct {
	Member
	PhoneNumbers map[string]string    `json:"phone_numbers,omitempty"`
	Family       []FamilyRelationship `json:"family,omitempty"`
}

// Flatten folds the detailed shape into a plain Member.
func (d DetailedMember) Flatten() Member {
	m := d.Member
	if len(d.PhoneNumbers) > 0 {
		m.Phones = make([]Phone, 0, len(d.PhoneNumbers))
		seen := make(map[string]bool, len(d.PhoneNumbers))
		for _, t := range PhoneTypes {
			if number, ok := d.PhoneNumbers[t]; ok && number != "" {
				m.Phones = append(m.Phones, Phone{PhoneType: t, PhoneNumber: number, IsActive: true})
			}
			seen[t] = true
		}
		var extra []string
		for t := range d.PhoneNumbers {
			if !seen[t] {
				extra = append(extra, t)
			}
		}
		sort.Strings(extra)
		for _, t := range extra {
			if number := d.PhoneNumbers[t]; number != "" {
				m.Phones = append(m.Phones, Phone{PhoneType: t, PhoneNumber: number, IsActive: true})
			}
		}
	}
	if len(d.Family) > 0 {
		m.Relationships = d.Family
	}
	m.Normalize()
	return m
}

// SyncLog records the outcome of one remote webhook call.
type SyncLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Action       string    `gorm:"type:varchar(50);index" json:"action"`
	Path         string    `gorm:"type:varchar(30)" json:"path"`
	Success      bool      `json:"success"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}
