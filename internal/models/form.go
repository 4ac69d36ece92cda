package models

// Form is the flat input shape shared by the member form and the import
// mapper. It is converted both into the webhook payload and the local record.
type Form struct {
	Title             string `json:"title"`
	FirstName         string `json:"first_name"`
	MiddleName        string `json:"middle_name"`
	LastName          string `json:"last_name"`
	FamilyName        string `json:"family_name"`
	DOB               string `json:"dob"`
	Email             string `json:"email"`
	BaptismDate       string `json:"baptism_date"`
	BaptismChurch     string `json:"baptism_church"`
	BaptismCountry    string `json:"baptism_country"`
	FamilyStatus      string `json:"family_status"`
	Carsel            string `json:"carsel"`
	LocalAddress      string `json:"local_address"`
	ChurchJoiningDate string `json:"church_joining_date"`
	ProfilePic        string `json:"profile_pic"`
	FamilyPhoto       string `json:"family_photo"`

	PrimaryPhone   string `json:"primary_phone"`
	WhatsAppPhone  string `json:"whatsapp_phone"`
	EmergencyPhone string `json:"emergency_phone"`
	OriginPhone    string `json:"origin_phone"`

	IsEmployed          bool   `json:"is_employed"`
	CompanyName         string `json:"company_name"`
	Designation         string `json:"designation"`
	Profession          string `json:"profession"`
	EmploymentStartDate string `json:"employment_start_date"`

	IsMarried bool            `json:"is_married"`
	Spouse    *PartialMember  `json:"spouse,omitempty"`
	Children  []PartialMember `json:"children,omitempty"`
}

// Payload is the body of CREATE_MEMBER / UPDATE_MEMBER / BULK_CREATE_MEMBERS.
type Payload struct {
	ID            ID                   `json:"id,omitempty"`
	Member        Profile              `json:"member"`
	Phones        []Phone              `json:"phones"`
	Employment    *Employment          `json:"employment,omitempty"`
	Relationships []FamilyRelationship `json:"relationships,omitempty"`
}

func (f Form) Profile() Profile {
	return Profile{
		Title:             f.Title,
		FirstName:         f.FirstName,
		MiddleName:        f.MiddleName,
		LastName:          f.LastName,
		FamilyName:        f.FamilyName,
		DOB:               f.DOB,
		Email:             f.Email,
		BaptismDate:       f.BaptismDate,
		BaptismChurch:     f.BaptismChurch,
		BaptismCountry:    f.BaptismCountry,
		FamilyStatus:      f.FamilyStatus,
		Carsel:            f.Carsel,
		LocalAddress:      f.LocalAddress,
		ChurchJoiningDate: f.ChurchJoiningDate,
		ProfilePic:        f.ProfilePic,
		FamilyPhoto:       f.FamilyPhoto,
	}
}

// Phones returns one active phone per filled-in number, in fixed type order.
func (f Form) Phones() []Phone {
	numbers := []struct {
		phoneType string
		number    string
	}{
		{PhonePrimary, f.PrimaryPhone},
		{PhoneWhatsApp, f.WhatsAppPhone},
		{PhoneEmergency, f.EmergencyPhone},
		{PhoneOriginCountry, f.OriginPhone},
	}

	phones := []Phone{}
	for _, n := range numbers {
		if n.number != "" {
			phones = append(phones, Phone{PhoneType: n.phoneType, PhoneNumber: n.number, IsActive: true})
		}
	}
	return phones
}

func (f Form) Employment() *Employment {
	if !f.IsEmployed {
		return nil
	}
	return &Employment{
		IsEmployed:          true,
		CompanyName:         f.CompanyName,
		Designation:         f.Designation,
		Profession:          f.Profession,
		EmploymentStartDate: f.EmploymentStartDate,
		IsCurrent:           true,
	}
}

// Relationships builds the spouse and children snapshots. Relatives inherit
// the family status and joining date of the member being created.
func (f Form) Relationships() []FamilyRelationship {
	rels := []FamilyRelationship{}
	if f.IsMarried && f.Spouse != nil {
		spouse := *f.Spouse
		spouse.FamilyStatus = f.FamilyStatus
		spouse.ChurchJoiningDate = f.ChurchJoiningDate
		rels = append(rels, FamilyRelationship{RelationshipType: "Spouse", RelatedMember: &spouse})
	}
	for _, c := range f.Children {
		child := c
		child.MiddleName = ""
		child.FamilyStatus = f.FamilyStatus
		child.ChurchJoiningDate = f.ChurchJoiningDate
		rels = append(rels, FamilyRelationship{RelationshipType: "Child", RelatedMember: &child})
	}
	return rels
}

func (f Form) Payload() Payload {
	return Payload{
		Member:        f.Profile(),
		Phones:        f.Phones(),
		Employment:    f.Employment(),
		Relationships: f.Relationships(),
	}
}

// UpdatePayload is the UPDATE_MEMBER body. Relationships are a snapshot taken
// at creation and are never resent.
func (f Form) UpdatePayload(id ID) Payload {
	return Payload{
		ID:         id,
		Member:     f.Profile(),
		Phones:     f.Phones(),
		Employment: f.Employment(),
	}
}

// Member builds the local record for the given id.
func (f Form) Member(id ID) Member {
	return Member{
		ID:            id,
		Profile:       f.Profile(),
		Phones:        f.Phones(),
		Employment:    f.Employment(),
		Relationships: f.Relationships(),
	}
}
