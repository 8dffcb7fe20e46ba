package models

import "time"

// Sex is the registered sex of the child.
type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

// StatusProvisional is the status every record carries at creation. Later
// transitions belong to the registry back office, not this gateway.
const StatusProvisional = "Provisionally Registered"

// Registration is the canonical record persisted for a finalized birth
// registration. Immutable from the gateway's point of view once written.
type Registration struct {
	UBRN           string
	ChildFirstName string
	ChildSurname   string
	DateOfBirth    time.Time
	Sex            Sex
	RegionCode     int
	DistrictCode   string
	MotherName     string
	MotherNIN      string
	FatherName     string
	FatherNIN      string
	RegisteredBy   string // "HW-123456" when submitted by a health worker
	NotifyPhone    string
	Status         string
	SessionKey     string
	CreatedAt      time.Time
}

// ChildName returns the display name of the child.
func (r *Registration) ChildName() string {
	return r.ChildFirstName + " " + r.ChildSurname
}

// DOBDisplay renders the date of birth the way subscribers entered it.
func (r *Registration) DOBDisplay() string {
	return r.DateOfBirth.Format("02/01/2006")
}

// Submission is a fully validated field set handed from the session engine to
// the finalizer, plus the delivery address for the confirmation SMS and the
// gateway session key used for idempotent retries.
type Submission struct {
	ChildFirstName string
	ChildSurname   string
	DateOfBirth    time.Time
	Sex            Sex
	RegionCode     int
	DistrictCode   string
	MotherName     string
	MotherNIN      string
	FatherName     string
	FatherNIN      string
	RegisteredBy   string
	Recipient      string
	SessionKey     string
}

// Record assembles the canonical registration for this submission.
func (s Submission) Record(ubrn string, now time.Time) *Registration {
	return &Registration{
		UBRN:           ubrn,
		ChildFirstName: s.ChildFirstName,
		ChildSurname:   s.ChildSurname,
		DateOfBirth:    s.DateOfBirth,
		Sex:            s.Sex,
		RegionCode:     s.RegionCode,
		DistrictCode:   s.DistrictCode,
		MotherName:     s.MotherName,
		MotherNIN:      s.MotherNIN,
		FatherName:     s.FatherName,
		FatherNIN:      s.FatherNIN,
		RegisteredBy:   s.RegisteredBy,
		NotifyPhone:    s.Recipient,
		Status:         StatusProvisional,
		SessionKey:     s.SessionKey,
		CreatedAt:      now,
	}
}
