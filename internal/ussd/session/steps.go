package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ebirth/internal/registration/models"
	"ebirth/internal/ussd/validate"
)

// Menu and prompt texts. USSD renders plain text, so these are the exact
// bytes the subscriber sees after the CON/END tag.
const (
	rootMenuPrompt = "Welcome to the Ghana e-Birth Service:\n1. Register a New Birth\n2. Verify Registration\n3. Help"
	roleMenuPrompt = "You are registering as:\n1. Parent/Guardian\n2. Health Worker"

	fatherMenuPrompt = "Add Father's Details?\n1. Yes\n2. No"
	verifyPrompt     = "Please enter the complete UBRN to verify (e.g., GHA-01-027-25210-0001-5)."
	helpMenuPrompt   = "HELP MENU:\n1. About\n2. Cost\n3. Requirements\n4. Contact"

	regionMenu = "1. G. Accra\n2. Ashanti\n3. Western\n4. Central\n5. Eastern\n6. Volta\n7. Northern\n8. U. East\n9. U. West\n10. Bono\n11. Bono E\n12. Ahafo\n13. W. North\n14. Oti\n15. N. East\n16. Savannah"
)

// Terminal messages.
const (
	msgInvalidOption       = "Invalid option. Please restart the process."
	msgInvalidRole         = "Invalid role selection. Please try again."
	msgInvalidFatherChoice = "Invalid choice for father's details. Please start again."
	msgInvalidConfirm      = "Invalid choice. Please start again."
	msgCancelled           = "Registration cancelled. Thank you."
	msgFinalizeFailed      = "We could not complete the registration. Please try again shortly."
	msgServiceUnavailable  = "Service temporarily unavailable. Please try again later."
	msgRestartSuffix       = " Please dial the code to start again."
)

var helpTexts = map[string]string{
	"1": "This is the official Govt. of Ghana service to register births using your mobile phone for free.",
	"2": "Registering via USSD is FREE. Fees for the printed certificate may apply at the Registry office.",
	"3": "You need: Baby's name & DOB, Mother's full name & Ghana Card number. Father's details are optional.",
	"4": "For help, please call the Births & Deaths Registry toll-free number: 0800-123-456 (Mon-Fri, 8am-5pm).",
}

// role is the registrant branch selected at the role menu.
type role int

const (
	roleParent role = iota + 1
	roleHealthWorker
)

// form accumulates the validated fields as the walk replays the keystroke
// history. All values have passed their step's validator by construction.
type form struct {
	role       role
	hwID       string
	region     int
	district   string
	dob        time.Time
	dobDisplay string
	sex        models.Sex
	firstName  string
	surname    string
	motherName string
	motherNIN  string
	phone      string
	fatherName string
	fatherNIN  string
	hasFather  bool
}

// fieldStep is one position in a sub-tree's table: the prompt shown before
// input, the validator for the input, and how an accepted value lands on the
// form.
type fieldStep struct {
	name     string // metric label
	prompt   string
	validate func(raw string, now time.Time) error
	apply    func(f *form, raw string)
}

// ignoreNow adapts time-independent validators to the table signature.
func ignoreNow(v func(string) error) func(string, time.Time) error {
	return func(raw string, _ time.Time) error { return v(raw) }
}

func applyRegion(f *form, raw string) {
	f.region, _ = strconv.Atoi(raw)
}

func applyDOB(f *form, raw string) {
	day, _ := strconv.Atoi(raw[0:2])
	month, _ := strconv.Atoi(raw[2:4])
	year, _ := strconv.Atoi(raw[4:8])
	f.dob = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	f.dobDisplay = raw[0:2] + "/" + raw[2:4] + "/" + raw[4:8]
}

func applySex(f *form, raw string) {
	if raw == "1" {
		f.sex = models.SexMale
	} else {
		f.sex = models.SexFemale
	}
}

// parentSteps is the field order for the Parent/Guardian branch. Position in
// the table, not code, defines the flow; adding a field is a data change.
var parentSteps = []fieldStep{
	{"region", "Select the region of birth:\n" + regionMenu, ignoreNow(validate.Region), applyRegion},
	{"district", "Enter your 3-digit District Code (e.g., 027 for Accra Metro)", ignoreNow(validate.District), func(f *form, raw string) { f.district = raw }},
	{"dob", "Enter baby's Date of Birth (DDMMYYYY)", validate.DateOfBirth, applyDOB},
	{"sex", "Select baby's sex:\n1. Male\n2. Female", ignoreNow(validate.Sex), applySex},
	{"first_name", "Enter baby's First Name(s)", ignoreNow(validate.Name), func(f *form, raw string) { f.firstName = raw }},
	{"surname", "Enter baby's Surname", ignoreNow(validate.Name), func(f *form, raw string) { f.surname = raw }},
	{"mother_name", "Enter Mother's Full Name (as on Ghana Card)", ignoreNow(validate.Name), func(f *form, raw string) { f.motherName = raw }},
	{"mother_nin", "Enter Mother's Ghana Card Number (e.g. GHA-123456789-0)", ignoreNow(validate.NationalID), func(f *form, raw string) { f.motherNIN = strings.ToUpper(raw) }},
}

// healthWorkerSteps is the field order for the Health Worker branch. It
// collects the worker's ID up front and the parent's phone number at the end
// so the confirmation SMS can reach the family.
var healthWorkerSteps = []fieldStep{
	{"hw_id", "Enter your 6-digit Health Worker ID.", ignoreNow(validate.HealthWorkerID), func(f *form, raw string) { f.hwID = raw }},
	{"region", "Select the region of birth:\n" + regionMenu, ignoreNow(validate.Region), applyRegion},
	{"district", "Enter the 3-digit District Code", ignoreNow(validate.District), func(f *form, raw string) { f.district = raw }},
	{"dob", "Enter baby's Date of Birth (DDMMYYYY)", validate.DateOfBirth, applyDOB},
	{"sex", "Select baby's sex:\n1. Male\n2. Female", ignoreNow(validate.Sex), applySex},
	{"first_name", "Enter baby's First Name(s)", ignoreNow(validate.Name), func(f *form, raw string) { f.firstName = raw }},
	{"surname", "Enter baby's Surname", ignoreNow(validate.Name), func(f *form, raw string) { f.surname = raw }},
	{"mother_name", "Enter Mother's Full Name", ignoreNow(validate.Name), func(f *form, raw string) { f.motherName = raw }},
	{"mother_nin", "Enter Mother's Ghana Card Number", ignoreNow(validate.NationalID), func(f *form, raw string) { f.motherNIN = strings.ToUpper(raw) }},
	{"phone", "Enter Parent's 10-digit phone number for SMS", ignoreNow(validate.Phone), func(f *form, raw string) { f.phone = raw }},
}

// fatherSteps is the optional sub-flow entered when the registrant chooses to
// add the father's details. Shared by both branches.
var fatherSteps = []fieldStep{
	{"father_name", "Enter Father's Full Name", ignoreNow(validate.Name), func(f *form, raw string) { f.fatherName = raw }},
	{"father_nin", "Enter Father's Ghana Card Number (e.g. GHA-123456789-0)", ignoreNow(validate.NationalID), func(f *form, raw string) { f.fatherNIN = strings.ToUpper(raw) }},
}

func stepsFor(r role) []fieldStep {
	if r == roleHealthWorker {
		return healthWorkerSteps
	}
	return parentSteps
}

// summary renders the confirmation text for the collected fields, matching
// the branch the registrant walked.
func summary(f *form) string {
	switch {
	case f.role == roleHealthWorker && f.hasFather:
		return fmt.Sprintf("Confirm for HW %s:\nName: %s %s\nDOB: %s\nFather: %s\nSMS to: %s\n1. Confirm\n2. Cancel",
			f.hwID, f.firstName, f.surname, f.dobDisplay, f.fatherName, f.phone)
	case f.role == roleHealthWorker:
		return fmt.Sprintf("Confirm for HW %s:\nName: %s %s\nDOB: %s\nMother: %s\nSMS to: %s\n1. Confirm\n2. Cancel",
			f.hwID, f.firstName, f.surname, f.dobDisplay, f.motherName, f.phone)
	case f.hasFather:
		return fmt.Sprintf("Please Confirm:\nName: %s %s\nDOB: %s\nSex: %s\nMother: %s\nFather: %s\n\n1. Confirm & Submit\n2. Cancel",
			f.firstName, f.surname, f.dobDisplay, f.sex, f.motherName, f.fatherName)
	default:
		return fmt.Sprintf("Please Confirm:\nDistrict: %s\nName: %s %s\nDOB: %s\nSex: %s\nMother: %s\n\n1. Confirm & Submit\n2. Cancel",
			f.district, f.firstName, f.surname, f.dobDisplay, f.sex, f.motherName)
	}
}

// submission builds the finalizer input from the completed form.
func (f *form) submission(recipient, sessionKey string) models.Submission {
	sub := models.Submission{
		ChildFirstName: f.firstName,
		ChildSurname:   f.surname,
		DateOfBirth:    f.dob,
		Sex:            f.sex,
		RegionCode:     f.region,
		DistrictCode:   f.district,
		MotherName:     f.motherName,
		MotherNIN:      f.motherNIN,
		FatherName:     f.fatherName,
		FatherNIN:      f.fatherNIN,
		Recipient:      recipient,
		SessionKey:     sessionKey,
	}
	if f.role == roleHealthWorker {
		sub.RegisteredBy = "HW-" + f.hwID
		sub.Recipient = f.phone
	}
	return sub
}
