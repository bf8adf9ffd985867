package clinic

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/contact"
	"github.com/hms/hms/pkg/dates"
)

const (
	AvailabilityFullTime = "Full-time"
	AvailabilityPartTime = "Part-time"
	AvailabilityOnCall   = "On-call"

	BloodGroupUnknown = "Unknown"

	AppointmentScheduled = "scheduled"

	maxPatientName = 50

	maxAppointmentTime   = 20
	maxAppointmentStatus = 50
)

var (
	validAvailability = map[string]bool{
		AvailabilityFullTime: true, AvailabilityPartTime: true, AvailabilityOnCall: true,
	}
	validGenders = map[string]bool{
		"Male": true, "Female": true, "Other": true, "Prefer not to say": true,
	}
	validBloodGroups = map[string]bool{
		"A+": true, "A-": true, "B+": true, "B-": true,
		"AB+": true, "AB-": true, "O+": true, "O-": true, BloodGroupUnknown: true,
	}
)

// Department maps to the departments table. Name is unique.
type Department struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (d *Department) Validate() []string {
	if strings.TrimSpace(d.Name) == "" {
		return []string{"Please add a department name"}
	}
	return nil
}

// Doctor maps to the doctors table. Patients is the roster: the ids of the
// patients whose doctor is this one. It is only written by the Coordinator.
type Doctor struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Specialty    string      `json:"specialty"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	DepartmentID *uuid.UUID  `json:"department"`
	Availability string      `json:"availability"`
	Patients     []uuid.UUID `json:"patients"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// HasPatient reports whether id is on the doctor's roster.
func (d *Doctor) HasPatient(id uuid.UUID) bool {
	for _, p := range d.Patients {
		if p == id {
			return true
		}
	}
	return false
}

func (d *Doctor) Validate() []string {
	var msgs []string
	if strings.TrimSpace(d.Name) == "" {
		msgs = append(msgs, "Please add a name")
	}
	if strings.TrimSpace(d.Specialty) == "" {
		msgs = append(msgs, "Please add a specialty")
	}
	if strings.TrimSpace(d.Email) == "" {
		msgs = append(msgs, "Please add an email")
	}
	if strings.TrimSpace(d.Phone) == "" {
		msgs = append(msgs, "Please add a phone number")
	}
	if !validAvailability[d.Availability] {
		msgs = append(msgs, "Availability must be one of Full-time, Part-time, On-call")
	}
	return msgs
}

// Patient maps to the patients table. Email is unique.
type Patient struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	DateOfBirth    time.Time  `json:"dateOfBirth"`
	Gender         string     `json:"gender"`
	ContactInfo    string     `json:"contactInfo"`
	Email          string     `json:"email"`
	Address        string     `json:"address"`
	BloodGroup     string     `json:"bloodGroup"`
	MedicalHistory string     `json:"medicalHistory"`
	Allergies      string     `json:"allergies"`
	DoctorID       *uuid.UUID `json:"doctor"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Validate checks every field against now, the reference for the date of
// birth check.
func (p *Patient) Validate(now time.Time) []string {
	var msgs []string
	switch {
	case p.Name == "":
		msgs = append(msgs, "Please add a name")
	case utf8.RuneCountInString(p.Name) > maxPatientName:
		msgs = append(msgs, "Name cannot exceed 50 characters")
	}
	switch {
	case p.DateOfBirth.IsZero():
		msgs = append(msgs, "Please add a date of birth")
	case p.DateOfBirth.After(now):
		msgs = append(msgs, "Date of birth cannot be in the future")
	}
	switch {
	case p.Gender == "":
		msgs = append(msgs, "Please specify gender")
	case !validGenders[p.Gender]:
		msgs = append(msgs, "Gender must be one of Male, Female, Other, Prefer not to say")
	}
	switch {
	case p.ContactInfo == "":
		msgs = append(msgs, "Please add contact information")
	case !contact.IsPhoneOrEmail(p.ContactInfo):
		msgs = append(msgs, "Please enter a valid phone number (e.g., 123-456-7890) or email")
	}
	switch {
	case p.Email == "":
		msgs = append(msgs, "Please add an email")
	case !contact.IsEmail(p.Email):
		msgs = append(msgs, "Please add a valid email")
	}
	if strings.TrimSpace(p.Address) == "" {
		msgs = append(msgs, "Please add an address")
	}
	if !validBloodGroups[p.BloodGroup] {
		msgs = append(msgs, "Blood group must be one of A+, A-, B+, B-, AB+, AB-, O+, O-, Unknown")
	}
	return msgs
}

// Appointment maps to the appointments table.
type Appointment struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient"`
	DoctorID  uuid.UUID `json:"doctor"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Appointment) Validate() []string {
	var msgs []string
	if a.Date.IsZero() {
		msgs = append(msgs, "Please add an appointment date")
	}
	switch {
	case strings.TrimSpace(a.Time) == "":
		msgs = append(msgs, "Please add an appointment time")
	case utf8.RuneCountInString(a.Time) > maxAppointmentTime:
		msgs = append(msgs, "Appointment time cannot exceed 20 characters")
	}
	if utf8.RuneCountInString(a.Status) > maxAppointmentStatus {
		msgs = append(msgs, "Appointment status cannot exceed 50 characters")
	}
	return msgs
}

// -- Request bodies --
//
// Updates follow the same rule for every entity: a field is applied only
// when it is present and non-empty, so an empty value never clears a stored
// one.

type DepartmentInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in *DepartmentInput) apply(d *Department) {
	setString(&d.Name, strings.TrimSpace(in.Name))
	setString(&d.Description, in.Description)
}

type DoctorInput struct {
	Name         string `json:"name"`
	Specialty    string `json:"specialty"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Department   string `json:"department"`
	Availability string `json:"availability"`
}

// apply copies the non-empty scalar fields. The department reference is
// resolved by the service.
func (in *DoctorInput) apply(d *Doctor) {
	setString(&d.Name, strings.TrimSpace(in.Name))
	setString(&d.Specialty, strings.TrimSpace(in.Specialty))
	setString(&d.Email, contact.NormalizeEmail(in.Email))
	setString(&d.Phone, strings.TrimSpace(in.Phone))
	setString(&d.Availability, in.Availability)
}

type PatientInput struct {
	Name           string     `json:"name"`
	DateOfBirth    dates.Date `json:"dateOfBirth"`
	Gender         string     `json:"gender"`
	ContactInfo    string     `json:"contactInfo"`
	Email          string     `json:"email"`
	Address        string     `json:"address"`
	BloodGroup     string     `json:"bloodGroup"`
	MedicalHistory string     `json:"medicalHistory"`
	Allergies      string     `json:"allergies"`
	Doctor         string     `json:"doctor"`
}

// apply copies the non-empty fields except the doctor reference, which the
// service resolves.
func (in *PatientInput) apply(p *Patient) {
	setString(&p.Name, strings.TrimSpace(in.Name))
	if !in.DateOfBirth.IsZero() {
		p.DateOfBirth = in.DateOfBirth.Time
	}
	setString(&p.Gender, in.Gender)
	setString(&p.ContactInfo, strings.TrimSpace(in.ContactInfo))
	setString(&p.Email, contact.NormalizeEmail(in.Email))
	setString(&p.Address, strings.TrimSpace(in.Address))
	setString(&p.BloodGroup, in.BloodGroup)
	setString(&p.MedicalHistory, in.MedicalHistory)
	setString(&p.Allergies, in.Allergies)
}

type AppointmentInput struct {
	Patient string     `json:"patient"`
	Doctor  string     `json:"doctor"`
	Date    dates.Date `json:"date"`
	Time    string     `json:"time"`
	Status  string     `json:"status"`
}

func (in *AppointmentInput) apply(a *Appointment) {
	if !in.Date.IsZero() {
		a.Date = in.Date.Time
	}
	setString(&a.Time, strings.TrimSpace(in.Time))
	setString(&a.Status, strings.TrimSpace(in.Status))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// -- Read views --

// Ref is a referenced entity resolved to its display name.
type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// DoctorView replaces the department id with {id, name}. A department that
// no longer exists renders as null.
type DoctorView struct {
	*Doctor
	Department *Ref `json:"department"`
}

// PatientView replaces the doctor id with {id, name}.
type PatientView struct {
	*Patient
	Doctor *Ref `json:"doctor"`
}

// PatientDetail is a patient with its appointments joined at read time.
type PatientDetail struct {
	PatientView
	Appointments []*Appointment `json:"appointments"`
}

// AppointmentView replaces both references with {id, name}.
type AppointmentView struct {
	*Appointment
	Patient *Ref `json:"patient"`
	Doctor  *Ref `json:"doctor"`
}

// DeleteResult is the body returned by every delete endpoint.
type DeleteResult struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}
