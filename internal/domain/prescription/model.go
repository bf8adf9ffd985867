package prescription

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/clinic"
	"github.com/hms/hms/pkg/dates"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	maxMedication = 100
	maxFreeText   = 500
)

var (
	validTypes = map[string]bool{
		"Tablet": true, "Capsule": true, "Liquid": true, "Injection": true, "Topical": true, "Other": true,
	}
	validFrequencies = map[string]bool{
		"Once daily": true, "Twice daily": true, "Three times daily": true,
		"Four times daily": true, "As needed": true, "Other": true,
	}
	validStatuses = map[string]bool{
		StatusActive: true, StatusCompleted: true, StatusCancelled: true,
	}

	durationPattern = regexp.MustCompile(`(?i)(\d+)\s*(day|week|month|year)`)
)

// Prescription maps to the prescriptions table. Status is checked against
// the enum only; no transition between statuses is enforced.
type Prescription struct {
	ID           uuid.UUID  `json:"id"`
	PatientID    uuid.UUID  `json:"patient"`
	DoctorID     uuid.UUID  `json:"doctor"`
	Medication   string     `json:"medication"`
	Type         string     `json:"type"`
	Dosage       string     `json:"dosage"`
	Frequency    string     `json:"frequency"`
	Duration     string     `json:"duration"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	Instructions string     `json:"instructions"`
	Notes        string     `json:"notes"`
	IsRefill     bool       `json:"isRefill"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// EndDateFor derives an end date from a free-text duration such as
// "10 days" or "2 Weeks". ok is false when the duration has no recognizable
// amount and unit.
func EndDateFor(start time.Time, duration string) (end time.Time, ok bool) {
	m := durationPattern.FindStringSubmatch(duration)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	switch strings.ToLower(m[2]) {
	case "day":
		return start.AddDate(0, 0, n), true
	case "week":
		return start.AddDate(0, 0, 7*n), true
	case "month":
		return start.AddDate(0, n, 0), true
	default:
		return start.AddDate(n, 0, 0), true
	}
}

// Validate checks the stored fields against now, the reference for the
// start date check. Start dates earlier today are accepted.
func (p *Prescription) Validate(now time.Time) []string {
	var msgs []string
	switch {
	case p.Medication == "":
		msgs = append(msgs, "Please specify medication name")
	case utf8.RuneCountInString(p.Medication) > maxMedication:
		msgs = append(msgs, "Medication name cannot exceed 100 characters")
	}
	switch {
	case p.Type == "":
		msgs = append(msgs, "Please specify medication type")
	case !validTypes[p.Type]:
		msgs = append(msgs, "Type must be one of Tablet, Capsule, Liquid, Injection, Topical, Other")
	}
	if p.Dosage == "" {
		msgs = append(msgs, "Please specify dosage")
	}
	switch {
	case p.Frequency == "":
		msgs = append(msgs, "Please specify frequency")
	case !validFrequencies[p.Frequency]:
		msgs = append(msgs, "Frequency must be one of Once daily, Twice daily, Three times daily, Four times daily, As needed, Other")
	}
	if p.Duration == "" {
		msgs = append(msgs, "Please specify duration")
	}
	if p.StartDate.Before(dates.StartOfDay(now)) {
		msgs = append(msgs, "Start date cannot be in the past")
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		msgs = append(msgs, "End date must be after start date")
	}
	if utf8.RuneCountInString(p.Instructions) > maxFreeText {
		msgs = append(msgs, "Instructions cannot exceed 500 characters")
	}
	if utf8.RuneCountInString(p.Notes) > maxFreeText {
		msgs = append(msgs, "Notes cannot exceed 500 characters")
	}
	if !validStatuses[p.Status] {
		msgs = append(msgs, "Status must be one of active, completed, cancelled")
	}
	return msgs
}

// CreateRequest is the body of POST /api/prescriptions.
type CreateRequest struct {
	Patient      string     `json:"patient"`
	Doctor       string     `json:"doctor"`
	Medication   string     `json:"medication"`
	Type         string     `json:"type"`
	Dosage       string     `json:"dosage"`
	Frequency    string     `json:"frequency"`
	Duration     string     `json:"duration"`
	StartDate    dates.Date `json:"startDate"`
	EndDate      dates.Date `json:"endDate"`
	Instructions string     `json:"instructions"`
	Notes        string     `json:"notes"`
	IsRefill     bool       `json:"isRefill"`
	Status       string     `json:"status"`
}

// toPrescription builds the record to store. A missing start date means
// now, a missing status means active, and a missing end date is derived
// from the duration when it can be.
func (r *CreateRequest) toPrescription(now time.Time) *Prescription {
	p := &Prescription{
		Medication:   strings.TrimSpace(r.Medication),
		Type:         r.Type,
		Dosage:       strings.TrimSpace(r.Dosage),
		Frequency:    r.Frequency,
		Duration:     strings.TrimSpace(r.Duration),
		StartDate:    now,
		EndDate:      r.EndDate.Ptr(),
		Instructions: strings.TrimSpace(r.Instructions),
		Notes:        strings.TrimSpace(r.Notes),
		IsRefill:     r.IsRefill,
		Status:       StatusActive,
	}
	if !r.StartDate.IsZero() {
		p.StartDate = r.StartDate.Time
	}
	if r.Status != "" {
		p.Status = r.Status
	}
	if p.EndDate == nil && p.Duration != "" {
		if end, ok := EndDateFor(p.StartDate, p.Duration); ok {
			p.EndDate = &end
		}
	}
	return p
}

// View is a prescription as listed for a patient: the doctor is resolved to
// {id, name} and both display names are flattened alongside.
type View struct {
	*Prescription
	Doctor      *clinic.Ref `json:"doctor"`
	PatientName string      `json:"patientName"`
	DoctorName  string      `json:"doctorName"`
}
