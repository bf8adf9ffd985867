package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Coordinator keeps the denormalized sides of the clinic relationships in
// step with the writes that change them: doctor rosters follow
// Patient.doctor, appointments go away with their patient, and doctors lose
// a department that is being deleted.
//
// Steps are independent single-row statements. Every step is attempted even
// when an earlier one fails; failures come back joined.
type Coordinator struct {
	rosters      RosterStore
	appointments AppointmentCascade
}

func NewCoordinator(rosters RosterStore, appointments AppointmentCascade) *Coordinator {
	return &Coordinator{rosters: rosters, appointments: appointments}
}

// PatientCreated adds a new patient to its doctor's roster.
func (c *Coordinator) PatientCreated(ctx context.Context, p *Patient) error {
	if p.DoctorID == nil {
		return nil
	}
	if err := c.rosters.AddPatient(ctx, *p.DoctorID, p.ID); err != nil {
		return fmt.Errorf("add patient %s to doctor %s: %w", p.ID, *p.DoctorID, err)
	}
	return nil
}

// PatientReassigned moves a patient from one roster to another. Either side
// may be nil. Nothing happens when the doctor did not change.
func (c *Coordinator) PatientReassigned(ctx context.Context, patientID uuid.UUID, from, to *uuid.UUID) error {
	if sameRef(from, to) {
		return nil
	}
	var errs []error
	if to != nil {
		if err := c.rosters.AddPatient(ctx, *to, patientID); err != nil {
			errs = append(errs, fmt.Errorf("add patient %s to doctor %s: %w", patientID, *to, err))
		}
	}
	if from != nil {
		if err := c.rosters.RemovePatient(ctx, *from, patientID); err != nil {
			errs = append(errs, fmt.Errorf("remove patient %s from doctor %s: %w", patientID, *from, err))
		}
	}
	return errors.Join(errs...)
}

// PatientRemoved takes a deleted patient off its doctor's roster and deletes
// its appointments.
func (c *Coordinator) PatientRemoved(ctx context.Context, p *Patient) error {
	var errs []error
	if p.DoctorID != nil {
		if err := c.rosters.RemovePatient(ctx, *p.DoctorID, p.ID); err != nil {
			errs = append(errs, fmt.Errorf("remove patient %s from doctor %s: %w", p.ID, *p.DoctorID, err))
		}
	}
	if _, err := c.appointments.DeleteByPatient(ctx, p.ID); err != nil {
		errs = append(errs, fmt.Errorf("delete appointments of patient %s: %w", p.ID, err))
	}
	return errors.Join(errs...)
}

// DepartmentRemoving clears the department of every doctor in it and
// returns how many doctors were detached.
func (c *Coordinator) DepartmentRemoving(ctx context.Context, departmentID uuid.UUID) (int64, error) {
	n, err := c.rosters.ClearDepartment(ctx, departmentID)
	if err != nil {
		return 0, fmt.Errorf("detach doctors from department %s: %w", departmentID, err)
	}
	return n, nil
}

func sameRef(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
