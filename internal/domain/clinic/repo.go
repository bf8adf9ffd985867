package clinic

import (
	"context"

	"github.com/google/uuid"
)

// Lookups that match nothing return db.ErrNotFound; unique index hits return
// db.ErrDuplicate. Update returns db.ErrNotFound when the row is gone.

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// RosterStore maintains the doctor side of the doctor/patient relationship.
// AddPatient is a set-add: adding an id already on the roster is a no-op.
type RosterStore interface {
	AddPatient(ctx context.Context, doctorID, patientID uuid.UUID) error
	RemovePatient(ctx context.Context, doctorID, patientID uuid.UUID) error
	ClearDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error)
}

// DoctorRepository never writes the roster through Create or Update; that is
// left to the RosterStore methods.
type DoctorRepository interface {
	RosterStore
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// AppointmentCascade removes the appointments that belong to a patient.
type AppointmentCascade interface {
	DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int64, error)
}

type AppointmentRepository interface {
	AppointmentCascade
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}
