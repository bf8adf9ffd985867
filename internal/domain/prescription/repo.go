package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	// ListByPatient returns the patient's prescriptions, newest start first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error)
}
