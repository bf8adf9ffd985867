package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/clinic"
	"github.com/hms/hms/internal/platform/apperr"
)

// References resolves the patient and doctor a prescription points at.
// Misses come back as apperr reference errors.
type References interface {
	PatientRef(ctx context.Context, id uuid.UUID) (*clinic.Ref, error)
	DoctorRef(ctx context.Context, id uuid.UUID) (*clinic.Ref, error)
}

type Service struct {
	repo   Repository
	refs   References
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, refs References, logger zerolog.Logger) *Service {
	return &Service{repo: repo, refs: refs, logger: logger, now: time.Now}
}

func parseRef(raw, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Reference(notFound)
	}
	return id, nil
}

// Create validates the request, resolves both references and stores the
// prescription.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Prescription, error) {
	p := req.toPrescription(s.now())

	msgs := p.Validate(s.now())
	if req.Patient == "" {
		msgs = append([]string{"Prescription must belong to a patient"}, msgs...)
	}
	if req.Doctor == "" {
		msgs = append(msgs, "Prescription must have a prescribing doctor")
	}
	if len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}

	patientID, err := parseRef(req.Patient, "Patient not found")
	if err != nil {
		return nil, err
	}
	if _, err := s.refs.PatientRef(ctx, patientID); err != nil {
		return nil, err
	}
	doctorID, err := parseRef(req.Doctor, "Doctor not found")
	if err != nil {
		return nil, err
	}
	if _, err := s.refs.DoctorRef(ctx, doctorID); err != nil {
		return nil, err
	}
	p.PatientID, p.DoctorID = patientID, doctorID

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Internal("", err)
	}
	s.logger.Info().
		Str("prescription_id", p.ID.String()).
		Str("patient_id", p.PatientID.String()).
		Str("doctor_id", p.DoctorID.String()).
		Msg("prescription created")
	return p, nil
}

// ListForPatient returns a patient's prescriptions with names resolved. An
// unknown patient has no prescriptions; a deleted doctor renders as null.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*View, error) {
	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Internal("", err)
	}
	views := make([]*View, 0, len(items))
	if len(items) == 0 {
		return views, nil
	}

	patient, err := s.resolve(ctx, s.refs.PatientRef, patientID)
	if err != nil {
		return nil, err
	}
	doctors := make(map[uuid.UUID]*clinic.Ref)
	for _, p := range items {
		ref, seen := doctors[p.DoctorID]
		if !seen {
			if ref, err = s.resolve(ctx, s.refs.DoctorRef, p.DoctorID); err != nil {
				return nil, err
			}
			doctors[p.DoctorID] = ref
		}

		v := &View{Prescription: p, Doctor: ref}
		if patient != nil {
			v.PatientName = patient.Name
		}
		if ref != nil {
			v.DoctorName = ref.Name
		}
		views = append(views, v)
	}
	return views, nil
}

// resolve turns a reference miss into a nil ref. Other failures propagate.
func (s *Service) resolve(ctx context.Context, get func(context.Context, uuid.UUID) (*clinic.Ref, error), id uuid.UUID) (*clinic.Ref, error) {
	ref, err := get(ctx, id)
	if apperr.Is(err, apperr.KindReference) {
		return nil, nil
	}
	return ref, err
}
