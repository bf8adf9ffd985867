package clinic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/db"
)

// FailureRecorder counts compensation steps that failed after the primary
// write succeeded.
type FailureRecorder interface {
	RecordCompensationFailure(operation string)
}

type nopFailures struct{}

func (nopFailures) RecordCompensationFailure(string) {}

const (
	msgDepartmentNotFound  = "Department not found"
	msgDoctorNotFound      = "Doctor not found"
	msgPatientNotFound     = "Patient not found"
	msgAppointmentNotFound = "Appointment not found"

	msgDepartmentExists = "Department already exists"
	msgDoctorExists     = "Doctor already exists"
	msgPatientExists    = "Patient with this email already exists"

	msgDeleteDepartmentFailed = "Failed to delete department"
	msgDeletePatientFailed    = "Failed to delete patient"
)

type Service struct {
	departments  DepartmentRepository
	doctors      DoctorRepository
	patients     PatientRepository
	appointments AppointmentRepository
	coord        *Coordinator
	failures     FailureRecorder
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(
	departments DepartmentRepository,
	doctors DoctorRepository,
	patients PatientRepository,
	appointments AppointmentRepository,
	failures FailureRecorder,
	logger zerolog.Logger,
) *Service {
	if failures == nil {
		failures = nopFailures{}
	}
	return &Service{
		departments:  departments,
		doctors:      doctors,
		patients:     patients,
		appointments: appointments,
		coord:        NewCoordinator(doctors, appointments),
		failures:     failures,
		logger:       logger,
		now:          time.Now,
	}
}

// compensationFailed logs and counts a failed follow-up step. The primary
// write already happened, so the client still sees success.
func (s *Service) compensationFailed(op string, id uuid.UUID, err error) {
	s.failures.RecordCompensationFailure(op)
	s.logger.Warn().Err(err).Str("operation", op).Str("id", id.String()).Msg("compensation failed")
}

// parseRef parses an optional reference from a request body. An empty value
// means "not supplied"; a malformed one cannot name an existing row.
func parseRef(raw, notFound string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Reference(notFound)
	}
	return &id, nil
}

// lookup maps a repository read to the service error taxonomy. kind decides
// whether a miss is a 404 (target of the request) or a 400 (a reference).
func lookup[T any](ctx context.Context, get func(context.Context, uuid.UUID) (*T, error), id uuid.UUID, kind apperr.Kind, msg string) (*T, error) {
	v, err := get(ctx, id)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, db.ErrNotFound) {
		return nil, &apperr.Error{Kind: kind, Message: msg}
	}
	return nil, apperr.Internal("", err)
}

func writeErr(err error, duplicate, notFound string) error {
	switch {
	case errors.Is(err, db.ErrDuplicate):
		return apperr.Conflict(duplicate)
	case errors.Is(err, db.ErrNotFound):
		return apperr.NotFound(notFound)
	}
	return apperr.Internal("", err)
}

// =========== Departments ===========

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperr.Internal("", err)
	}
	return depts, nil
}

func (s *Service) CreateDepartment(ctx context.Context, in *DepartmentInput) (*Department, error) {
	d := &Department{}
	in.apply(d)
	if msgs := d.Validate(); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	if err := s.departments.Create(ctx, d); err != nil {
		return nil, writeErr(err, msgDepartmentExists, msgDepartmentNotFound)
	}
	return d, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, id uuid.UUID, in *DepartmentInput) (*Department, error) {
	d, err := lookup(ctx, s.departments.GetByID, id, apperr.KindNotFound, msgDepartmentNotFound)
	if err != nil {
		return nil, err
	}
	in.apply(d)
	if err := s.departments.Update(ctx, d); err != nil {
		return nil, writeErr(err, msgDepartmentExists, msgDepartmentNotFound)
	}
	return d, nil
}

// DeleteDepartment detaches every doctor from the department and then
// deletes it. A missing department touches no doctor.
func (s *Service) DeleteDepartment(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	if _, err := lookup(ctx, s.departments.GetByID, id, apperr.KindNotFound, msgDepartmentNotFound); err != nil {
		return nil, err
	}

	detached, err := s.coord.DepartmentRemoving(ctx, id)
	if err != nil {
		return nil, apperr.Internal(msgDeleteDepartmentFailed, err)
	}

	n, err := s.departments.Delete(ctx, id)
	if err != nil {
		return nil, apperr.Internal(msgDeleteDepartmentFailed, err)
	}
	if n == 0 {
		return nil, apperr.NotFound(msgDepartmentNotFound)
	}
	s.logger.Info().Str("department_id", id.String()).Int64("doctors_detached", detached).Msg("department deleted")
	return &DeleteResult{Message: "Department deleted successfully", DeletedCount: n}, nil
}

// =========== Doctors ===========

// ListDoctors returns every doctor with its department resolved to
// {id, name}.
func (s *Service) ListDoctors(ctx context.Context) ([]*DoctorView, error) {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, apperr.Internal("", err)
	}
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperr.Internal("", err)
	}
	names := make(map[uuid.UUID]string, len(depts))
	for _, d := range depts {
		names[d.ID] = d.Name
	}

	views := make([]*DoctorView, 0, len(doctors))
	for _, d := range doctors {
		views = append(views, &DoctorView{Doctor: d, Department: refTo(names, d.DepartmentID)})
	}
	return views, nil
}

func (s *Service) resolveDepartment(ctx context.Context, raw string) (*uuid.UUID, error) {
	id, err := parseRef(raw, msgDepartmentNotFound)
	if err != nil || id == nil {
		return nil, err
	}
	if _, err := lookup(ctx, s.departments.GetByID, *id, apperr.KindReference, msgDepartmentNotFound); err != nil {
		return nil, err
	}
	return id, nil
}

// CreateDoctor requires an existing department. The roster starts empty.
func (s *Service) CreateDoctor(ctx context.Context, in *DoctorInput) (*Doctor, error) {
	d := &Doctor{Availability: AvailabilityFullTime}
	in.apply(d)
	if msgs := d.Validate(); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}

	dept, err := s.resolveDepartment(ctx, in.Department)
	if err != nil {
		return nil, err
	}
	if dept == nil {
		return nil, apperr.Reference(msgDepartmentNotFound)
	}
	d.DepartmentID = dept

	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, writeErr(err, msgDoctorExists, msgDoctorNotFound)
	}
	return d, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, in *DoctorInput) (*Doctor, error) {
	d, err := lookup(ctx, s.doctors.GetByID, id, apperr.KindNotFound, msgDoctorNotFound)
	if err != nil {
		return nil, err
	}
	dept, err := s.resolveDepartment(ctx, in.Department)
	if err != nil {
		return nil, err
	}

	in.apply(d)
	if dept != nil {
		d.DepartmentID = dept
	}
	if msgs := d.Validate(); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, writeErr(err, msgDoctorExists, msgDoctorNotFound)
	}
	return d, nil
}

// DeleteDoctor removes only the doctor. Patients and appointments that
// point at it keep the dangling reference and render it as null.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	if _, err := lookup(ctx, s.doctors.GetByID, id, apperr.KindNotFound, msgDoctorNotFound); err != nil {
		return nil, err
	}
	n, err := s.doctors.Delete(ctx, id)
	if err != nil {
		return nil, apperr.Internal("Failed to delete doctor", err)
	}
	if n == 0 {
		return nil, apperr.NotFound(msgDoctorNotFound)
	}
	return &DeleteResult{Message: "Doctor removed successfully", DeletedCount: n}, nil
}

// DoctorRef resolves a doctor to {id, name}. A miss is a reference error.
func (s *Service) DoctorRef(ctx context.Context, id uuid.UUID) (*Ref, error) {
	d, err := lookup(ctx, s.doctors.GetByID, id, apperr.KindReference, msgDoctorNotFound)
	if err != nil {
		return nil, err
	}
	return &Ref{ID: d.ID, Name: d.Name}, nil
}

// DoctorNames maps every doctor id to its name.
func (s *Service) DoctorNames(ctx context.Context) (map[uuid.UUID]string, error) {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, apperr.Internal("", err)
	}
	names := make(map[uuid.UUID]string, len(doctors))
	for _, d := range doctors {
		names[d.ID] = d.Name
	}
	return names, nil
}

// =========== Patients ===========

func (s *Service) ListPatients(ctx context.Context) ([]*PatientView, error) {
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, apperr.Internal("", err)
	}
	doctors, err := s.DoctorNames(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]*PatientView, 0, len(patients))
	for _, p := range patients {
		views = append(views, &PatientView{Patient: p, Doctor: refTo(doctors, p.DoctorID)})
	}
	return views, nil
}

// GetPatient returns one patient with its doctor resolved and its
// appointments attached.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*PatientDetail, error) {
	p, err := lookup(ctx, s.patients.GetByID, id, apperr.KindNotFound, msgPatientNotFound)
	if err != nil {
		return nil, err
	}
	appts, err := s.appointments.ListByPatient(ctx, id)
	if err != nil {
		return nil, apperr.Internal("", err)
	}

	var doctor *Ref
	if p.DoctorID != nil {
		d, err := s.doctors.GetByID(ctx, *p.DoctorID)
		switch {
		case err == nil:
			doctor = &Ref{ID: d.ID, Name: d.Name}
		case !errors.Is(err, db.ErrNotFound):
			return nil, apperr.Internal("", err)
		}
	}
	return &PatientDetail{PatientView: PatientView{Patient: p, Doctor: doctor}, Appointments: appts}, nil
}

func (s *Service) resolveDoctor(ctx context.Context, raw string) (*uuid.UUID, error) {
	id, err := parseRef(raw, msgDoctorNotFound)
	if err != nil || id == nil {
		return nil, err
	}
	if _, err := s.DoctorRef(ctx, *id); err != nil {
		return nil, err
	}
	return id, nil
}

// CreatePatient stores a patient and puts it on its doctor's roster.
func (s *Service) CreatePatient(ctx context.Context, in *PatientInput) (*Patient, error) {
	p := &Patient{BloodGroup: BloodGroupUnknown}
	in.apply(p)
	if msgs := p.Validate(s.now()); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}

	doctor, err := s.resolveDoctor(ctx, in.Doctor)
	if err != nil {
		return nil, err
	}
	p.DoctorID = doctor

	if err := s.patients.Create(ctx, p); err != nil {
		return nil, writeErr(err, msgPatientExists, msgPatientNotFound)
	}
	if err := s.coord.PatientCreated(ctx, p); err != nil {
		s.compensationFailed("patient_created", p.ID, err)
	}
	return p, nil
}

// UpdatePatient applies the non-empty fields. When the doctor changes the
// patient moves from the old roster to the new one.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, in *PatientInput) (*Patient, error) {
	p, err := lookup(ctx, s.patients.GetByID, id, apperr.KindNotFound, msgPatientNotFound)
	if err != nil {
		return nil, err
	}
	doctor, err := s.resolveDoctor(ctx, in.Doctor)
	if err != nil {
		return nil, err
	}

	previous := p.DoctorID
	in.apply(p)
	if doctor != nil {
		p.DoctorID = doctor
	}
	if msgs := p.Validate(s.now()); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, writeErr(err, msgPatientExists, msgPatientNotFound)
	}
	if err := s.coord.PatientReassigned(ctx, p.ID, previous, p.DoctorID); err != nil {
		s.compensationFailed("patient_reassigned", p.ID, err)
	}
	return p, nil
}

// DeletePatient removes the patient, its roster entry and its appointments.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	p, err := lookup(ctx, s.patients.GetByID, id, apperr.KindNotFound, msgPatientNotFound)
	if err != nil {
		return nil, err
	}
	if err := s.coord.PatientRemoved(ctx, p); err != nil {
		s.compensationFailed("patient_removed", p.ID, err)
	}
	n, err := s.patients.Delete(ctx, id)
	if err != nil {
		return nil, apperr.Internal(msgDeletePatientFailed, err)
	}
	if n == 0 {
		return nil, apperr.NotFound(msgPatientNotFound)
	}
	return &DeleteResult{Message: "Patient deleted successfully", DeletedCount: n}, nil
}

// PatientRef resolves a patient to {id, name}. A miss is a reference error.
func (s *Service) PatientRef(ctx context.Context, id uuid.UUID) (*Ref, error) {
	p, err := lookup(ctx, s.patients.GetByID, id, apperr.KindReference, msgPatientNotFound)
	if err != nil {
		return nil, err
	}
	return &Ref{ID: p.ID, Name: p.Name}, nil
}

// =========== Appointments ===========

func (s *Service) ListAppointments(ctx context.Context) ([]*AppointmentView, error) {
	appts, err := s.appointments.List(ctx)
	if err != nil {
		return nil, apperr.Internal("", err)
	}
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, apperr.Internal("", err)
	}
	doctors, err := s.DoctorNames(ctx)
	if err != nil {
		return nil, err
	}
	patientNames := make(map[uuid.UUID]string, len(patients))
	for _, p := range patients {
		patientNames[p.ID] = p.Name
	}

	views := make([]*AppointmentView, 0, len(appts))
	for _, a := range appts {
		views = append(views, &AppointmentView{
			Appointment: a,
			Patient:     refTo(patientNames, &a.PatientID),
			Doctor:      refTo(doctors, &a.DoctorID),
		})
	}
	return views, nil
}

// resolveParties checks the patient and doctor references of an appointment
// body. Empty values come back as nil.
func (s *Service) resolveParties(ctx context.Context, in *AppointmentInput) (patient, doctor *uuid.UUID, err error) {
	patient, err = parseRef(in.Patient, msgPatientNotFound)
	if err != nil {
		return nil, nil, err
	}
	if patient != nil {
		if _, err := s.PatientRef(ctx, *patient); err != nil {
			return nil, nil, err
		}
	}
	doctor, err = s.resolveDoctor(ctx, in.Doctor)
	if err != nil {
		return nil, nil, err
	}
	return patient, doctor, nil
}

func (s *Service) CreateAppointment(ctx context.Context, in *AppointmentInput) (*Appointment, error) {
	patient, doctor, err := s.resolveParties(ctx, in)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, apperr.Reference(msgPatientNotFound)
	}
	if doctor == nil {
		return nil, apperr.Reference(msgDoctorNotFound)
	}

	a := &Appointment{PatientID: *patient, DoctorID: *doctor, Status: AppointmentScheduled}
	in.apply(a)
	if msgs := a.Validate(); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, apperr.Internal("", err)
	}
	return a, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, in *AppointmentInput) (*Appointment, error) {
	a, err := lookup(ctx, s.appointments.GetByID, id, apperr.KindNotFound, msgAppointmentNotFound)
	if err != nil {
		return nil, err
	}
	patient, doctor, err := s.resolveParties(ctx, in)
	if err != nil {
		return nil, err
	}

	if patient != nil {
		a.PatientID = *patient
	}
	if doctor != nil {
		a.DoctorID = *doctor
	}
	in.apply(a)
	if msgs := a.Validate(); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, writeErr(err, "", msgAppointmentNotFound)
	}
	return a, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	if _, err := lookup(ctx, s.appointments.GetByID, id, apperr.KindNotFound, msgAppointmentNotFound); err != nil {
		return nil, err
	}
	n, err := s.appointments.Delete(ctx, id)
	if err != nil {
		return nil, apperr.Internal("Failed to delete appointment", err)
	}
	if n == 0 {
		return nil, apperr.NotFound(msgAppointmentNotFound)
	}
	return &DeleteResult{Message: "Appointment deleted successfully", DeletedCount: n}, nil
}

// refTo resolves id against names. Unknown ids render as nil.
func refTo(names map[uuid.UUID]string, id *uuid.UUID) *Ref {
	if id == nil {
		return nil
	}
	name, ok := names[*id]
	if !ok {
		return nil
	}
	return &Ref{ID: *id, Name: name}
}
