package clinic

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/db"
)

var errInjected = errors.New("injected failure")

// -- Mock Repositories --

type mockDepartmentRepo struct {
	rows map[uuid.UUID]*Department
}

func (m *mockDepartmentRepo) Create(_ context.Context, d *Department) error {
	for _, existing := range m.rows {
		if existing.Name == d.Name {
			return db.ErrDuplicate
		}
	}
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	m.rows[d.ID] = &cp
	return nil
}

func (m *mockDepartmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Department, error) {
	d, ok := m.rows[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDepartmentRepo) List(_ context.Context) ([]*Department, error) {
	out := []*Department{}
	for _, d := range m.rows {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockDepartmentRepo) Update(_ context.Context, d *Department) error {
	if _, ok := m.rows[d.ID]; !ok {
		return db.ErrNotFound
	}
	for id, existing := range m.rows {
		if id != d.ID && existing.Name == d.Name {
			return db.ErrDuplicate
		}
	}
	cp := *d
	m.rows[d.ID] = &cp
	return nil
}

func (m *mockDepartmentRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

type mockDoctorRepo struct {
	rows map[uuid.UUID]*Doctor

	failAdd    bool
	failRemove bool
	failClear  bool
	clearCalls int
}

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	for _, existing := range m.rows {
		if existing.Email == d.Email {
			return db.ErrDuplicate
		}
	}
	d.ID = uuid.New()
	d.Patients = []uuid.UUID{}
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	m.rows[d.ID] = &cp
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.rows[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *d
	cp.Patients = append([]uuid.UUID{}, d.Patients...)
	return &cp, nil
}

func (m *mockDoctorRepo) List(_ context.Context) ([]*Doctor, error) {
	out := []*Doctor{}
	for id := range m.rows {
		d, _ := m.GetByID(context.Background(), id)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update keeps the stored roster like the SQL statement does.
func (m *mockDoctorRepo) Update(_ context.Context, d *Doctor) error {
	existing, ok := m.rows[d.ID]
	if !ok {
		return db.ErrNotFound
	}
	for id, other := range m.rows {
		if id != d.ID && other.Email == d.Email {
			return db.ErrDuplicate
		}
	}
	cp := *d
	cp.Patients = existing.Patients
	m.rows[d.ID] = &cp
	return nil
}

func (m *mockDoctorRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *mockDoctorRepo) AddPatient(_ context.Context, doctorID, patientID uuid.UUID) error {
	if m.failAdd {
		return errInjected
	}
	d, ok := m.rows[doctorID]
	if !ok || d.HasPatient(patientID) {
		return nil
	}
	d.Patients = append(d.Patients, patientID)
	return nil
}

func (m *mockDoctorRepo) RemovePatient(_ context.Context, doctorID, patientID uuid.UUID) error {
	if m.failRemove {
		return errInjected
	}
	d, ok := m.rows[doctorID]
	if !ok {
		return nil
	}
	kept := d.Patients[:0]
	for _, p := range d.Patients {
		if p != patientID {
			kept = append(kept, p)
		}
	}
	d.Patients = kept
	return nil
}

func (m *mockDoctorRepo) ClearDepartment(_ context.Context, departmentID uuid.UUID) (int64, error) {
	m.clearCalls++
	if m.failClear {
		return 0, errInjected
	}
	var n int64
	for _, d := range m.rows {
		if d.DepartmentID != nil && *d.DepartmentID == departmentID {
			d.DepartmentID = nil
			n++
		}
	}
	return n, nil
}

type mockPatientRepo struct {
	rows map[uuid.UUID]*Patient
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	for _, existing := range m.rows {
		if existing.Email == p.Email {
			return db.ErrDuplicate
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) List(_ context.Context) ([]*Patient, error) {
	out := []*Patient{}
	for _, p := range m.rows {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.rows[p.ID]; !ok {
		return db.ErrNotFound
	}
	for id, other := range m.rows {
		if id != p.ID && other.Email == p.Email {
			return db.ErrDuplicate
		}
	}
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

type mockAppointmentRepo struct {
	rows map[uuid.UUID]*Appointment

	failCascade bool
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) List(_ context.Context) ([]*Appointment, error) {
	out := []*Appointment{}
	for _, a := range m.rows {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	out := []*Appointment{}
	for _, a := range m.rows {
		if a.PatientID == patientID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.rows[a.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *mockAppointmentRepo) DeleteByPatient(_ context.Context, patientID uuid.UUID) (int64, error) {
	if m.failCascade {
		return 0, errInjected
	}
	var n int64
	for id, a := range m.rows {
		if a.PatientID == patientID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

type countingFailures struct {
	ops map[string]int
}

func (f *countingFailures) RecordCompensationFailure(op string) {
	f.ops[op]++
}

// -- Fixture --

type fixture struct {
	svc          *Service
	departments  *mockDepartmentRepo
	doctors      *mockDoctorRepo
	patients     *mockPatientRepo
	appointments *mockAppointmentRepo
	failures     *countingFailures
}
