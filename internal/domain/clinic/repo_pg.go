package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func stamp(id *uuid.UUID, created, updated *time.Time) {
	*id = uuid.New()
	now := time.Now().UTC()
	*created, *updated = now, now
}

// execOne runs a single-row write and reports db.ErrNotFound when no row
// matched.
func execOne(ctx context.Context, conn queryable, op, sql string, args ...interface{}) error {
	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return db.Classify(op, err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(op, pgx.ErrNoRows)
	}
	return nil
}

func execCount(ctx context.Context, conn queryable, op, sql string, args ...interface{}) (int64, error) {
	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, db.Classify(op, err)
	}
	return tag.RowsAffected(), nil
}

func collect[T any](rows pgx.Rows, op string, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	items := []*T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, db.Classify(op, err)
		}
		items = append(items, item)
	}
	return items, db.Classify(op, rows.Err())
}

// =========== Department Repository ===========

type departmentRepoPG struct{ conn queryable }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{conn: pool}
}

const deptCols = `id, name, description, created_at, updated_at`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *departmentRepoPG) Create(ctx context.Context, d *Department) error {
	stamp(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	_, err := r.conn.Exec(ctx, `
		INSERT INTO departments (id, name, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.Name, d.Description, d.CreatedAt, d.UpdatedAt)
	return db.Classify("insert department", err)
}

func (r *departmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, err := scanDepartment(r.conn.QueryRow(ctx, `SELECT `+deptCols+` FROM departments WHERE id = $1`, id))
	return d, db.Classify("get department", err)
}

func (r *departmentRepoPG) List(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+deptCols+` FROM departments ORDER BY name`)
	if err != nil {
		return nil, db.Classify("list departments", err)
	}
	return collect(rows, "list departments", scanDepartment)
}

func (r *departmentRepoPG) Update(ctx context.Context, d *Department) error {
	d.UpdatedAt = time.Now().UTC()
	return execOne(ctx, r.conn, "update department",
		`UPDATE departments SET name=$2, description=$3, updated_at=$4 WHERE id = $1`,
		d.ID, d.Name, d.Description, d.UpdatedAt)
}

func (r *departmentRepoPG) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return execCount(ctx, r.conn, "delete department", `DELETE FROM departments WHERE id = $1`, id)
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ conn queryable }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{conn: pool}
}

const doctorCols = `id, name, specialty, email, phone, department_id, availability, patients, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.Email, &d.Phone,
		&d.DepartmentID, &d.Availability, &d.Patients, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if d.Patients == nil {
		d.Patients = []uuid.UUID{}
	}
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	stamp(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	d.Patients = []uuid.UUID{}
	_, err := r.conn.Exec(ctx, `
		INSERT INTO doctors (id, name, specialty, email, phone, department_id, availability, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		d.ID, d.Name, d.Specialty, d.Email, d.Phone, d.DepartmentID, d.Availability, d.CreatedAt, d.UpdatedAt)
	return db.Classify("insert doctor", err)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
	return d, db.Classify("get doctor", err)
}

func (r *doctorRepoPG) List(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+doctorCols+` FROM doctors ORDER BY created_at`)
	if err != nil {
		return nil, db.Classify("list doctors", err)
	}
	return collect(rows, "list doctors", scanDoctor)
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	d.UpdatedAt = time.Now().UTC()
	return execOne(ctx, r.conn, "update doctor", `
		UPDATE doctors SET name=$2, specialty=$3, email=$4, phone=$5, department_id=$6,
			availability=$7, updated_at=$8
		WHERE id = $1`,
		d.ID, d.Name, d.Specialty, d.Email, d.Phone, d.DepartmentID, d.Availability, d.UpdatedAt)
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return execCount(ctx, r.conn, "delete doctor", `DELETE FROM doctors WHERE id = $1`, id)
}

// AddPatient appends in a single statement so concurrent adds of the same id
// cannot duplicate it. An unknown doctor is not an error.
func (r *doctorRepoPG) AddPatient(ctx context.Context, doctorID, patientID uuid.UUID) error {
	_, err := execCount(ctx, r.conn, "add patient to roster", `
		UPDATE doctors SET patients = array_append(patients, $2::uuid), updated_at = NOW()
		WHERE id = $1 AND NOT ($2::uuid = ANY(patients))`,
		doctorID, patientID)
	return err
}

func (r *doctorRepoPG) RemovePatient(ctx context.Context, doctorID, patientID uuid.UUID) error {
	_, err := execCount(ctx, r.conn, "remove patient from roster", `
		UPDATE doctors SET patients = array_remove(patients, $2::uuid), updated_at = NOW()
		WHERE id = $1`,
		doctorID, patientID)
	return err
}

func (r *doctorRepoPG) ClearDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error) {
	return execCount(ctx, r.conn, "clear doctor department",
		`UPDATE doctors SET department_id = NULL, updated_at = NOW() WHERE department_id = $1`,
		departmentID)
}

// =========== Patient Repository ===========

type patientRepoPG struct{ conn queryable }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{conn: pool}
}

const patientCols = `id, name, date_of_birth, gender, contact_info, email, address,
	blood_group, medical_history, allergies, doctor_id, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.DateOfBirth, &p.Gender, &p.ContactInfo, &p.Email, &p.Address,
		&p.BloodGroup, &p.MedicalHistory, &p.Allergies, &p.DoctorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	_, err := r.conn.Exec(ctx, `
		INSERT INTO patients (id, name, date_of_birth, gender, contact_info, email, address,
			blood_group, medical_history, allergies, doctor_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.Name, p.DateOfBirth, p.Gender, p.ContactInfo, p.Email, p.Address,
		p.BloodGroup, p.MedicalHistory, p.Allergies, p.DoctorID, p.CreatedAt, p.UpdatedAt)
	return db.Classify("insert patient", err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	return p, db.Classify("get patient", err)
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at`)
	if err != nil {
		return nil, db.Classify("list patients", err)
	}
	return collect(rows, "list patients", scanPatient)
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	return execOne(ctx, r.conn, "update patient", `
		UPDATE patients SET name=$2, date_of_birth=$3, gender=$4, contact_info=$5, email=$6,
			address=$7, blood_group=$8, medical_history=$9, allergies=$10, doctor_id=$11, updated_at=$12
		WHERE id = $1`,
		p.ID, p.Name, p.DateOfBirth, p.Gender, p.ContactInfo, p.Email,
		p.Address, p.BloodGroup, p.MedicalHistory, p.Allergies, p.DoctorID, p.UpdatedAt)
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return execCount(ctx, r.conn, "delete patient", `DELETE FROM patients WHERE id = $1`, id)
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ conn queryable }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{conn: pool}
}

const apptCols = `id, patient_id, doctor_id, date, time, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	_, err := r.conn.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, date, time, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Status, a.CreatedAt, a.UpdatedAt)
	return db.Classify("insert appointment", err)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn.QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	return a, db.Classify("get appointment", err)
}

func (r *appointmentRepoPG) List(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+apptCols+` FROM appointments ORDER BY date, time`)
	if err != nil {
		return nil, db.Classify("list appointments", err)
	}
	return collect(rows, "list appointments", scanAppointment)
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE patient_id = $1 ORDER BY date, time`, patientID)
	if err != nil {
		return nil, db.Classify("list patient appointments", err)
	}
	return collect(rows, "list patient appointments", scanAppointment)
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	return execOne(ctx, r.conn, "update appointment", `
		UPDATE appointments SET patient_id=$2, doctor_id=$3, date=$4, time=$5, status=$6, updated_at=$7
		WHERE id = $1`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Status, a.UpdatedAt)
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return execCount(ctx, r.conn, "delete appointment", `DELETE FROM appointments WHERE id = $1`, id)
}

func (r *appointmentRepoPG) DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int64, error) {
	return execCount(ctx, r.conn, "delete patient appointments",
		`DELETE FROM appointments WHERE patient_id = $1`, patientID)
}
