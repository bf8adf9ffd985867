package prescription

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

type repoPG struct {
	conn queryable
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{conn: pool}
}

const cols = `id, patient_id, doctor_id, medication, type, dosage, frequency, duration,
	start_date, end_date, instructions, notes, is_refill, status, created_at, updated_at`

func scan(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.Medication, &p.Type, &p.Dosage,
		&p.Frequency, &p.Duration, &p.StartDate, &p.EndDate, &p.Instructions, &p.Notes,
		&p.IsRefill, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	_, err := r.conn.Exec(ctx, `
		INSERT INTO prescriptions (id, patient_id, doctor_id, medication, type, dosage, frequency,
			duration, start_date, end_date, instructions, notes, is_refill, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		p.ID, p.PatientID, p.DoctorID, p.Medication, p.Type, p.Dosage, p.Frequency,
		p.Duration, p.StartDate, p.EndDate, p.Instructions, p.Notes, p.IsRefill, p.Status,
		p.CreatedAt, p.UpdatedAt)
	return db.Classify("insert prescription", err)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+cols+` FROM prescriptions
		WHERE patient_id = $1 ORDER BY start_date DESC`, patientID)
	if err != nil {
		return nil, db.Classify("list prescriptions", err)
	}
	defer rows.Close()

	out := []*Prescription{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, db.Classify("scan prescription", err)
		}
		out = append(out, p)
	}
	return out, db.Classify("list prescriptions", rows.Err())
}
