package testrequest

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const trCols = `id, appointment_id, doctor_id, patient_id, test_name, description,
	instructions, notes, status, followup_appointment_id, has_results, results_count,
	created_at, updated_at`

func (r *repoPG) scanRequest(row pgx.Row) (*TestRequest, error) {
	var tr TestRequest
	err := row.Scan(&tr.ID, &tr.AppointmentID, &tr.DoctorID.UUID, &tr.PatientID,
		&tr.TestName, &tr.Description, &tr.Instructions, &tr.Notes,
		&tr.Status, &tr.FollowupAppointmentID, &tr.HasResults, &tr.ResultsCount,
		&tr.CreatedAt, &tr.UpdatedAt)
	return &tr, err
}

func (r *repoPG) Create(ctx context.Context, tr *TestRequest) error {
	tr.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO test_request (id, appointment_id, doctor_id, patient_id, test_name,
			description, instructions, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		tr.ID, tr.AppointmentID, tr.DoctorID.UUID, tr.PatientID, tr.TestName,
		tr.Description, tr.Instructions, tr.Notes, tr.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*TestRequest, error) {
	return r.scanRequest(r.pool.QueryRow(ctx, `SELECT `+trCols+` FROM test_request WHERE id = $1`, id))
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*TestRequest, int, error) {
	return r.list(ctx, `doctor_id`, doctorID, limit, offset)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TestRequest, int, error) {
	return r.list(ctx, `patient_id`, patientID, limit, offset)
}

func (r *repoPG) list(ctx context.Context, col string, id uuid.UUID, limit, offset int) ([]*TestRequest, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM test_request WHERE `+col+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+trCols+` FROM test_request
		WHERE `+col+` = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*TestRequest
	for rows.Next() {
		tr, err := r.scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, tr)
	}
	return items, total, rows.Err()
}

func (r *repoPG) SetFollowup(ctx context.Context, id, appointmentID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE test_request SET followup_appointment_id = $2, updated_at = NOW()
		WHERE id = $1 AND followup_appointment_id IS NULL`, id, appointmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// The guard matched nothing: a concurrent caller linked first. Re-read
	// to tell an idempotent re-attach apart from a conflicting one.
	var linked *uuid.UUID
	if err := r.pool.QueryRow(ctx,
		`SELECT followup_appointment_id FROM test_request WHERE id = $1`, id).Scan(&linked); err != nil {
		return err
	}
	if linked != nil && *linked == appointmentID {
		return nil
	}
	return ErrAlreadyLinked
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE test_request SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) AddResult(ctx context.Context, doc *ResultDocument) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	doc.ID = uuid.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO test_result_document (id, test_request_id, file_name, content_type, size_bytes, note, uploaded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		doc.ID, doc.TestRequestID, doc.FileName, doc.ContentType, doc.SizeBytes, doc.Note, doc.UploadedBy); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE test_request SET has_results = TRUE, results_count = results_count + 1, updated_at = NOW()
		WHERE id = $1`, doc.TestRequestID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) ListResults(ctx context.Context, testRequestID uuid.UUID) ([]*ResultDocument, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, test_request_id, file_name, content_type, size_bytes, note, uploaded_by, created_at
		FROM test_result_document
		WHERE test_request_id = $1
		ORDER BY created_at DESC`, testRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ResultDocument
	for rows.Next() {
		var d ResultDocument
		if err := rows.Scan(&d.ID, &d.TestRequestID, &d.FileName, &d.ContentType,
			&d.SizeBytes, &d.Note, &d.UploadedBy, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}
