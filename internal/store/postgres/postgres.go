// Package postgres stores lenders and applications as JSONB documents. The
// schema is created by the migrations in internal/common/database.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/store"
)

const (
	queryListLenders  = `SELECT config FROM lenders ORDER BY is_default DESC, name ASC, id ASC`
	queryGetLender    = `SELECT config FROM lenders WHERE id = $1`
	queryCountLenders = `SELECT COUNT(*) FROM lenders`
	queryDeleteLender = `DELETE FROM lenders WHERE id = $1`
	queryDeleteDefaults = `DELETE FROM lenders WHERE is_default = TRUE`
	queryUpsertLender = `INSERT INTO lenders (id, name, is_active, is_default, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			is_active = EXCLUDED.is_active,
			is_default = EXCLUDED.is_default,
			config = EXCLUDED.config,
			updated_at = EXCLUDED.updated_at`

	queryListApplications  = `SELECT data FROM applications ORDER BY created_at DESC`
	queryGetApplication    = `SELECT data FROM applications WHERE id = $1`
	queryInsertApplication = `INSERT INTO applications (id, status, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	queryUpdateApplication = `UPDATE applications SET status = $2, data = $3, updated_at = $4 WHERE id = $1`
	queryDeleteApplication = `DELETE FROM applications WHERE id = $1`
)

type LenderStore struct {
	db *sql.DB
}

func NewLenderStore(db *sql.DB) *LenderStore {
	return &LenderStore{db: db}
}

func (s *LenderStore) List(ctx context.Context) ([]models.LenderConfig, error) {
	return listLenders(ctx, s.db)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func listLenders(ctx context.Context, q queryer) ([]models.LenderConfig, error) {
	rows, err := q.QueryContext(ctx, queryListLenders)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list lenders", err)
	}
	defer rows.Close()

	lenders := []models.LenderConfig{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan lender", err)
		}
		var l models.LenderConfig
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, errors.NewQueryExecutionFailedError("decode lender", err)
		}
		lenders = append(lenders, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list lenders", err)
	}
	return lenders, nil
}

func (s *LenderStore) Get(ctx context.Context, id string) (*models.LenderConfig, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, queryGetLender, id).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get lender", err)
	}

	var l models.LenderConfig
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, errors.NewQueryExecutionFailedError("decode lender", err)
	}
	return &l, nil
}

func (s *LenderStore) Save(ctx context.Context, lender *models.LenderConfig) error {
	args, err := lenderArgs(lender)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, queryUpsertLender, args...); err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (s *LenderStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, queryDeleteLender, id)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete lender", err)
	}
	return requireAffected(res)
}

func (s *LenderStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, queryCountLenders).Scan(&n); err != nil {
		return 0, errors.NewQueryExecutionFailedError("count lenders", err)
	}
	return n, nil
}

// ReplaceDefaults deletes and re-inserts the defaults inside one
// transaction, so a failed insert rolls the delete back.
func (s *LenderStore) ReplaceDefaults(ctx context.Context, defaults []models.LenderConfig) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := listLenders(ctx, tx)
	if err != nil {
		return 0, err
	}
	if _, err := store.CheckDefaults(existing, defaults); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, queryDeleteDefaults)
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("delete default lenders", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("delete default lenders", err)
	}

	stmt, err := tx.PrepareContext(ctx, queryUpsertLender)
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("prepare lender upsert", err)
	}
	defer stmt.Close()

	for i := range defaults {
		args, err := lenderArgs(&defaults[i])
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, errors.NewDatabaseInsertFailedError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewDatabaseInsertFailedError(err)
	}
	return removed, nil
}

// InsertMany upserts all lenders in one transaction.
func (s *LenderStore) InsertMany(ctx context.Context, lenders []models.LenderConfig) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, queryUpsertLender)
	if err != nil {
		return errors.NewQueryExecutionFailedError("prepare lender upsert", err)
	}
	defer stmt.Close()

	for i := range lenders {
		args, err := lenderArgs(&lenders[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.NewDatabaseInsertFailedError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func lenderArgs(l *models.LenderConfig) ([]interface{}, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("encode lender %s: %w", l.ID, err))
	}
	return []interface{}{l.ID, l.Name, l.IsActive, l.IsDefault, raw, l.CreatedAt, l.UpdatedAt}, nil
}

type ApplicationStore struct {
	db *sql.DB
}

func NewApplicationStore(db *sql.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

func (s *ApplicationStore) List(ctx context.Context) ([]models.Application, error) {
	rows, err := s.db.QueryContext(ctx, queryListApplications)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list applications", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan application", err)
		}
		var a models.Application
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, errors.NewQueryExecutionFailedError("decode application", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list applications", err)
	}
	return apps, nil
}

func (s *ApplicationStore) Get(ctx context.Context, id string) (*models.Application, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, queryGetApplication, id).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get application", err)
	}

	var a models.Application
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, errors.NewQueryExecutionFailedError("decode application", err)
	}
	return &a, nil
}

func (s *ApplicationStore) Insert(ctx context.Context, app *models.Application) error {
	raw, err := json.Marshal(app)
	if err != nil {
		return errors.NewInternalError(err)
	}
	_, err = s.db.ExecContext(ctx, queryInsertApplication, app.ID, string(app.Status), raw, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (s *ApplicationStore) Update(ctx context.Context, app *models.Application) error {
	raw, err := json.Marshal(app)
	if err != nil {
		return errors.NewInternalError(err)
	}
	res, err := s.db.ExecContext(ctx, queryUpdateApplication, app.ID, string(app.Status), raw, app.UpdatedAt)
	if err != nil {
		return errors.NewQueryExecutionFailedError("update application", err)
	}
	return requireAffected(res)
}

func (s *ApplicationStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, queryDeleteApplication, id)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete application", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewQueryExecutionFailedError("rows affected", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

var (
	_ store.LenderStore      = (*LenderStore)(nil)
	_ store.ApplicationStore = (*ApplicationStore)(nil)
)
