package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/circulation-notices/internal/domain"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

const accountColumns = `id, user_id, loan_id, item_id, fee_fine_type, fee_fine_owner, title, barcode,
	amount, remaining, status, payment_status, created_at`

const actionColumns = `id, account_id, user_id, type_action, amount_action, balance, comments, source, date_action`

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, customError.WrapRecordNotFound(customError.RecordAccount, id.String())
		}
		return domain.Account{}, customError.WrapDatabaseError(err)
	}

	return account, nil
}

func (r *accountRepository) FindByLoanID(ctx context.Context, loanID uuid.UUID, feeFineTypes []string) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE loan_id = $1 AND fee_fine_type = ANY($2)
		ORDER BY created_at
	`

	var accounts []domain.Account
	if err := r.db.SelectContext(ctx, &accounts, query, loanID, pq.Array(feeFineTypes)); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return accounts, nil
}

func (r *accountRepository) CreateWithCharge(ctx context.Context, account domain.Account, charge domain.FeeFineAction) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	accountQuery := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (:id, :user_id, :loan_id, :item_id, :fee_fine_type, :fee_fine_owner, :title, :barcode,
			:amount, :remaining, :status, :payment_status, :created_at)
	`
	if _, err := tx.NamedExecContext(ctx, accountQuery, account); err != nil {
		return customError.WrapDatabaseError(err)
	}

	actionQuery := `
		INSERT INTO fee_fine_actions (` + actionColumns + `)
		VALUES (:id, :account_id, :user_id, :type_action, :amount_action, :balance, :comments, :source, :date_action)
	`
	if _, err := tx.NamedExecContext(ctx, actionQuery, charge); err != nil {
		return customError.WrapDatabaseError(err)
	}

	if err := tx.Commit(); err != nil {
		return customError.WrapDatabaseError(err)
	}

	return nil
}

type feeFineActionRepository struct {
	db *sqlx.DB
}

func NewFeeFineActionRepository(db *sqlx.DB) FeeFineActionRepository {
	return &feeFineActionRepository{db: db}
}

func (r *feeFineActionRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.FeeFineAction, error) {
	query := `SELECT ` + actionColumns + ` FROM fee_fine_actions WHERE id = $1`

	var action domain.FeeFineAction
	if err := r.db.GetContext(ctx, &action, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FeeFineAction{}, customError.WrapRecordNotFound(customError.RecordFeeFineAction, id.String())
		}
		return domain.FeeFineAction{}, customError.WrapDatabaseError(err)
	}

	return action, nil
}

// FindChargeForAccount returns the earliest action of the account, which is the charge that opened it
func (r *feeFineActionRepository) FindChargeForAccount(ctx context.Context, accountID uuid.UUID) (domain.FeeFineAction, error) {
	query := `
		SELECT ` + actionColumns + `
		FROM fee_fine_actions
		WHERE account_id = $1
		ORDER BY date_action ASC
		LIMIT 1
	`

	var action domain.FeeFineAction
	if err := r.db.GetContext(ctx, &action, query, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FeeFineAction{}, customError.WrapRecordNotFound(customError.RecordFeeFineAction, "charge for account "+accountID.String())
		}
		return domain.FeeFineAction{}, customError.WrapDatabaseError(err)
	}

	return action, nil
}
