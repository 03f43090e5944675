package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/circulation-notices/internal/domain"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

type loanRow struct {
	ID                     uuid.UUID     `db:"id"`
	UserID                 uuid.NullUUID `db:"user_id"`
	ItemID                 uuid.UUID     `db:"item_id"`
	Status                 string        `db:"status"`
	Action                 string        `db:"action"`
	LoanDate               time.Time     `db:"loan_date"`
	DueDate                time.Time     `db:"due_date"`
	DueDateChanged         bool          `db:"due_date_changed"`
	CheckoutServicePointID uuid.NullUUID `db:"checkout_service_point_id"`
	OverdueFinePolicyID    uuid.NullUUID `db:"overdue_fine_policy_id"`
	LastFeeBilledNumber    sql.NullInt32 `db:"last_fee_billed_number"`
	LastFeeBilledDate      sql.NullTime  `db:"last_fee_billed_date"`

	ItemFound               bool           `db:"item_found"`
	ItemBarcode             sql.NullString `db:"item_barcode"`
	ItemTitle               sql.NullString `db:"item_title"`
	ItemStatus              sql.NullString `db:"item_status"`
	ItemInstanceID          uuid.NullUUID  `db:"item_instance_id"`
	ItemEffectiveLocationID uuid.NullUUID  `db:"item_effective_location_id"`

	UserFound         bool           `db:"user_found"`
	UserBarcode       sql.NullString `db:"user_barcode"`
	UserFirstName     sql.NullString `db:"user_first_name"`
	UserLastName      sql.NullString `db:"user_last_name"`
	UserEmail         sql.NullString `db:"user_email"`
	UserPatronGroupID uuid.NullUUID  `db:"user_patron_group_id"`
}

func (r loanRow) toDomain() domain.Loan {
	loan := domain.Loan{
		ID:                     r.ID,
		UserID:                 r.UserID.UUID,
		ItemID:                 r.ItemID,
		Status:                 r.Status,
		Action:                 r.Action,
		LoanDate:               r.LoanDate.UTC(),
		DueDate:                r.DueDate.UTC(),
		DueDateChanged:         r.DueDateChanged,
		CheckoutServicePointID: r.CheckoutServicePointID.UUID,
		OverdueFinePolicyID:    r.OverdueFinePolicyID.UUID,
	}

	if r.LastFeeBilledNumber.Valid {
		loan.LastFeeBilled = &domain.LastFeeBilled{
			Number: int(r.LastFeeBilledNumber.Int32),
			Date:   r.LastFeeBilledDate.Time.UTC(),
		}
	}

	if r.ItemFound {
		loan.Item = &domain.Item{
			ID:                  r.ItemID,
			Barcode:             r.ItemBarcode.String,
			Title:               r.ItemTitle.String,
			Status:              domain.ItemStatus(r.ItemStatus.String),
			InstanceID:          r.ItemInstanceID.UUID,
			EffectiveLocationID: r.ItemEffectiveLocationID.UUID,
		}
	}

	if r.UserFound {
		loan.User = &domain.User{
			ID:            r.UserID.UUID,
			Barcode:       r.UserBarcode.String,
			FirstName:     r.UserFirstName.String,
			LastName:      r.UserLastName.String,
			Email:         r.UserEmail.String,
			PatronGroupID: r.UserPatronGroupID.UUID,
		}
	}

	return loan
}

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Loan, error) {
	query := `
		SELECT l.id, l.user_id, l.item_id, l.status, l.action, l.loan_date, l.due_date,
			l.due_date_changed, l.checkout_service_point_id, l.overdue_fine_policy_id,
			l.last_fee_billed_number, l.last_fee_billed_date,
			i.id IS NOT NULL AS item_found, i.barcode AS item_barcode, i.title AS item_title,
			i.status AS item_status, i.instance_id AS item_instance_id,
			i.effective_location_id AS item_effective_location_id,
			u.id IS NOT NULL AS user_found, u.barcode AS user_barcode, u.first_name AS user_first_name,
			u.last_name AS user_last_name, u.email AS user_email, u.patron_group_id AS user_patron_group_id
		FROM loans l
		LEFT JOIN items i ON i.id = l.item_id
		LEFT JOIN users u ON u.id = l.user_id
		WHERE l.id = $1
	`

	var row loanRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Loan{}, customError.WrapRecordNotFound(customError.RecordLoan, id.String())
		}
		return domain.Loan{}, customError.WrapDatabaseError(err)
	}

	return row.toDomain(), nil
}

func (r *loanRepository) UpdateLastFeeBilled(ctx context.Context, loanID uuid.UUID, billed domain.LastFeeBilled) error {
	query := `
		UPDATE loans
		SET last_fee_billed_number = $2, last_fee_billed_date = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, loanID, billed.Number, billed.Date.UTC())
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if affected == 0 {
		return customError.WrapRecordNotFound(customError.RecordLoan, loanID.String())
	}

	return nil
}
