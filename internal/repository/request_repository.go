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

type requestRow struct {
	ID                      uuid.UUID     `db:"id"`
	RequesterID             uuid.UUID     `db:"requester_id"`
	ItemID                  uuid.NullUUID `db:"item_id"`
	InstanceID              uuid.UUID     `db:"instance_id"`
	RequestLevel            string        `db:"request_level"`
	RequestType             string        `db:"request_type"`
	Status                  string        `db:"status"`
	RequestDate             time.Time     `db:"request_date"`
	RequestExpirationDate   sql.NullTime  `db:"request_expiration_date"`
	HoldShelfExpirationDate sql.NullTime  `db:"hold_shelf_expiration_date"`
	PickupServicePointID    uuid.NullUUID `db:"pickup_service_point_id"`

	ItemFound               bool           `db:"item_found"`
	ItemBarcode             sql.NullString `db:"item_barcode"`
	ItemTitle               sql.NullString `db:"item_title"`
	ItemStatus              sql.NullString `db:"item_status"`
	ItemEffectiveLocationID uuid.NullUUID  `db:"item_effective_location_id"`

	UserFound         bool           `db:"user_found"`
	UserBarcode       sql.NullString `db:"user_barcode"`
	UserFirstName     sql.NullString `db:"user_first_name"`
	UserLastName      sql.NullString `db:"user_last_name"`
	UserEmail         sql.NullString `db:"user_email"`
	UserPatronGroupID uuid.NullUUID  `db:"user_patron_group_id"`
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

func (r requestRow) toDomain(withItem bool) domain.Request {
	req := domain.Request{
		ID:                      r.ID,
		RequesterID:             r.RequesterID,
		ItemID:                  r.ItemID.UUID,
		InstanceID:              r.InstanceID,
		RequestLevel:            r.RequestLevel,
		RequestType:             r.RequestType,
		Status:                  domain.RequestStatus(r.Status),
		RequestDate:             r.RequestDate.UTC(),
		RequestExpirationDate:   nullTimePtr(r.RequestExpirationDate),
		HoldShelfExpirationDate: nullTimePtr(r.HoldShelfExpirationDate),
		PickupServicePointID:    r.PickupServicePointID.UUID,
	}

	if withItem && r.ItemFound {
		req.Item = &domain.Item{
			ID:                  r.ItemID.UUID,
			Barcode:             r.ItemBarcode.String,
			Title:               r.ItemTitle.String,
			Status:              domain.ItemStatus(r.ItemStatus.String),
			InstanceID:          r.InstanceID,
			EffectiveLocationID: r.ItemEffectiveLocationID.UUID,
		}
	}

	if r.UserFound {
		req.Requester = &domain.User{
			ID:            r.RequesterID,
			Barcode:       r.UserBarcode.String,
			FirstName:     r.UserFirstName.String,
			LastName:      r.UserLastName.String,
			Email:         r.UserEmail.String,
			PatronGroupID: r.UserPatronGroupID.UUID,
		}
	}

	return req
}

type requestRepository struct {
	db *sqlx.DB
}

func NewRequestRepository(db *sqlx.DB) RequestRepository {
	return &requestRepository{db: db}
}

const requestQuery = `
	SELECT r.id, r.requester_id, r.item_id, r.instance_id, r.request_level, r.request_type,
		r.status, r.request_date, r.request_expiration_date, r.hold_shelf_expiration_date,
		r.pickup_service_point_id,
		i.id IS NOT NULL AS item_found, i.barcode AS item_barcode, i.title AS item_title,
		i.status AS item_status, i.effective_location_id AS item_effective_location_id,
		u.id IS NOT NULL AS user_found, u.barcode AS user_barcode, u.first_name AS user_first_name,
		u.last_name AS user_last_name, u.email AS user_email, u.patron_group_id AS user_patron_group_id
	FROM requests r
	LEFT JOIN items i ON i.id = r.item_id
	LEFT JOIN users u ON u.id = r.requester_id
	WHERE r.id = $1
`

func (r *requestRepository) get(ctx context.Context, id uuid.UUID, withItem bool) (domain.Request, error) {
	var row requestRow
	if err := r.db.GetContext(ctx, &row, requestQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Request{}, customError.WrapRecordNotFound(customError.RecordRequest, id.String())
		}
		return domain.Request{}, customError.WrapDatabaseError(err)
	}
	return row.toDomain(withItem), nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Request, error) {
	return r.get(ctx, id, true)
}

func (r *requestRepository) GetByIDWithoutItem(ctx context.Context, id uuid.UUID) (domain.Request, error) {
	return r.get(ctx, id, false)
}
