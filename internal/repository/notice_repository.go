package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/circulation-notices/internal/domain"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

const noticeColumns = `id, session_id, loan_id, request_id, fee_fine_action_id, recipient_user_id,
	triggering_event, next_run_time, timing, recurring_period_duration, recurring_period_interval,
	template_id, format, send_in_real_time`

// noticeRow is the flat storage layout of a scheduled notice
type noticeRow struct {
	ID                      uuid.UUID      `db:"id"`
	SessionID               string         `db:"session_id"`
	LoanID                  uuid.NullUUID  `db:"loan_id"`
	RequestID               uuid.NullUUID  `db:"request_id"`
	FeeFineActionID         uuid.NullUUID  `db:"fee_fine_action_id"`
	RecipientUserID         uuid.UUID      `db:"recipient_user_id"`
	TriggeringEvent         string         `db:"triggering_event"`
	NextRunTime             time.Time      `db:"next_run_time"`
	Timing                  string         `db:"timing"`
	RecurringPeriodDuration sql.NullInt64  `db:"recurring_period_duration"`
	RecurringPeriodInterval sql.NullString `db:"recurring_period_interval"`
	TemplateID              uuid.UUID      `db:"template_id"`
	Format                  string         `db:"format"`
	SendInRealTime          bool           `db:"send_in_real_time"`
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

func toNoticeRow(n domain.ScheduledNotice) noticeRow {
	row := noticeRow{
		ID:              n.ID,
		SessionID:       n.SessionID,
		LoanID:          nullUUID(n.LoanID),
		RequestID:       nullUUID(n.RequestID),
		FeeFineActionID: nullUUID(n.FeeFineActionID),
		RecipientUserID: n.RecipientUserID,
		TriggeringEvent: string(n.TriggeringEvent),
		NextRunTime:     n.NextRunTime.UTC(),
		Timing:          string(n.Config.Timing),
		TemplateID:      n.Config.TemplateID,
		Format:          string(n.Config.Format),
		SendInRealTime:  n.Config.SendInRealTime,
	}
	if p := n.Config.RecurringPeriod; p != nil {
		row.RecurringPeriodDuration = sql.NullInt64{Int64: int64(p.Duration), Valid: true}
		row.RecurringPeriodInterval = sql.NullString{String: string(p.Interval), Valid: true}
	}
	return row
}

func (r noticeRow) toDomain() domain.ScheduledNotice {
	n := domain.ScheduledNotice{
		ID:              r.ID,
		SessionID:       r.SessionID,
		LoanID:          r.LoanID.UUID,
		RequestID:       r.RequestID.UUID,
		FeeFineActionID: r.FeeFineActionID.UUID,
		RecipientUserID: r.RecipientUserID,
		TriggeringEvent: domain.TriggeringEvent(r.TriggeringEvent),
		NextRunTime:     r.NextRunTime.UTC(),
		Config: domain.NoticeConfig{
			Timing:         domain.Timing(r.Timing),
			TemplateID:     r.TemplateID,
			Format:         domain.Format(r.Format),
			SendInRealTime: r.SendInRealTime,
		},
	}
	if r.RecurringPeriodDuration.Valid && r.RecurringPeriodInterval.Valid {
		n.Config.RecurringPeriod = &domain.Period{
			Duration: int(r.RecurringPeriodDuration.Int64),
			Interval: domain.Interval(r.RecurringPeriodInterval.String),
		}
	}
	return n
}

type noticeRepository struct {
	db *sqlx.DB
}

func NewNoticeRepository(db *sqlx.DB) NoticeRepository {
	return &noticeRepository{db: db}
}

// groupOrder sorts by every column of the group key so a group is contiguous in a page
const groupOrder = "recipient_user_id, template_id, triggering_event, format, timing, session_id, next_run_time ASC"

// dueFilter builds the WHERE clause shared by the page and count queries
func dueFilter(q domain.DueNoticeQuery) (string, []interface{}) {
	conditions := []string{"next_run_time < $1"}
	args := []interface{}{q.Before.UTC()}

	if q.RealTime != nil {
		args = append(args, *q.RealTime)
		conditions = append(conditions, fmt.Sprintf("send_in_real_time = $%d", len(args)))
	}

	if len(q.Events) > 0 {
		events := make([]string, len(q.Events))
		for i, e := range q.Events {
			events[i] = string(e)
		}
		args = append(args, pq.Array(events))
		conditions = append(conditions, fmt.Sprintf("triggering_event = ANY($%d)", len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

func (r *noticeRepository) FindDue(ctx context.Context, q domain.DueNoticeQuery) (domain.NoticePage, error) {
	where, args := dueFilter(q)

	order := "next_run_time ASC"
	if q.OrderByGroup {
		order = groupOrder
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM scheduled_notices
		WHERE %s
		ORDER BY %s
		LIMIT $%d
	`, noticeColumns, where, order, len(args)+1)

	var rows []noticeRow
	if err := r.db.SelectContext(ctx, &rows, query, append(args, q.Limit)...); err != nil {
		return domain.NoticePage{}, customError.WrapDatabaseError(err)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM scheduled_notices WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return domain.NoticePage{}, customError.WrapDatabaseError(err)
	}

	page := domain.NoticePage{
		Notices:      make([]domain.ScheduledNotice, 0, len(rows)),
		TotalRecords: total,
	}
	for _, row := range rows {
		page.Notices = append(page.Notices, row.toDomain())
	}

	return page, nil
}

func (r *noticeRepository) Create(ctx context.Context, notice domain.ScheduledNotice) (domain.ScheduledNotice, error) {
	if notice.ID == uuid.Nil {
		notice.ID = uuid.New()
	}

	query := `
		INSERT INTO scheduled_notices (` + noticeColumns + `)
		VALUES (:id, :session_id, :loan_id, :request_id, :fee_fine_action_id, :recipient_user_id,
			:triggering_event, :next_run_time, :timing, :recurring_period_duration, :recurring_period_interval,
			:template_id, :format, :send_in_real_time)
	`

	if _, err := r.db.NamedExecContext(ctx, query, toNoticeRow(notice)); err != nil {
		return domain.ScheduledNotice{}, customError.WrapDatabaseError(err)
	}

	return notice.WithNextRunTime(notice.NextRunTime), nil
}

func (r *noticeRepository) Update(ctx context.Context, notice domain.ScheduledNotice) (domain.ScheduledNotice, error) {
	query := `
		UPDATE scheduled_notices
		SET next_run_time = :next_run_time, timing = :timing,
			recurring_period_duration = :recurring_period_duration,
			recurring_period_interval = :recurring_period_interval,
			template_id = :template_id, format = :format,
			send_in_real_time = :send_in_real_time, updated_at = NOW()
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, toNoticeRow(notice))
	if err != nil {
		return domain.ScheduledNotice{}, customError.WrapDatabaseError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.ScheduledNotice{}, customError.WrapDatabaseError(err)
	}
	if affected == 0 {
		return domain.ScheduledNotice{}, customError.WrapRecordNotFound("scheduled notice", notice.ID.String())
	}

	return notice, nil
}

func (r *noticeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_notices WHERE id = $1`, id); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

func (r *noticeRepository) DeleteByLoanID(ctx context.Context, loanID uuid.UUID, events ...domain.TriggeringEvent) error {
	query := `DELETE FROM scheduled_notices WHERE loan_id = $1`
	args := []interface{}{loanID}

	if len(events) > 0 {
		names := make([]string, len(events))
		for i, e := range events {
			names[i] = string(e)
		}
		query += ` AND triggering_event = ANY($2)`
		args = append(args, pq.Array(names))
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

func (r *noticeRepository) DeleteByRequestID(ctx context.Context, requestID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_notices WHERE request_id = $1`, requestID); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}
