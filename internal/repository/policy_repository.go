package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/segyhp/circulation-notices/internal/domain"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

type templateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Exists(ctx context.Context, templateID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM templates WHERE id = $1 AND active)`
	if err := r.db.GetContext(ctx, &exists, query, templateID); err != nil {
		return false, customError.WrapDatabaseError(err)
	}
	return exists, nil
}

type noticePolicyRepository struct {
	db *sqlx.DB
}

func NewNoticePolicyRepository(db *sqlx.DB) NoticePolicyRepository {
	return &noticePolicyRepository{db: db}
}

// LookupPolicy picks the most specific matching rule; NULL columns match anything
func (r *noticePolicyRepository) LookupPolicy(ctx context.Context, patronGroupID, locationID uuid.UUID) (uuid.UUID, error) {
	query := `
		SELECT notice_policy_id
		FROM notice_policy_rules
		WHERE (patron_group_id = $1 OR patron_group_id IS NULL)
			AND (location_id = $2 OR location_id IS NULL)
		ORDER BY priority DESC,
			(patron_group_id IS NOT NULL)::int + (location_id IS NOT NULL)::int DESC
		LIMIT 1
	`

	var policyID uuid.UUID
	if err := r.db.GetContext(ctx, &policyID, query, patronGroupID, locationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, customError.WrapRecordNotFound(customError.RecordNoticePolicy,
				"patron group "+patronGroupID.String()+" at location "+locationID.String())
		}
		return uuid.Nil, customError.WrapDatabaseError(err)
	}

	return policyID, nil
}

type reminderStepRow struct {
	SequenceNumber   int             `db:"sequence_number"`
	PeriodDuration   int             `db:"period_duration"`
	PeriodInterval   string          `db:"period_interval"`
	ReminderFee      decimal.Decimal `db:"reminder_fee"`
	NoticeFormat     string          `db:"notice_format"`
	NoticeTemplateID uuid.UUID       `db:"notice_template_id"`
}

type reminderScheduleRepository struct {
	db *sqlx.DB
}

func NewReminderScheduleRepository(db *sqlx.DB) ReminderScheduleRepository {
	return &reminderScheduleRepository{db: db}
}

func (r *reminderScheduleRepository) GetByOverdueFinePolicyID(ctx context.Context, policyID uuid.UUID) (domain.ReminderSchedule, error) {
	var countClosed bool
	policyQuery := `SELECT count_closed FROM reminder_fee_policies WHERE overdue_fine_policy_id = $1`
	if err := r.db.GetContext(ctx, &countClosed, policyQuery, policyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ReminderSchedule{}, customError.WrapRecordNotFound(customError.RecordReminderSchedule, policyID.String())
		}
		return domain.ReminderSchedule{}, customError.WrapDatabaseError(err)
	}

	stepsQuery := `
		SELECT sequence_number, period_duration, period_interval, reminder_fee, notice_format, notice_template_id
		FROM reminder_steps
		WHERE overdue_fine_policy_id = $1
		ORDER BY sequence_number
	`
	var rows []reminderStepRow
	if err := r.db.SelectContext(ctx, &rows, stepsQuery, policyID); err != nil {
		return domain.ReminderSchedule{}, customError.WrapDatabaseError(err)
	}

	schedule := domain.ReminderSchedule{
		PolicyID:    policyID,
		CountClosed: countClosed,
		Steps:       make([]domain.ReminderStep, 0, len(rows)),
	}
	for _, row := range rows {
		schedule.Steps = append(schedule.Steps, domain.ReminderStep{
			SequenceNumber: row.SequenceNumber,
			Period:         domain.Period{Duration: row.PeriodDuration, Interval: domain.Interval(row.PeriodInterval)},
			Fee:            row.ReminderFee,
			Format:         domain.Format(row.NoticeFormat),
			TemplateID:     row.NoticeTemplateID,
		})
	}

	return schedule, nil
}

type calendarDayRow struct {
	Day  time.Time `db:"day"`
	Open bool      `db:"open"`
}

type calendarRepository struct {
	db *sqlx.DB
}

func NewCalendarRepository(db *sqlx.DB) CalendarRepository {
	return &calendarRepository{db: db}
}

// LookupOpeningDays returns the requested day with the nearest open days on either side.
// Days without a calendar entry are treated as closed.
func (r *calendarRepository) LookupOpeningDays(ctx context.Context, servicePointID uuid.UUID, date time.Time) (domain.AdjacentOpeningDays, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	days := domain.AdjacentOpeningDays{Requested: domain.OpeningDay{Date: day}}

	var requested calendarDayRow
	err := r.db.GetContext(ctx, &requested,
		`SELECT day, open FROM calendar_days WHERE service_point_id = $1 AND day = $2`, servicePointID, day)
	switch {
	case err == nil:
		days.Requested.Open = requested.Open
	case !errors.Is(err, sql.ErrNoRows):
		return domain.AdjacentOpeningDays{}, customError.WrapDatabaseError(err)
	}

	var previous calendarDayRow
	err = r.db.GetContext(ctx, &previous, `
		SELECT day, open FROM calendar_days
		WHERE service_point_id = $1 AND day < $2 AND open
		ORDER BY day DESC LIMIT 1`, servicePointID, day)
	switch {
	case err == nil:
		days.Previous = domain.OpeningDay{Date: previous.Day.UTC(), Open: true}
	case !errors.Is(err, sql.ErrNoRows):
		return domain.AdjacentOpeningDays{}, customError.WrapDatabaseError(err)
	}

	var next calendarDayRow
	err = r.db.GetContext(ctx, &next, `
		SELECT day, open FROM calendar_days
		WHERE service_point_id = $1 AND day > $2 AND open
		ORDER BY day ASC LIMIT 1`, servicePointID, day)
	switch {
	case err == nil:
		days.Next = domain.OpeningDay{Date: next.Day.UTC(), Open: true}
	case !errors.Is(err, sql.ErrNoRows):
		return domain.AdjacentOpeningDays{}, customError.WrapDatabaseError(err)
	}

	return days, nil
}
