package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/circulation-notices/internal/domain"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

// requestNoticeHandler handles hold shelf and request expiration notices
type requestNoticeHandler struct {
	HandlerDeps
}

func newRequestNoticeHandler(deps HandlerDeps) *requestNoticeHandler {
	return &requestNoticeHandler{HandlerDeps: deps}
}

func (h *requestNoticeHandler) Fetch(ctx context.Context, nc domain.NoticeContext, now time.Time) (domain.NoticeContext, error) {
	notice := nc.Notice
	if !notice.HasRequest() {
		return nc, customError.WrapRecordNotFound(customError.RecordRequest, "")
	}

	if err := h.fetchTemplate(ctx, nc); err != nil {
		return nc, err
	}

	titleLevel := notice.TriggeringEvent == domain.TriggeringEventTitleLevelRequestExpiration

	var (
		request domain.Request
		err     error
	)
	if titleLevel {
		request, err = h.Requests.GetByIDWithoutItem(ctx, notice.RequestID)
	} else {
		request, err = h.Requests.GetByID(ctx, notice.RequestID)
	}
	if err != nil {
		return nc, err
	}

	if request.Requester == nil {
		return nc, customError.WrapRecordNotFound(customError.RecordUser, request.RequesterID.String())
	}
	if !titleLevel && needsItem(request) && !request.HasItem() {
		return nc, customError.WrapIncompleteRequest(request.ID.String(), customError.RecordItem)
	}
	nc = nc.WithRequest(request)

	policyID, err := h.lookupPolicy(ctx, request.Requester, request.Item)
	if err != nil {
		return nc, err
	}

	return nc.WithNoticePolicyID(policyID), nil
}

func needsItem(r domain.Request) bool {
	return r.RequestLevel == domain.RequestLevelItem || r.ItemID != uuid.Nil
}

func (h *requestNoticeHandler) IsIrrelevant(nc domain.NoticeContext, now time.Time) Verdict {
	return RequestNoticeRelevance(nc.Notice, *nc.Request)
}

// HoldsSend keeps an "Upon At" notice back until its request has actually expired
func (h *requestNoticeHandler) HoldsSend(nc domain.NoticeContext) bool {
	return nc.Notice.Config.Timing == domain.TimingUponAt && !nc.Request.IsClosed()
}

func (h *requestNoticeHandler) RenderContext(nc domain.NoticeContext) domain.Payload {
	return domain.Payload{
		"request": requestPayload(*nc.Request),
		"item":    itemPayload(nc.Request.Item),
	}
}

func (h *requestNoticeHandler) LogFragment(nc domain.NoticeContext, now time.Time) domain.NoticeLog {
	request := nc.Request
	return noticeLog(nc, now, domain.NoticeLogItem{
		TemplateID:      nc.Notice.Config.TemplateID,
		TriggeringEvent: nc.Notice.TriggeringEvent,
		NoticePolicyID:  nc.NoticePolicyID,
		RequestID:       request.ID,
		ItemID:          request.ItemID,
		ServicePointID:  request.PickupServicePointID,
	})
}

func (h *requestNoticeHandler) Reschedule(nc domain.NoticeContext, now time.Time) Outcome {
	if h.HoldsSend(nc) {
		return retainOutcome("request has not expired yet")
	}

	request := *nc.Request

	return RescheduleRecurring(nc.Notice, now, h.IsIrrelevant(nc, now), request.IsClosed(),
		func(next domain.ScheduledNotice) Verdict {
			return RequestNextRecurrenceRelevance(next, request)
		})
}

func (h *requestNoticeHandler) GroupToken() string {
	return groupTokenRequests
}
