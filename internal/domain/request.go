package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle status of a request
type RequestStatus string

const (
	RequestStatusOpenNotYetFilled     RequestStatus = "Open - Not yet filled"
	RequestStatusOpenAwaitingPickup   RequestStatus = "Open - Awaiting pickup"
	RequestStatusOpenInTransit        RequestStatus = "Open - In transit"
	RequestStatusOpenAwaitingDelivery RequestStatus = "Open - Awaiting delivery"
	RequestStatusClosedFilled         RequestStatus = "Closed - Filled"
	RequestStatusClosedCancelled      RequestStatus = "Closed - Cancelled"
	RequestStatusClosedUnfilled       RequestStatus = "Closed - Unfilled"
	RequestStatusClosedPickupExpired  RequestStatus = "Closed - Pickup expired"
)

const (
	RequestLevelItem  = "Item"
	RequestLevelTitle = "Title"
)

func (s RequestStatus) IsClosed() bool {
	return strings.HasPrefix(string(s), "Closed")
}

// Request represents a hold, page or recall placed by a patron
type Request struct {
	ID                      uuid.UUID     `json:"id"`
	RequesterID             uuid.UUID     `json:"requesterId"`
	ItemID                  uuid.UUID     `json:"itemId,omitempty"`
	InstanceID              uuid.UUID     `json:"instanceId"`
	RequestLevel            string        `json:"requestLevel"`
	RequestType             string        `json:"requestType"`
	Status                  RequestStatus `json:"status"`
	RequestDate             time.Time     `json:"requestDate"`
	RequestExpirationDate   *time.Time    `json:"requestExpirationDate,omitempty"`
	HoldShelfExpirationDate *time.Time    `json:"holdShelfExpirationDate,omitempty"`
	PickupServicePointID    uuid.UUID     `json:"pickupServicePointId,omitempty"`
	Item                    *Item         `json:"item,omitempty"`
	Requester               *User         `json:"requester,omitempty"`
}

func (r Request) IsClosed() bool {
	return r.Status.IsClosed()
}

// IsClosedExceptPickupExpired is true for every closed status other than pickup expired
func (r Request) IsClosedExceptPickupExpired() bool {
	return r.IsClosed() && r.Status != RequestStatusClosedPickupExpired
}

func (r Request) IsTitleLevel() bool {
	return r.RequestLevel == RequestLevelTitle
}

// HasItem reports whether the request targets a concrete item that was resolved
func (r Request) HasItem() bool {
	return r.Item != nil
}
