package delivery

// LookupStatus tracks the lifecycle of a driver's shipment lookup.
type LookupStatus string

const (
	LookupStatusPendingFeedback LookupStatus = "pending_feedback"
	LookupStatusCompleted       LookupStatus = "completed"
)

func (ls LookupStatus) String() string {
	return string(ls)
}

func (ls LookupStatus) IsValid() bool {
	switch ls {
	case LookupStatusPendingFeedback, LookupStatusCompleted:
		return true
	default:
		return false
	}
}

// IsCompleted returns true if the lookup reached a terminal state.
func (ls LookupStatus) IsCompleted() bool {
	return ls == LookupStatusCompleted
}

// DeliveryStatus is the outcome a driver reports for an attempt.
type DeliveryStatus string

const (
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	// DeliveryStatusPartial survives from a legacy feedback form variant; it
	// is accepted on submission but never counted as a success.
	DeliveryStatusPartial DeliveryStatus = "partial"
)

func (ds DeliveryStatus) String() string {
	return string(ds)
}

func (ds DeliveryStatus) IsValid() bool {
	switch ds {
	case DeliveryStatusDelivered, DeliveryStatusFailed, DeliveryStatusPartial:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status counts toward the success rate.
func (ds DeliveryStatus) IsSuccess() bool {
	return ds == DeliveryStatusDelivered
}

// RequiresFailureReason returns true if feedback with this status must carry
// a failure reason.
func (ds DeliveryStatus) RequiresFailureReason() bool {
	return ds == DeliveryStatusFailed
}

// CustomerBehavior is the driver's rating of the customer interaction.
type CustomerBehavior string

const (
	CustomerBehaviorCooperative   CustomerBehavior = "cooperative"
	CustomerBehaviorNeutral       CustomerBehavior = "neutral"
	CustomerBehaviorUncooperative CustomerBehavior = "uncooperative"
	CustomerBehaviorUnreachable   CustomerBehavior = "unreachable"
)

func (cb CustomerBehavior) IsValid() bool {
	switch cb {
	case CustomerBehaviorCooperative, CustomerBehaviorNeutral, CustomerBehaviorUncooperative, CustomerBehaviorUnreachable:
		return true
	default:
		return false
	}
}

// AttemptStatus tracks an alternate delivery attempt.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusCompleted  AttemptStatus = "completed"
)

func (as AttemptStatus) IsValid() bool {
	switch as {
	case AttemptStatusInProgress, AttemptStatusCompleted:
		return true
	default:
		return false
	}
}
