package audithook

// Action constants for audit events.
const (
	// Contract actions
	ActionContractCreated = "contract.created"
	ActionTierCreated     = "tier.created"

	// Subscription actions
	ActionSubscribed       = "subscriber.subscribed"
	ActionUnsubscribed     = "subscriber.unsubscribed"
	ActionSubscriberLapsed = "subscriber.lapsed"

	// Billing actions
	ActionPaymentSent         = "payment.sent"
	ActionChargeFailed        = "payment.charge_failed"
	ActionSettlementCompleted = "settlement.completed"
	ActionPaymentsFlushed     = "payments.flushed"
)

// Resource constants for audit events.
const (
	ResourceContract   = "contract"
	ResourceTier       = "tier"
	ResourceSubscriber = "subscriber"
	ResourcePayment    = "payment"
	ResourceSettlement = "settlement"
)

// Category constants for audit events.
const (
	CategoryBilling      = "billing"
	CategorySubscription = "subscription"
	CategoryPayment      = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
