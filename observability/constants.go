package observability

// Metric name prefix
const MetricPrefix = "lotto"

// Metric names
const (
	EntriesTotal             = MetricPrefix + ".entries_total"
	PayoutsTotal             = MetricPrefix + ".payouts_total"
	StakeWeiTotal            = MetricPrefix + ".stake_wei_total"
	PayoutWeiTotal           = MetricPrefix + ".payout_wei_total"
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"
	OperationFailuresTotal   = MetricPrefix + ".operation_failures_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelOperation = "operation"
	LabelReason    = "reason"
)

// Failure reasons
const (
	ReasonInsufficientStake = "insufficient_stake"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonUnauthorized      = "unauthorized"
	ReasonEmptyPool         = "empty_pool"
	ReasonTransferFailure   = "transfer_failure"
	ReasonNotDeployed       = "not_deployed"
	ReasonOther             = "other"
)
