package constants

const (
	// HTTP Headers
	HeaderXRequestID = "X-Request-ID"
	HeaderXSignature = "X-Signature"

	// Context keys
	ContextKeyRequestID = "request_id"

	// Database table names
	TableEntitlements     = "entitlements"
	TablePlans            = "plans"
	TableNotificationLogs = "notification_logs"

	// Default values
	DefaultCurrency = "MXN"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
)
