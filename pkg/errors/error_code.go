package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidIntent        ErrorCode = 102
	ErrCodeInvalidQuantity      ErrorCode = 103
	ErrCodeInvalidAction        ErrorCode = 104
	ErrCodeInvalidMode          ErrorCode = 105

	// Orchestration errors (200-299)
	ErrCodeAgentBusy       ErrorCode = 200
	ErrCodeNotRunning      ErrorCode = 201
	ErrCodeAgentNotFound   ErrorCode = 202
	ErrCodeSessionNotFound ErrorCode = 203
	ErrCodeCancelled       ErrorCode = 204
	ErrCodeDeadlineExpired ErrorCode = 205

	// Provisioning errors (300-399)
	ErrCodeProvisionFailed    ErrorCode = 300
	ErrCodeCapabilityRequired ErrorCode = 301
	ErrCodeBundleReleased     ErrorCode = 302

	// Trading errors (400-499)
	ErrCodeInsufficientFunds    ErrorCode = 400
	ErrCodeInsufficientHoldings ErrorCode = 401
	ErrCodeTradeFailed          ErrorCode = 402
	ErrCodeHoldingNotFound      ErrorCode = 403

	// Market data errors (500-599)
	ErrCodeMarketUnavailable     ErrorCode = 500
	ErrCodeMarketClosed          ErrorCode = 501
	ErrCodeTickerNotFound        ErrorCode = 502
	ErrCodeMarketDataFetchFailed ErrorCode = 503
	ErrCodeInvalidProvider       ErrorCode = 504

	// Persistence errors (600-699)
	ErrCodePersistenceFailed   ErrorCode = 600
	ErrCodeTransactionFailed   ErrorCode = 601
	ErrCodeSchemaInitFailed    ErrorCode = 602

	// External collaborator errors (700-799)
	ErrCodeExternalService ErrorCode = 700
	ErrCodeEngineFailed    ErrorCode = 701
)
