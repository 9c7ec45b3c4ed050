package constants

// Roles carried in the access token.
const (
	ROLE_USER      = "user"
	ROLE_ADMIN     = "admin"
	ROLE_SUPERUSER = "superuser"
)

// Error codes returned in the "error" field of failed responses.
const (
	INVALID_FORMAT          = "INVALID_FORMAT"
	INVALID_AMOUNT          = "INVALID_AMOUNT"
	NOT_FOUND               = "NOT_FOUND"
	FORBIDDEN               = "FORBIDDEN"
	UNAUTHORIZED            = "UNAUTHORIZED"
	OUT_OF_SALE_WINDOW      = "OUT_OF_SALE_WINDOW"
	SOLD_OUT                = "SOLD_OUT"
	ORDER_EXPIRED           = "ORDER_EXPIRED"
	SIGNATURE_INVALID       = "SIGNATURE_INVALID"
	INVALID_QR_FORMAT       = "INVALID_QR_FORMAT"
	INVALID_UUID_FORMAT     = "INVALID_UUID_FORMAT"
	ORDER_NOT_FOUND         = "ORDER_NOT_FOUND"
	PAYMENT_NOT_FOUND       = "PAYMENT_NOT_FOUND"
	INVALID_ORDER_STATUS    = "INVALID_ORDER_STATUS"
	INSUFFICIENT_PERMISSION = "INSUFFICIENT_PERMISSION"
	TICKET_NOT_FOUND        = "TICKET_NOT_FOUND"
	TICKET_ALREADY_USED     = "TICKET_ALREADY_USED"
	TICKET_REFUNDED         = "TICKET_REFUNDED"
	INVALID_TICKET_STATUS   = "INVALID_TICKET_STATUS"
	TOO_EARLY_TO_VERIFY     = "TOO_EARLY_TO_VERIFY"
	REFUND_NOT_ALLOWED      = "REFUND_NOT_ALLOWED"
	REFUND_FAILED           = "REFUND_FAILED"
	SYSTEM_ERROR            = "SYSTEM_ERROR"
)

// Prefix of the credential encoded in a ticket QR code.
const TICKET_CREDENTIAL_PREFIX = "TICKET"

// Redis channel prefixes for inventory and order events.
const (
	CHANNEL_TICKET_TYPE = "ticket_type:"
	CHANNEL_ORDER       = "order:"
)
