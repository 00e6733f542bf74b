package constants

const (
	ROLE_USER      = "USER"
	ROLE_MODERATOR = "MODERATOR"
	ROLE_ADMIN     = "ADMIN"
)

// Order statuses
const (
	ORDER_PENDING  = "Pending"
	ORDER_PAID     = "Paid"
	ORDER_CANCELED = "Canceled"
)

// Payment statuses
const (
	PAYMENT_SUCCESSFUL = "Successful"
	PAYMENT_CANCELED   = "Canceled"
	PAYMENT_REFUNDED   = "Refunded"
)

// Permissions checked by middleware.RequirePermission
const (
	PERM_CATALOG_WRITE    = "catalog:write"
	PERM_CARTS_BROWSE_ALL = "carts:browse-all"
	PERM_ORDERS_BROWSE    = "orders:browse-all"
	PERM_PAYMENTS_BROWSE  = "payments:browse-all"
)

const (
	DATA_INPUT_IS_NOT_NUMBER = "Input is not a valid number"
	ERROR_INTERNAL_ERROR     = "Internal server error"
)
