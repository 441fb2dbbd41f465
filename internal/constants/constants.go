package constants

// 购物车状态常量
const (
	CartStatusActive          = "active"
	CartStatusPendingShipment = "pending_shipment"
	CartStatusCompleted       = "completed"
	CartStatusCancelled       = "cancelled"
)

// 订单状态常量
const (
	OrderStatusUnpaid    = "unpaid"
	OrderStatusPartial   = "partial"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// 债务状态常量
const (
	DebtStatusPending = "pending"
	DebtStatusPartial = "partial"
	DebtStatusPaid    = "paid"
)

// 优惠券类型常量
const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

// 优惠券状态常量
const (
	CouponStatusActive   = "active"
	CouponStatusInactive = "inactive"
)

// 优惠券适用人群常量
const (
	CouponAudienceAll      = "all"
	CouponAudienceSpecific = "specific_users"
)

// 优惠券适用商品常量
const (
	CouponProductsAll      = "all"
	CouponProductsSpecific = "specific_products"
)

// 币种常量
const (
	CurrencyUSD = "USD"
	CurrencyTRY = "TRY"
	CurrencySYP = "SYP"
)

// 用户角色常量
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// 用户状态常量
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

// 编号前缀常量
const (
	CodePrefixCart     = "CRT"
	CodePrefixCustomer = "CUS"
	CodePrefixInvoice  = "INV"
)

// 设置键常量
const (
	SettingKeyCartConfig = "cart_config"

	SettingFieldLockWindowMinutes    = "cart_lock_duration_minutes"
	SettingFieldReminderWindowDays   = "cart_reminder_days"
	SettingFieldMaxCartItems         = "max_cart_items"
	SettingFieldReferenceCurrency    = "reference_currency"
	SettingFieldSettingsCacheMinutes = "settings_cache_minutes"
)

// 设置默认值常量
const (
	DefaultLockWindowMinutes  = 60
	DefaultReminderWindowDays = 3
	DefaultMaxCartItems       = 20
	DefaultReferenceCurrency  = CurrencyTRY
	SettingCacheTTLMinutes    = 5
)

// 通知类型常量
const (
	NotificationTypeItemLocked   = "cart_item_locked"
	NotificationTypeCartReminder = "cart_reminder"
	NotificationTypeCartSettled  = "cart_settled"
	NotificationTypeDebtPayment  = "debt_payment"
)

// 通知受众常量
const (
	NotificationAudienceAdmin = "admin"
	NotificationAudienceUser  = "user"
)

// 队列常量
const (
	QueueDefault = "default"

	TaskNotificationDeliver = "notification:deliver"
	TaskCartReminder        = "cart:reminder"
)

// 债务支付来源常量
const (
	DebtPaymentSourceDirect   = "direct"
	DebtPaymentSourceCheckout = "checkout_excess"
)
