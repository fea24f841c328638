package enums

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// NoticeKind names the core event a notice reports.
type NoticeKind string

const (
	NoticeCartItemAdded      NoticeKind = "cart.item_added"
	NoticeCartUnavailable    NoticeKind = "cart.unavailable"
	NoticeCartStockLimit     NoticeKind = "cart.stock_limit_reached"
	NoticeCartItemUpdated    NoticeKind = "cart.item_updated"
	NoticeCartItemRemoved    NoticeKind = "cart.item_removed"
	NoticeCartCleared        NoticeKind = "cart.cleared"
	NoticeCheckoutCartEmpty  NoticeKind = "checkout.cart_empty"
	NoticeCheckoutInvalid    NoticeKind = "checkout.validation_failed"
	NoticeCheckoutStep       NoticeKind = "checkout.step_changed"
	NoticeCheckoutCompleted  NoticeKind = "checkout.completed"
	NoticeCheckoutShipping   NoticeKind = "checkout.shipping_method_changed"
	NoticePaymentUnavailable NoticeKind = "payment.provider_unavailable"
	NoticePaymentCreated     NoticeKind = "payment.order_created"
	NoticePaymentSucceeded   NoticeKind = "payment.succeeded"
	NoticePaymentFailed      NoticeKind = "payment.failed"
	NoticePaymentCancelled   NoticeKind = "payment.cancelled"
	NoticePaymentErrored     NoticeKind = "payment.errored"
	NoticePaymentStale       NoticeKind = "payment.order_stale"
)

// String implements fmt.Stringer.
func (k NoticeKind) String() string {
	return string(k)
}
