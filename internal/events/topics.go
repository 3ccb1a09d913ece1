package events

// Topic constants for domain events emitted during a checkout session.
const (
	TopicCartUpdated   = "cart.updated"
	TopicCartCleared   = "cart.cleared"
	TopicCouponApplied = "coupon.applied"
	TopicSaleSubmitted = "sale.submitted"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicCartUpdated,
		TopicCartCleared,
		TopicCouponApplied,
		TopicSaleSubmitted,
	}
}
