package metrics

import "time"

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Event names
const (
	ClaimCreated    = "claim_created"
	ClaimAbandoned  = "claim_abandoned"
	ClaimRedeemed   = "claim_redeemed"
	ClaimNoRoute    = "claim_no_route"
	PaymentDerived  = "payment_derived"
	PaymentsScanned = "payments_scanned"
	PaymentOwned    = "payment_owned"
)
