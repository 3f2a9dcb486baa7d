package payment

// Result carries the settlement details delivered by the payment
// provider. TransactionID is the opaque settlement identifier recorded
// on the ticket; OrderID is the provider's order reference.
type Result struct {
	TransactionID string `json:"transaction_id"`
	OrderID       string `json:"order_id"`
	Status        string `json:"transaction_status"`
}

// SettlementID returns the identifier persisted on the ticket record,
// preferring the transaction id and falling back to the order id.
func (r Result) SettlementID() string {
	if r.TransactionID != "" {
		return r.TransactionID
	}
	return r.OrderID
}

// Callbacks mirror the widget's contract: exactly one of them fires per
// Pay call. Nil callbacks are skipped.
type Callbacks struct {
	OnSuccess func(Result)
	OnPending func(Result)
	OnError   func(error)
	OnClose   func()
}

// Widget is the external payment entry point. The provider loads
// asynchronously and exposes no readiness signal beyond the flag, so
// Ready must be checked at the moment of use.
type Widget interface {
	Ready() bool
	Pay(token string, cb Callbacks)
}
