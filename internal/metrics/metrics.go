package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	OrdersInserted  Counter
	OrdersCancelled Counter
	OrdersRejected  Counter
	Fills           Counter
	Hedges          Counter
	Disconnects     Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		OrdersInserted:  n,
		OrdersCancelled: n,
		OrdersRejected:  n,
		Fills:           n,
		Hedges:          n,
		Disconnects:     n,
	}
}
