package checkout

import (
	"fmt"
	"strings"

	"github.com/facebookgo/clock"

	"storefront-order-engine/delivery"
	"storefront-order-engine/models"
)

// Assembler validates a checkout and freezes it into an Order.
type Assembler struct {
	clock clock.Clock
}

// NewAssembler uses the wall clock when clk is nil.
func NewAssembler(clk clock.Clock) *Assembler {
	if clk == nil {
		clk = clock.New()
	}
	return &Assembler{clock: clk}
}

// Assemble returns an Order in PLACED status, or a *ValidationError listing
// every problem. A nil quote means the flat default delivery fee.
func (a *Assembler) Assemble(
	snap models.CartSnapshot,
	quote *models.DeliveryQuote,
	payment models.PaymentSelection,
	customer models.Customer,
	addr models.Address,
	notes string) (*models.Order, error) {

	if err := validate(snap, payment, customer, addr); err != nil {
		return nil, err
	}

	items := make([]models.LineItem, len(snap.Items))
	copy(items, snap.Items)

	now := a.clock.Now()
	fee := delivery.FeeOrDefault(quote)

	order := &models.Order{
		ID:                  orderIDs.next(now),
		PlacedAt:            now,
		Items:               items,
		Subtotal:            snap.Subtotal,
		DeliveryFee:         fee,
		Total:               snap.Subtotal.Add(fee),
		Payment:             normalizePayment(payment),
		Customer:            trimCustomer(customer),
		Address:             addr,
		DeliveryAddressText: FormatAddress(addr),
		Notes:               strings.TrimSpace(notes),
		Status:              models.OrderStatusPlaced,
	}
	if quote != nil {
		order.DistanceKm = quote.DistanceKm
		order.EstimatedHours = quote.EstimatedHours
	}
	return order, nil
}

// FormatAddress joins the non-empty address parts into one line.
func FormatAddress(addr models.Address) string {
	parts := []string{addr.Line1, addr.Line2, addr.City, addr.State, addr.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	line := strings.Join(out, ", ")
	if zip := strings.TrimSpace(addr.Zip); zip != "" {
		line = fmt.Sprintf("%s - %s", line, zip)
	}
	return line
}

func normalizePayment(p models.PaymentSelection) models.PaymentSelection {
	if p.Method != models.PaymentUPI {
		return models.PaymentSelection{Method: p.Method}
	}
	return models.PaymentSelection{Method: p.Method, Detail: strings.TrimSpace(p.Detail)}
}

func trimCustomer(c models.Customer) models.Customer {
	return models.Customer{
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Email:     strings.TrimSpace(c.Email),
		Mobile:    strings.TrimSpace(c.Mobile),
	}
}
