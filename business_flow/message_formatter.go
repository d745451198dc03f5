package businessflow

import (
	"fmt"
	"strings"

	"github.com/amirphl/order-relay/app/dto"
)

const emptyProductsPlaceholder = "sin productos"

const orderMessageTemplate = "🛒 ¡Hola %s!\n" +
	"Gracias por tu pedido #%s en nuestra tienda ❤️\n\n" +
	"📦 Productos:\n%s\n\n" +
	"🏠 Dirección de entrega:\n%s\n\n" +
	"Te avisaremos cuando tu pedido esté en camino. ¡Gracias por confiar en nosotros! 🚚"

// FormatOrderMessage renders the customer notification for an order.
// Missing optional fields render empty; the result always contains the order id.
func FormatOrderMessage(event *dto.OrderEvent) string {
	if event == nil {
		event = &dto.OrderEvent{}
	}
	return fmt.Sprintf(orderMessageTemplate,
		customerName(event),
		event.ID.String(),
		productLines(event.LineItems),
		deliveryAddress(event.ShippingAddress),
	)
}

func customerName(event *dto.OrderEvent) string {
	if event.ShippingAddress != nil {
		if name := strings.TrimSpace(event.ShippingAddress.Name); name != "" {
			return name
		}
	}
	if event.Customer != nil {
		return strings.TrimSpace(event.Customer.FirstName + " " + event.Customer.LastName)
	}
	return ""
}

func productLines(items []dto.OrderLineItem) string {
	if len(items) == 0 {
		return emptyProductsPlaceholder
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("• %s x%d", item.Title, item.Quantity))
	}
	return strings.Join(lines, "\n")
}

func deliveryAddress(addr *dto.OrderAddress) string {
	if addr == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{addr.Address1, addr.City, addr.Zip, addr.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
