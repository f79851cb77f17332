package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
)

// MovementPublisher publica cada movimiento confirmado en un exchange topic.
// Implementa inventory.MovementPublisher.
type MovementPublisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// NewMovementPublisher declara el exchange (durable, topic) y devuelve el publicador.
func NewMovementPublisher(c *Conn, exchange string) (*MovementPublisher, error) {
	if err := c.ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declarar exchange %s: %w", exchange, err)
	}
	return &MovementPublisher{ch: c.ch, exchange: exchange}, nil
}

// PublishMovements publica los movimientos en orden. Se detiene en el primer error.
func (p *MovementPublisher) PublishMovements(ctx context.Context, movements []*entity.InventoryMovement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range movements {
		body, err := json.Marshal(movementEvent(m))
		if err != nil {
			return err
		}
		err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(m.Type), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    fmt.Sprintf("%s-%d", m.OperationID, m.ID),
			Timestamp:    m.CreatedAt,
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publicar movimiento %d: %w", m.ID, err)
		}
	}
	return nil
}
