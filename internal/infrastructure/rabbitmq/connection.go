// Package rabbitmq publica los movimientos confirmados del ledger y atiende solicitudes
// de reserva/liberación que llegan por cola.
package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Conn conexión y canal AMQP compartidos por el publicador y los consumidores.
type Conn struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial abre la conexión y un canal.
func Dial(url string) (*Conn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	return &Conn{conn: conn, ch: ch}, nil
}

// Close cierra canal y conexión.
func (c *Conn) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
