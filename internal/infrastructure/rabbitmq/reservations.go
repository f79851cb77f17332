package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/almacen-ledger/internal/application/inventory"
	"github.com/jhoicas/almacen-ledger/pkg/logger"
)

// Ledger lo que el consumidor necesita del coordinador.
type Ledger interface {
	Apply(ctx context.Context, ops ...inventory.Operation) (*inventory.Result, error)
}

// ReservationHandler traduce solicitudes de reserva/liberación a una única llamada al ledger
// por pedido: todas las líneas quedan reservadas o ninguna.
type ReservationHandler struct {
	ledger Ledger
}

// NewReservationHandler construye el handler.
func NewReservationHandler(ledger Ledger) *ReservationHandler {
	return &ReservationHandler{ledger: ledger}
}

// Reserve aplica las reservas del pedido y devuelve el resultado a publicar.
func (h *ReservationHandler) Reserve(ctx context.Context, req ReservationRequest) ReservationResult {
	ops := make([]inventory.Operation, 0, len(req.Items))
	for _, it := range req.Items {
		ops = append(ops, inventory.Reserve{EnterpriseID: req.EnterpriseID, Location: it.key(), Quantity: it.Quantity})
	}
	return h.apply(ctx, req, ActionReserve, StateReserved, ops)
}

// Release libera las reservas del pedido y devuelve el resultado a publicar.
func (h *ReservationHandler) Release(ctx context.Context, req ReservationRequest) ReservationResult {
	ops := make([]inventory.Operation, 0, len(req.Items))
	for _, it := range req.Items {
		ops = append(ops, inventory.Release{EnterpriseID: req.EnterpriseID, Location: it.key(), Quantity: it.Quantity})
	}
	return h.apply(ctx, req, ActionRelease, StateReleased, ops)
}

func (h *ReservationHandler) apply(ctx context.Context, req ReservationRequest, action, okState string, ops []inventory.Operation) ReservationResult {
	res := ReservationResult{OrderID: req.OrderID, Action: action, State: okState}
	if _, err := h.ledger.Apply(ctx, ops...); err != nil {
		res.State = StateFailed
		res.Reason = err.Error()
	}
	return res
}

// QueueNames colas que atiende el consumidor.
type QueueNames struct {
	ReserveRequest string
	ReleaseRequest string
	ReserveResult  string
}

// Consumer conecta las colas AMQP con el ReservationHandler.
type Consumer struct {
	ch      *amqp.Channel
	queues  QueueNames
	handler *ReservationHandler
	log     *logger.Logger
}

// NewConsumer declara las colas (durables) y devuelve el consumidor.
func NewConsumer(c *Conn, queues QueueNames, handler *ReservationHandler, log *logger.Logger) (*Consumer, error) {
	for _, q := range []string{queues.ReserveRequest, queues.ReleaseRequest, queues.ReserveResult} {
		if _, err := c.ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declarar cola %s: %w", q, err)
		}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{ch: c.ch, queues: queues, handler: handler, log: log.Named("rabbitmq")}, nil
}

// Start arranca un worker por cola. Terminan cuando se cierra el canal o ctx se cancela.
func (c *Consumer) Start(ctx context.Context) error {
	reserves, err := c.ch.ConsumeWithContext(ctx, c.queues.ReserveRequest, "ledger-reserve-worker", false, false, false, false, nil)
	if err != nil {
		return err
	}
	releases, err := c.ch.ConsumeWithContext(ctx, c.queues.ReleaseRequest, "ledger-release-worker", false, false, false, false, nil)
	if err != nil {
		return err
	}
	go c.loop(ctx, reserves, c.onReserve)
	go c.loop(ctx, releases, c.onRelease)
	return nil
}

func (c *Consumer) loop(ctx context.Context, msgs <-chan amqp.Delivery, fn func(context.Context, ReservationRequest)) {
	for m := range msgs {
		var req ReservationRequest
		if err := json.Unmarshal(m.Body, &req); err != nil {
			c.log.Error().Err(err).Str("queue", m.RoutingKey).Msg("mensaje inválido")
			_ = m.Ack(false)
			continue
		}
		fn(ctx, req)
		_ = m.Ack(false)
	}
	c.log.Info().Msg("consumidor detenido")
}

func (c *Consumer) onReserve(ctx context.Context, req ReservationRequest) {
	c.publishResult(ctx, c.handler.Reserve(ctx, req))
}

func (c *Consumer) onRelease(ctx context.Context, req ReservationRequest) {
	c.publishResult(ctx, c.handler.Release(ctx, req))
}

// publishResult informa el resultado en la cola de resultados (exchange por defecto).
func (c *Consumer) publishResult(ctx context.Context, res ReservationResult) {
	ev := c.log.Info()
	if res.State == StateFailed {
		ev = c.log.Warn().Str("reason", res.Reason)
	}
	ev.Int64("order", res.OrderID).Str("action", res.Action).Str("state", res.State).Msg("solicitud de reserva procesada")

	body, err := json.Marshal(res)
	if err != nil {
		return
	}
	err = c.ch.PublishWithContext(ctx, "", c.queues.ReserveResult, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		c.log.Error().Err(err).Int64("order", res.OrderID).Msg("no se pudo publicar el resultado")
	}
}
