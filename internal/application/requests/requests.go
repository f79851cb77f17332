// Package requests completa solicitudes de almacén (abastecimiento, traslado, conteo y baja)
// traduciéndolas a operaciones del ledger que se confirman en una sola transacción.
package requests

import (
	"context"
	"fmt"

	"github.com/jhoicas/almacen-ledger/internal/application/inventory"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
)

// Kind tipo de solicitud.
type Kind string

const (
	KindSupply         Kind = "SUPPLY"
	KindTransfer       Kind = "TRANSFER"
	KindInventoryCount Kind = "INVENTORY_COUNT"
	KindWriteOff       Kind = "WRITE_OFF"
)

// Request solicitud completable. El conjunto es cerrado: SupplyRequest, TransferRequest,
// InventoryCountRequest y WriteOffRequest.
type Request interface {
	RequestID() string
	Kind() Kind
	operations(enterpriseID, actor int64) []inventory.Operation
}

// Line línea de abastecimiento o baja.
type Line struct {
	ProductID int64
	Slot      entity.Slot
	Quantity  int64
}

// TransferLine línea de traslado entre slots de la bodega de la solicitud.
type TransferLine struct {
	ProductID int64
	From      entity.Slot
	To        entity.Slot
	Quantity  int64
}

// CountLine resultado del conteo físico de una ubicación.
type CountLine struct {
	ProductID       int64
	Slot            entity.Slot
	CountedQuantity int64
}

// SupplyRequest abastecimiento: cada línea es una entrada (RECEIPT).
type SupplyRequest struct {
	ID          string
	WarehouseID int64
	Lines       []Line
}

// TransferRequest traslado interno: cada línea es un TRANSFER.
type TransferRequest struct {
	ID          string
	WarehouseID int64
	Lines       []TransferLine
}

// InventoryCountRequest conteo físico: cada línea es un ajuste al valor contado.
type InventoryCountRequest struct {
	ID          string
	WarehouseID int64
	Lines       []CountLine
}

// WriteOffRequest baja de mercancía (daño, vencimiento): cada línea es una salida (ISSUE).
type WriteOffRequest struct {
	ID          string
	WarehouseID int64
	Reason      string
	Lines       []Line
}

func (r SupplyRequest) RequestID() string         { return r.ID }
func (r TransferRequest) RequestID() string       { return r.ID }
func (r InventoryCountRequest) RequestID() string { return r.ID }
func (r WriteOffRequest) RequestID() string       { return r.ID }

func (SupplyRequest) Kind() Kind         { return KindSupply }
func (TransferRequest) Kind() Kind       { return KindTransfer }
func (InventoryCountRequest) Kind() Kind { return KindInventoryCount }
func (WriteOffRequest) Kind() Kind       { return KindWriteOff }

func (r SupplyRequest) operations(enterpriseID, actor int64) []inventory.Operation {
	ops := make([]inventory.Operation, 0, len(r.Lines))
	for _, l := range r.Lines {
		ops = append(ops, inventory.Receive{
			EnterpriseID: enterpriseID,
			Location:     l.Slot.Key(l.ProductID, r.WarehouseID),
			Quantity:     l.Quantity,
			Actor:        actor,
			ReferenceID:  r.ID,
		})
	}
	return ops
}

func (r TransferRequest) operations(enterpriseID, actor int64) []inventory.Operation {
	ops := make([]inventory.Operation, 0, len(r.Lines))
	for _, l := range r.Lines {
		ops = append(ops, inventory.Transfer{
			EnterpriseID: enterpriseID,
			ProductID:    l.ProductID,
			WarehouseID:  r.WarehouseID,
			From:         l.From,
			To:           l.To,
			Quantity:     l.Quantity,
			Actor:        actor,
			ReferenceID:  r.ID,
		})
	}
	return ops
}

func (r InventoryCountRequest) operations(enterpriseID, actor int64) []inventory.Operation {
	ops := make([]inventory.Operation, 0, len(r.Lines))
	for _, l := range r.Lines {
		ops = append(ops, inventory.Adjust{
			EnterpriseID: enterpriseID,
			Location:     l.Slot.Key(l.ProductID, r.WarehouseID),
			NewQuantity:  l.CountedQuantity,
			Actor:        actor,
			ReferenceID:  r.ID,
			Comment:      "conteo físico",
		})
	}
	return ops
}

func (r WriteOffRequest) operations(enterpriseID, actor int64) []inventory.Operation {
	ops := make([]inventory.Operation, 0, len(r.Lines))
	for _, l := range r.Lines {
		ops = append(ops, inventory.Issue{
			EnterpriseID: enterpriseID,
			Location:     l.Slot.Key(l.ProductID, r.WarehouseID),
			Quantity:     l.Quantity,
			Actor:        actor,
			ReferenceID:  r.ID,
			Comment:      r.Reason,
		})
	}
	return ops
}

// Ledger aplica un lote de operaciones de forma atómica.
type Ledger interface {
	Apply(ctx context.Context, ops ...inventory.Operation) (*inventory.Result, error)
}

// Completer completa solicitudes contra el ledger.
type Completer struct {
	ledger Ledger
}

// NewCompleter construye el caso de uso.
func NewCompleter(ledger Ledger) *Completer {
	return &Completer{ledger: ledger}
}

// Complete aplica todas las líneas de la solicitud en una única transacción: si una línea
// falla (stock insuficiente, ubicación inválida) ninguna queda aplicada.
func (c *Completer) Complete(ctx context.Context, enterpriseID, actor int64, req Request) (*inventory.Result, error) {
	if req == nil {
		return nil, domain.Invalid("solicitud vacía")
	}
	if req.RequestID() == "" {
		return nil, domain.Invalid("la solicitud requiere id")
	}
	ops := req.operations(enterpriseID, actor)
	if len(ops) == 0 {
		return nil, domain.Invalid("la solicitud %s no tiene líneas", req.RequestID())
	}
	res, err := c.ledger.Apply(ctx, ops...)
	if err != nil {
		return nil, fmt.Errorf("completar solicitud %s (%s): %w", req.RequestID(), req.Kind(), err)
	}
	return res, nil
}
