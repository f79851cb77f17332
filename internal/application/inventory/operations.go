package inventory

import (
	"context"

	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	rules "github.com/jhoicas/almacen-ledger/internal/domain/inventory"
)

// Operation es una de las primitivas del ledger: Receive, Issue, Transfer, Adjust, Reserve o Release.
// El conjunto es cerrado (métodos no exportados); se aplican con LedgerUseCase.Apply.
type Operation interface {
	Kind() string
	enterprise() int64
	validate() error
	keys() []entity.LocationKey
	apply(ctx context.Context, s *session) error
}

// Nombres de operación (también usados como etiqueta de métricas).
const (
	KindReceive  = "receive"
	KindIssue    = "issue"
	KindTransfer = "transfer"
	KindAdjust   = "adjust"
	KindReserve  = "reserve"
	KindRelease  = "release"
	KindBatch    = "batch"
)

// Receive entrada de stock a una ubicación (crea el registro si no existe).
type Receive struct {
	EnterpriseID int64
	Location     entity.LocationKey
	Quantity     int64
	Actor        int64
	ReferenceID  string
	Comment      string
}

// Issue salida de stock; acotada por el disponible (cantidad - reservado).
type Issue struct {
	EnterpriseID int64
	Location     entity.LocationKey
	Quantity     int64
	Actor        int64
	ReferenceID  string
	Comment      string
}

// Transfer traslado entre dos slots de la misma bodega; todo o nada.
type Transfer struct {
	EnterpriseID int64
	ProductID    int64
	WarehouseID  int64
	From         entity.Slot
	To           entity.Slot
	Quantity     int64
	Actor        int64
	ReferenceID  string
	Comment      string
}

// Adjust fija la cantidad física al conteo absoluto NewQuantity (inventario físico).
type Adjust struct {
	EnterpriseID int64
	Location     entity.LocationKey
	NewQuantity  int64
	Actor        int64
	ReferenceID  string
	Comment      string
}

// Reserve compromete stock disponible para un pedido en curso. No genera movimiento.
type Reserve struct {
	EnterpriseID int64
	Location     entity.LocationKey
	Quantity     int64
}

// Release libera stock reservado. No genera movimiento.
type Release struct {
	EnterpriseID int64
	Location     entity.LocationKey
	Quantity     int64
}

func (Receive) Kind() string  { return KindReceive }
func (Issue) Kind() string    { return KindIssue }
func (Transfer) Kind() string { return KindTransfer }
func (Adjust) Kind() string   { return KindAdjust }
func (Reserve) Kind() string  { return KindReserve }
func (Release) Kind() string  { return KindRelease }

func (o Receive) enterprise() int64  { return o.EnterpriseID }
func (o Issue) enterprise() int64    { return o.EnterpriseID }
func (o Transfer) enterprise() int64 { return o.EnterpriseID }
func (o Adjust) enterprise() int64   { return o.EnterpriseID }
func (o Reserve) enterprise() int64  { return o.EnterpriseID }
func (o Release) enterprise() int64  { return o.EnterpriseID }

func (o Transfer) source() entity.LocationKey {
	return o.From.Key(o.ProductID, o.WarehouseID)
}

func (o Transfer) destination() entity.LocationKey {
	return o.To.Key(o.ProductID, o.WarehouseID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación (antes de abrir la transacción)
// ──────────────────────────────────────────────────────────────────────────────

func validateMovement(enterpriseID int64, key entity.LocationKey, qty int64) error {
	if enterpriseID <= 0 {
		return domain.Invalid("enterprise_id requerido")
	}
	return validateLocation(key, qty)
}

func validateLocation(key entity.LocationKey, qty int64) error {
	if !key.Valid() {
		return domain.Invalid("ubicación inválida %s", key)
	}
	if qty <= 0 {
		return domain.Invalid("la cantidad debe ser mayor que cero, recibido %d", qty)
	}
	return nil
}

func (o Receive) validate() error { return validateMovement(o.EnterpriseID, o.Location, o.Quantity) }
func (o Issue) validate() error   { return validateMovement(o.EnterpriseID, o.Location, o.Quantity) }
func (o Reserve) validate() error { return validateMovement(o.EnterpriseID, o.Location, o.Quantity) }
func (o Release) validate() error { return validateMovement(o.EnterpriseID, o.Location, o.Quantity) }

func (o Transfer) validate() error {
	if err := validateMovement(o.EnterpriseID, o.source(), o.Quantity); err != nil {
		return err
	}
	if !o.destination().Valid() {
		return domain.Invalid("ubicación destino inválida %s", o.destination())
	}
	if o.From == o.To {
		return domain.Invalid("origen y destino son la misma ubicación %s", o.source())
	}
	return nil
}

func (o Adjust) validate() error {
	if o.EnterpriseID <= 0 {
		return domain.Invalid("enterprise_id requerido")
	}
	if !o.Location.Valid() {
		return domain.Invalid("ubicación inválida %s", o.Location)
	}
	if o.NewQuantity < 0 {
		return domain.Invalid("el conteo no puede ser negativo, recibido %d", o.NewQuantity)
	}
	return nil
}

func (o Receive) keys() []entity.LocationKey  { return []entity.LocationKey{o.Location} }
func (o Issue) keys() []entity.LocationKey    { return []entity.LocationKey{o.Location} }
func (o Adjust) keys() []entity.LocationKey   { return []entity.LocationKey{o.Location} }
func (o Reserve) keys() []entity.LocationKey  { return []entity.LocationKey{o.Location} }
func (o Release) keys() []entity.LocationKey  { return []entity.LocationKey{o.Location} }
func (o Transfer) keys() []entity.LocationKey { return []entity.LocationKey{o.source(), o.destination()} }

// ──────────────────────────────────────────────────────────────────────────────
// Aplicación (dentro de la transacción, con las claves ya bloqueadas)
// ──────────────────────────────────────────────────────────────────────────────

func (o Receive) apply(ctx context.Context, s *session) error {
	if err := s.write(ctx, o.Location, entity.RecordDelta{Quantity: o.Quantity}); err != nil {
		return err
	}
	dest := o.Location.Slot()
	return s.appendMovement(ctx, &entity.InventoryMovement{
		EnterpriseID: o.EnterpriseID,
		ProductID:    o.Location.ProductID,
		WarehouseID:  o.Location.WarehouseID,
		Destination:  &dest,
		Quantity:     o.Quantity,
		Type:         entity.MovementTypeReceipt,
		ReferenceID:  o.ReferenceID,
		Comment:      o.Comment,
		Actor:        o.Actor,
	})
}

func (o Issue) apply(ctx context.Context, s *session) error {
	rec, err := s.get(ctx, o.Location)
	if err != nil {
		return err
	}
	if err := rules.CheckAvailable(o.Location, rec, o.Quantity); err != nil {
		return err
	}
	if err := s.write(ctx, o.Location, entity.RecordDelta{Quantity: -o.Quantity}); err != nil {
		return err
	}
	src := o.Location.Slot()
	return s.appendMovement(ctx, &entity.InventoryMovement{
		EnterpriseID: o.EnterpriseID,
		ProductID:    o.Location.ProductID,
		WarehouseID:  o.Location.WarehouseID,
		Source:       &src,
		Quantity:     o.Quantity,
		Type:         entity.MovementTypeIssue,
		ReferenceID:  o.ReferenceID,
		Comment:      o.Comment,
		Actor:        o.Actor,
	})
}

func (o Transfer) apply(ctx context.Context, s *session) error {
	srcKey, dstKey := o.source(), o.destination()
	rec, err := s.get(ctx, srcKey)
	if err != nil {
		return err
	}
	if err := rules.CheckAvailable(srcKey, rec, o.Quantity); err != nil {
		return err
	}
	// Resta en origen y suma en destino (misma transacción)
	if err := s.write(ctx, srcKey, entity.RecordDelta{Quantity: -o.Quantity}); err != nil {
		return err
	}
	if err := s.write(ctx, dstKey, entity.RecordDelta{Quantity: o.Quantity}); err != nil {
		return err
	}
	src, dst := o.From, o.To
	return s.appendMovement(ctx, &entity.InventoryMovement{
		EnterpriseID: o.EnterpriseID,
		ProductID:    o.ProductID,
		WarehouseID:  o.WarehouseID,
		Source:       &src,
		Destination:  &dst,
		Quantity:     o.Quantity,
		Type:         entity.MovementTypeTransfer,
		ReferenceID:  o.ReferenceID,
		Comment:      o.Comment,
		Actor:        o.Actor,
	})
}

func (o Adjust) apply(ctx context.Context, s *session) error {
	rec, err := s.get(ctx, o.Location)
	if err != nil {
		return err
	}
	delta, err := rules.AdjustDelta(o.Location, rec, o.NewQuantity)
	if err != nil {
		return err
	}
	if delta.IsZero() {
		return nil
	}
	if err := s.write(ctx, o.Location, delta); err != nil {
		return err
	}
	mov := &entity.InventoryMovement{
		EnterpriseID: o.EnterpriseID,
		ProductID:    o.Location.ProductID,
		WarehouseID:  o.Location.WarehouseID,
		Quantity:     delta.Quantity,
		Type:         entity.MovementTypeAdjustment,
		ReferenceID:  o.ReferenceID,
		Comment:      o.Comment,
		Actor:        o.Actor,
	}
	slot := o.Location.Slot()
	if delta.Quantity > 0 {
		mov.Destination = &slot
	} else {
		mov.Source = &slot
		mov.Quantity = -delta.Quantity
	}
	return s.appendMovement(ctx, mov)
}

func (o Reserve) apply(ctx context.Context, s *session) error {
	rec, err := s.get(ctx, o.Location)
	if err != nil {
		return err
	}
	if err := rules.CheckAvailable(o.Location, rec, o.Quantity); err != nil {
		return err
	}
	return s.write(ctx, o.Location, entity.RecordDelta{Reserved: o.Quantity})
}

func (o Release) apply(ctx context.Context, s *session) error {
	rec, err := s.get(ctx, o.Location)
	if err != nil {
		return err
	}
	if err := rules.CheckRelease(o.Location, rec, o.Quantity); err != nil {
		return err
	}
	return s.write(ctx, o.Location, entity.RecordDelta{Reserved: -o.Quantity})
}
