package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
	"github.com/jhoicas/almacen-ledger/pkg/logger"
)

// LedgerUseCase coordina las primitivas del ledger de inventario. Cada llamada a Apply es una
// única transacción: bloquea las ubicaciones en orden, valida invariantes, escribe registros,
// agrega movimientos y hace Commit, o no deja nada aplicado.
type LedgerUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	publisher   MovementPublisher
	metrics     Metrics
	log         *logger.Logger
	clock       func() time.Time
}

// Option configura dependencias opcionales del ledger.
type Option func(*LedgerUseCase)

// WithPublisher notifica los movimientos confirmados (ej. RabbitMQ).
func WithPublisher(p MovementPublisher) Option {
	return func(uc *LedgerUseCase) { uc.publisher = p }
}

// WithMetrics registra duración y resultado de cada operación.
func WithMetrics(m Metrics) Option {
	return func(uc *LedgerUseCase) { uc.metrics = m }
}

// WithLogger inyecta el logger de la aplicación.
func WithLogger(l *logger.Logger) Option {
	return func(uc *LedgerUseCase) { uc.log = l.Named("ledger") }
}

// WithClock reemplaza el reloj (tests).
func WithClock(clock func() time.Time) Option {
	return func(uc *LedgerUseCase) { uc.clock = clock }
}

// NewLedgerUseCase construye el coordinador del ledger. productRepo resuelve a qué empresa
// pertenece cada producto tocado.
func NewLedgerUseCase(txRunner TxRunner, productRepo repository.ProductRepository, opts ...Option) *LedgerUseCase {
	uc := &LedgerUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		publisher:   noopPublisher{},
		metrics:     noopMetrics{},
		log:         logger.Nop(),
		clock:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Result resultado de una llamada confirmada al ledger.
type Result struct {
	OperationID string
	Movements   []*entity.InventoryMovement
	// Records estado final de las ubicaciones tocadas que siguen existiendo, ordenadas por clave.
	Records []*entity.InventoryRecord
	// Collected ubicaciones eliminadas por quedar en (0,0).
	Collected []entity.LocationKey
}

// Record devuelve el estado final de una ubicación tocada, o nil si no existe.
func (r *Result) Record(key entity.LocationKey) *entity.InventoryRecord {
	for _, rec := range r.Records {
		if rec.Key == key {
			return rec
		}
	}
	return nil
}

// Apply ejecuta las operaciones como una sola transacción atómica.
// Toda validación de entrada, incluida la pertenencia de cada producto a la empresa de la
// operación, ocurre antes de abrir la transacción. No reintenta:
// un domain.ErrConflict se devuelve al llamador, que decide si repetir la operación.
func (uc *LedgerUseCase) Apply(ctx context.Context, ops ...Operation) (*Result, error) {
	kind := batchKind(ops)
	if len(ops) == 0 {
		return nil, domain.Invalid("no hay operaciones para aplicar")
	}
	for _, op := range ops {
		if op == nil {
			return nil, domain.Invalid("operación nula")
		}
		if err := op.validate(); err != nil {
			uc.metrics.ObserveOperation(kind, outcome(err), 0)
			return nil, err
		}
	}
	if err := uc.authorize(ctx, ops); err != nil {
		uc.metrics.ObserveOperation(kind, outcome(err), 0)
		uc.log.Warn().Err(err).Str("kind", kind).Msg("operación de inventario rechazada")
		return nil, err
	}

	keys := lockOrder(ops)
	started := time.Now()
	res := &Result{OperationID: uuid.New().String()}

	err := uc.txRunner.Run(ctx, func(
		records repository.InventoryRecordRepository,
		movements repository.InventoryMovementRepository,
	) error {
		if err := records.Lock(ctx, keys); err != nil {
			return err
		}
		s := newSession(records, movements, res.OperationID, uc.clock())
		for _, op := range ops {
			if err := op.apply(ctx, s); err != nil {
				return err
			}
		}
		res.Movements = s.appended
		res.Records, res.Collected = s.result()
		return nil
	})
	elapsed := time.Since(started)
	uc.metrics.ObserveOperation(kind, outcome(err), elapsed)

	if err != nil {
		ev := uc.log.Warn()
		if errors.Is(err, domain.ErrStoreUnavailable) || outcome(err) == "error" {
			ev = uc.log.Error()
		}
		ev.Err(err).
			Str("operation_id", res.OperationID).
			Str("kind", kind).
			Int("locations", len(keys)).
			Msg("operación de inventario rechazada")
		return nil, err
	}

	uc.log.Debug().
		Str("operation_id", res.OperationID).
		Str("kind", kind).
		Int("movements", len(res.Movements)).
		Dur("elapsed", elapsed).
		Msg("operación de inventario confirmada")

	if len(res.Movements) > 0 {
		// El Commit ya ocurrió: un fallo al notificar no deshace la operación.
		if perr := uc.publisher.PublishMovements(ctx, res.Movements); perr != nil {
			uc.log.Warn().Err(perr).Str("operation_id", res.OperationID).Msg("no se pudieron publicar los movimientos")
		}
	}
	return res, nil
}

// Receive registra una entrada (RECEIPT) y devuelve su movimiento.
func (uc *LedgerUseCase) Receive(ctx context.Context, in Receive) (*entity.InventoryMovement, error) {
	return uc.applyOne(ctx, in)
}

// Issue registra una salida (ISSUE) acotada por el disponible.
func (uc *LedgerUseCase) Issue(ctx context.Context, in Issue) (*entity.InventoryMovement, error) {
	return uc.applyOne(ctx, in)
}

// Transfer traslada stock entre dos slots de una bodega (TRANSFER).
func (uc *LedgerUseCase) Transfer(ctx context.Context, in Transfer) (*entity.InventoryMovement, error) {
	return uc.applyOne(ctx, in)
}

// Adjust fija la cantidad a un conteo absoluto. Devuelve nil sin error si el conteo
// coincide con la cantidad actual (no hay movimiento que registrar).
func (uc *LedgerUseCase) Adjust(ctx context.Context, in Adjust) (*entity.InventoryMovement, error) {
	return uc.applyOne(ctx, in)
}

// Reserve incrementa el reservado de la ubicación y devuelve el registro resultante.
func (uc *LedgerUseCase) Reserve(ctx context.Context, in Reserve) (*entity.InventoryRecord, error) {
	res, err := uc.Apply(ctx, in)
	if err != nil {
		return nil, err
	}
	return res.Record(in.Location), nil
}

// Release decrementa el reservado de la ubicación y devuelve el registro resultante
// (nil si quedó en (0,0) y fue eliminado).
func (uc *LedgerUseCase) Release(ctx context.Context, in Release) (*entity.InventoryRecord, error) {
	res, err := uc.Apply(ctx, in)
	if err != nil {
		return nil, err
	}
	return res.Record(in.Location), nil
}

func (uc *LedgerUseCase) applyOne(ctx context.Context, op Operation) (*entity.InventoryMovement, error) {
	res, err := uc.Apply(ctx, op)
	if err != nil {
		return nil, err
	}
	if len(res.Movements) == 0 {
		return nil, nil
	}
	return res.Movements[0], nil
}

func batchKind(ops []Operation) string {
	if len(ops) == 1 && ops[0] != nil {
		return ops[0].Kind()
	}
	return KindBatch
}

// outcome etiqueta de resultado para métricas y logs.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
