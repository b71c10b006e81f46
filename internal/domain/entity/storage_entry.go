package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Procedimientos de salida de un contenedor almacenado.
const (
	ProcedureRecoger  = "RECOGER"
	ProcedureEnviar   = "ENVIAR"
	ProcedureDestruir = "DESTRUIR"
)

// Estados de una entrada de almacenaje.
const (
	StorageActive = "ACTIVE"
	StorageClosed = "CLOSED"
)

// StorageEntry contenedor en almacén facturable por días.
// Los días facturables se calculan; solo se persisten al cerrar el período (FinalizedDays).
type StorageEntry struct {
	ID               string
	ContainerID      string
	OrderNumbers     []string
	Provider         string
	EntryDate        time.Time
	BillingStartDate time.Time // EntryDate + días de carencia
	ExitDate         *time.Time
	Procedure        string
	Status           string
	FinalizedDays    *int
	FinalizedPeriod  string
	DailyRate        decimal.Decimal
	CreatedAt        time.Time
}
