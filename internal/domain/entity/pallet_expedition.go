package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PalletExpedition expedición registrada con su consumo de palés.
type PalletExpedition struct {
	ID               string
	Reference        string
	Date             time.Time
	Period           string
	ResultingPallets decimal.Decimal
	CreatedAt        time.Time
	CreatedBy        string
}
