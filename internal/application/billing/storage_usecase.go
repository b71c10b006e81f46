package billing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/consumibles-api/internal/application/dto"
	"github.com/jhoicas/consumibles-api/internal/domain"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/period"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
)

// RegisterStorageEntry da de alta un contenedor en almacén. La facturación empieza
// tras los días de carencia configurados.
func (uc *UseCase) RegisterStorageEntry(ctx context.Context, in dto.StorageEntryRequest, actor entity.Actor) (*dto.StorageEntryResponse, error) {
	container := strings.TrimSpace(in.ContainerID)
	if container == "" {
		return nil, domain.Invalid("container_id", "obligatorio")
	}
	entry, err := period.ParseDate(in.EntryDate)
	if err != nil {
		return nil, domain.Invalid("entry_date", err.Error())
	}
	rate := uc.rates.StorageDailyRate
	if in.DailyRate != nil {
		if in.DailyRate.IsNegative() {
			return nil, domain.Invalid("daily_rate", "no puede ser negativa")
		}
		rate = *in.DailyRate
	}
	orders := make([]string, 0, len(in.OrderNumbers))
	for _, o := range in.OrderNumbers {
		if o = strings.TrimSpace(o); o != "" {
			orders = append(orders, o)
		}
	}

	e := &entity.StorageEntry{
		ID:               uuid.New().String(),
		ContainerID:      container,
		OrderNumbers:     orders,
		Provider:         strings.TrimSpace(in.Provider),
		EntryDate:        entry,
		BillingStartDate: entry.AddDate(0, 0, uc.rates.StorageGraceDays),
		Status:           entity.StorageActive,
		DailyRate:        rate,
		CreatedAt:        uc.now(),
	}
	p := period.Of(e.BillingStartDate)
	err = uc.tx.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := lockOpenPeriod(ctx, tx, p); err != nil {
			return err
		}
		return tx.Storage().Create(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("id", e.ID).Str("container", container).Str("actor", actor.Label()).Msg("entrada de almacenaje registrada")
	return toStorageResponse(e), nil
}

// RegisterStorageExit registra la salida de un contenedor.
func (uc *UseCase) RegisterStorageExit(ctx context.Context, id string, in dto.StorageExitRequest, actor entity.Actor) (*dto.StorageEntryResponse, error) {
	exit, err := period.ParseDate(in.ExitDate)
	if err != nil {
		return nil, domain.Invalid("exit_date", err.Error())
	}
	procedure := strings.ToUpper(strings.TrimSpace(in.Procedure))
	switch procedure {
	case entity.ProcedureRecoger, entity.ProcedureEnviar, entity.ProcedureDestruir:
	default:
		return nil, domain.Invalid("procedure", "debe ser RECOGER, ENVIAR o DESTRUIR")
	}

	var e *entity.StorageEntry
	err = uc.tx.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := lockOpenPeriod(ctx, tx, period.Of(exit)); err != nil {
			return err
		}
		var err error
		if e, err = tx.Storage().Get(ctx, id); err != nil {
			return err
		}
		if e == nil {
			return domain.NotFound("storage", id)
		}
		if e.Status == entity.StorageClosed {
			return domain.Invalid("exit_date", "el contenedor ya tiene salida registrada")
		}
		if exit.Before(e.EntryDate) {
			return domain.Invalid("exit_date", "anterior a la fecha de entrada")
		}
		e.ExitDate = &exit
		e.Procedure = procedure
		e.Status = entity.StorageClosed
		return tx.Storage().Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("id", id).Str("procedure", procedure).Str("actor", actor.Label()).Msg("salida de almacenaje registrada")
	return toStorageResponse(e), nil
}

// RegisterPalletExpedition registra una expedición con su consumo de palés.
func (uc *UseCase) RegisterPalletExpedition(ctx context.Context, in dto.PalletExpeditionRequest, actor entity.Actor) (*dto.PalletExpeditionResponse, error) {
	ref := strings.TrimSpace(in.Reference)
	if ref == "" {
		return nil, domain.Invalid("reference", "obligatoria")
	}
	date, err := period.ParseDate(in.Date)
	if err != nil {
		return nil, domain.Invalid("date", err.Error())
	}
	if in.ResultingPallets.LessThanOrEqual(decimal.Zero) {
		return nil, domain.Invalid("resulting_pallets", "debe ser mayor que cero")
	}
	x := &entity.PalletExpedition{
		ID:               uuid.New().String(),
		Reference:        ref,
		Date:             date,
		Period:           period.Of(date).String(),
		ResultingPallets: in.ResultingPallets,
		CreatedAt:        uc.now(),
		CreatedBy:        actor.Label(),
	}
	err = uc.tx.Run(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := lockOpenPeriod(ctx, tx, period.ID(x.Period)); err != nil {
			return err
		}
		return tx.Pallets().Create(ctx, x)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("reference", ref).Str("period", x.Period).Str("pallets", x.ResultingPallets.String()).Msg("expedición de palés registrada")
	return &dto.PalletExpeditionResponse{
		ID:               x.ID,
		Reference:        x.Reference,
		Date:             x.Date,
		Period:           x.Period,
		ResultingPallets: x.ResultingPallets,
	}, nil
}

func toStorageResponse(e *entity.StorageEntry) *dto.StorageEntryResponse {
	return &dto.StorageEntryResponse{
		ID:               e.ID,
		ContainerID:      e.ContainerID,
		OrderNumbers:     e.OrderNumbers,
		Provider:         e.Provider,
		EntryDate:        e.EntryDate,
		BillingStartDate: e.BillingStartDate,
		ExitDate:         e.ExitDate,
		Procedure:        e.Procedure,
		Status:           e.Status,
		DailyRate:        e.DailyRate,
		FinalizedDays:    e.FinalizedDays,
	}
}
