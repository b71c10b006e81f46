package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/consumibles-api/internal/application/dto"
	"github.com/jhoicas/consumibles-api/internal/domain"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
	"github.com/jhoicas/consumibles-api/internal/domain/inventory"
	"github.com/jhoicas/consumibles-api/internal/domain/period"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
)

var urgency = map[string]int{
	inventory.StatusNoStock: 0,
	inventory.StatusReorder: 1,
	inventory.StatusInStock: 2,
}

// ProjectInventory calcula stock, estado y reposición sugerida de los artículos activos.
// Con periodID vacío la proyección es a hoy; con período, al último día del período
// (los movimientos posteriores no cuentan y la ventana de velocidad termina ese día).
func (uc *UseCase) ProjectInventory(ctx context.Context, periodID string) (*dto.InventoryProjectionDTO, error) {
	asOf := uc.now()
	if periodID != "" {
		p, err := period.Parse(periodID)
		if err != nil {
			return nil, domain.Invalid("period", err.Error())
		}
		_, end := p.Bounds()
		asOf = end
		periodID = p.String()
	}
	until := period.DateOnly(asOf)

	var (
		articles []*entity.Article
		movs     []*entity.Movement
		version  int64
	)
	err := uc.tx.Snapshot(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if articles, err = tx.Articles().List(ctx, true); err != nil {
			return err
		}
		if movs, err = tx.Movements().List(ctx, repository.MovementFilter{Until: &until}); err != nil {
			return err
		}
		version, err = tx.Movements().Version(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	bySKU := make(map[string][]*entity.Movement, len(articles))
	for _, m := range movs {
		bySKU[m.SKU] = append(bySKU[m.SKU], m)
	}

	items := make([]dto.InventoryItemDTO, 0, len(articles))
	for _, a := range articles {
		st := uc.projector.Project(a, bySKU[a.SKU], asOf)
		items = append(items, dto.InventoryItemDTO{
			SKU:              st.SKU,
			Name:             st.Name,
			Unit:             st.Unit,
			Supplier:         st.Supplier,
			Stock:            st.Stock,
			SafetyStock:      st.SafetyStock,
			Status:           st.Status,
			WeeklyVelocity:   st.WeeklyVelocity,
			LeadTimeDays:     st.LeadTimeDays,
			TargetStock:      st.TargetStock,
			SuggestedReorder: st.SuggestedReorder,
		})
	}

	// Primero los agotados, luego los que hay que reponer; a igual estado, mayor reposición sugerida.
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if urgency[a.Status] != urgency[b.Status] {
			return urgency[a.Status] < urgency[b.Status]
		}
		if !a.SuggestedReorder.Equal(b.SuggestedReorder) {
			return a.SuggestedReorder.GreaterThan(b.SuggestedReorder)
		}
		return a.SKU < b.SKU
	})

	return &dto.InventoryProjectionDTO{
		Period:   periodID,
		AsOf:     asOf,
		Snapshot: dto.SnapshotDTO{Version: version, TakenAt: uc.now()},
		Items:    items,
	}, nil
}
