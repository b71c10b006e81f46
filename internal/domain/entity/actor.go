package entity

// Roles válidos. Supervisor y admin son roles elevados: reabren períodos
// y pueden cerrar omitiendo los desgloses ADR pendientes.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleOperador   = "operador"
)

// Actor usuario que ejecuta una acción (extraído del token).
type Actor struct {
	ID   string
	Name string
	Role string
}

// IsElevated indica si el rol puede reabrir períodos o forzar cierres.
func (a Actor) IsElevated() bool {
	return a.Role == RoleAdmin || a.Role == RoleSupervisor
}

// Label identificador legible para auditoría (closed_by, set_by...).
func (a Actor) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
