package services

import (
	"promptcoach/config"
	"promptcoach/models"
)

// RoleCatalog is the immutable set of training roles, in display order.
type RoleCatalog struct {
	order []string
	roles map[string]models.Role
}

func NewRoleCatalog(roles []models.Role) *RoleCatalog {
	c := &RoleCatalog{roles: make(map[string]models.Role, len(roles))}
	for _, r := range roles {
		if _, dup := c.roles[r.ID]; !dup {
			c.order = append(c.order, r.ID)
		}
		c.roles[r.ID] = r
	}
	return c
}

// CatalogFromConfig uses the configured roles when present, the defaults
// otherwise.
func CatalogFromConfig(cfg []config.RoleConfig) *RoleCatalog {
	if len(cfg) == 0 {
		return NewRoleCatalog(DefaultRoles())
	}
	roles := make([]models.Role, 0, len(cfg))
	for _, rc := range cfg {
		roles = append(roles, models.Role{
			ID:          rc.ID,
			Label:       rc.Label,
			Icon:        rc.Icon,
			Color:       rc.Color,
			Description: rc.Description,
			Persona:     rc.Persona,
			Topics:      rc.Topics,
		})
	}
	return NewRoleCatalog(roles)
}

func (c *RoleCatalog) Get(id string) (models.Role, error) {
	r, ok := c.roles[id]
	if !ok {
		return models.Role{}, ErrInvalidRole
	}
	return r, nil
}

func (c *RoleCatalog) All() []models.Role {
	out := make([]models.Role, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.roles[id])
	}
	return out
}

// DefaultRoles is the built-in catalog.
func DefaultRoles() []models.Role {
	return []models.Role{
		{
			ID:          "sales",
			Label:       "Ventas (Comercial)",
			Icon:        "briefcase",
			Color:       "from-blue-600 to-cyan-500",
			Description: "Venta de Licencias Google/Zoho, Servicios de Implementación.",
			Persona:     "Actúa como Gerente Comercial de Etixen SRL.",
			Topics:      "Correos de seguimiento a leads fríos, propuestas comerciales complejas (Zoho One + Implementación), manejo de objeciones de precio vs competencia.",
		},
		{
			ID:          "marketing",
			Label:       "Marketing",
			Icon:        "megaphone",
			Color:       "from-pink-600 to-rose-500",
			Description: "Generación de Demanda, Comunicación de Novedades.",
			Persona:     "Actúa como Lead de Marketing de Etixen SRL.",
			Topics:      "Invitar a Webinars sobre novedades de Google/Zoho, redactar Newsletters semanales de valor, crear Casos de Éxito de implementaciones recientes.",
		},
		{
			ID:          "support",
			Label:       "Soporte Técnico",
			Icon:        "headphones",
			Color:       "from-violet-600 to-purple-500",
			Description: "Soporte Google Workspace, Zoho y Desarrollos propios.",
			Persona:     "Actúa como Coordinador de Soporte de Etixen SRL.",
			Topics:      "Explicar configuraciones DNS/MX a usuarios no técnicos, calmar a un cliente cuando se cae un servicio (Google/Zoho), troubleshooting de correos rebotados.",
		},
		{
			ID:          "dev",
			Label:       "Desarrollo / IT",
			Icon:        "code",
			Color:       "from-emerald-600 to-green-500",
			Description: "Zoho Creator, Deluge Script, Integraciones API.",
			Persona:     "Actúa como Líder Técnico de Etixen SRL.",
			Topics:      "Debugging de la integración propia de Zoho Books Argentina, scripts de automatización en Deluge, conexión con APIs externas, apps con IA.",
		},
	}
}
