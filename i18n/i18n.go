// Package i18n holds the UI message catalogue. Codes double as violation
// codes, so an untranslated code renders as itself.
package i18n

import "strings"

// DefaultLang is used when no supported language is requested.
const DefaultLang = "es"

var supported = map[string]bool{"es": true, "en": true}

// Supported reports whether lang has a catalogue.
func Supported(lang string) bool { return supported[lang] }

var messages = map[string]map[string]string{
	"es": {
		"app.title":          "Eventos",
		"nav.home":           "Inicio",
		"nav.audit":          "Bitácora",
		"common.search":      "Buscar",
		"common.reset":       "Limpiar filtros",
		"common.prev":        "Anterior",
		"common.next":        "Siguiente",
		"common.page":        "Página",
		"common.of":          "de",
		"common.per_page":    "Filas por página",
		"common.loading":     "Cargando…",
		"common.actions":     "Acciones",
		"common.edit":        "Editar",
		"common.delete":      "Eliminar",
		"common.save":        "Guardar",
		"common.cancel":      "Cancelar",
		"common.new":         "Nuevo",
		"common.upload":      "Subir archivo",
		"common.name":        "Nombre",
		"common.number":      "Folio",
		"common.status":      "Estado",
		"common.total":       "Total",
		"common.customer":    "Cliente",
		"common.event":       "Evento",
		"common.quantity":    "Cantidad",
		"common.created":     "Alta",
		"common.description": "Descripción",
		"common.issue_date":  "Fecha de emisión",

		"customers.title":     "Clientes",
		"customers.empty":     "No hay clientes registrados",
		"customers.name":      "Nombre",
		"customers.email":     "Correo",
		"customers.phone":     "Teléfono",
		"customers.company":   "Empresa",
		"events.title":        "Eventos",
		"events.empty":        "No hay eventos",
		"events.name":         "Evento",
		"events.customer":     "Cliente",
		"events.date":         "Fecha",
		"events.venue":        "Salón",
		"events.guests":       "Invitados",
		"quotes.title":        "Cotizaciones",
		"quotes.empty":        "No hay cotizaciones",
		"invoices.title":      "Facturas",
		"payment_plans.title": "Plan de pagos",
		"invoices.empty":      "No hay facturas",
		"invoices.due_date":   "Vencimiento",
		"invoices.balance":    "Saldo",
		"payments.title":      "Pagos",
		"payments.empty":      "No hay pagos",
		"payments.invoice":    "Factura",
		"payments.method":     "Método",
		"payments.paid_at":    "Fecha de pago",
		"payments.amount":     "Monto",
		"equipment.title":     "Equipo",
		"equipment.empty":     "No hay equipo registrado",
		"equipment.category":  "Categoría",
		"equipment.serial":    "Serie",
		"equipment.condition": "Condición",
		"products.title":      "Productos",
		"products.empty":      "No hay productos",
		"products.unit":       "Unidad",
		"products.price":      "Precio",
		"packages.title":      "Paquetes",
		"packages.empty":      "No hay paquetes",
		"packages.capacity":   "Capacidad",
		"rentals.title":       "Rentas",
		"rentals.empty":       "No hay rentas",
		"rentals.equipment":   "Equipo",
		"rentals.start":       "Inicio",
		"rentals.end":         "Fin",
		"incidents.title":     "Incidencias",
		"incidents.empty":     "No hay incidencias",
		"incidents.subject":   "Asunto",
		"incidents.severity":  "Gravedad",
		"incidents.reported":  "Reportada",
		"incidents.resolved":  "Resuelta",
		"tasks.title":         "Tareas",
		"tasks.empty":         "No hay tareas",
		"tasks.subject":       "Tarea",
		"tasks.assignee":      "Responsable",
		"tasks.due":           "Fecha límite",
		"audit.title":         "Bitácora",
		"tui.help":            "/ buscar · tab columna · s ordenar · ←/→ página · z filas · x limpiar · r recargar · d eliminar · esc volver · q salir",
		"audit.empty":         "Sin movimientos",
		"audit.entity":        "Módulo",
		"audit.record":        "Registro",
		"audit.action":        "Acción",
		"audit.outcome":       "Resultado",
		"audit.change":        "Cambio",
		"audit.detail":        "Detalle",

		"draft.subtotal":          "Subtotal",
		"draft.discount":          "Descuento",
		"draft.subtotal_discount": "Subtotal con descuento",
		"draft.tax":               "IVA",
		"draft.total_paid":        "Pagado",
		"draft.remaining":         "Saldo pendiente",
		"draft.plan":              "Plan de pagos",
		"draft.unassigned":        "Sin asignar",
		"draft.add_line":          "Agregar concepto",
		"draft.add_payment":       "Registrar pago",
		"draft.coupon":            "Cupón",

		"flash.saved":          "Cambios guardados",
		"flash.created":        "Registro creado",
		"flash.deleted":        "Registro eliminado",
		"flash.uploaded":       "Archivo subido",
		"flash.stamped":        "Factura timbrada",
		"flash.converted":      "Cotización convertida en factura",
		"flash.cancelled":      "Edición cancelada",
		"flash.error":          "Ocurrió un error, intenta de nuevo",
		"flash.save_failed":    "No se pudo guardar",
		"flash.delete_failed":  "No se pudo eliminar",
		"flash.draft_missing":  "El borrador ya no existe",
		"flash.save_in_flight": "Ya se está guardando",
		"flash.not_editing":    "El borrador no está en edición",
		"flash.discarded":      "Borrador descartado",

		"required":             "Requerido",
		"invalid":              "Inválido",
		"invalid_choice":       "Opción inválida",
		"invalid_email":        "Correo inválido",
		"too_small":            "Demasiado pequeño",
		"too_large":            "Demasiado grande",
		"must_be_positive":     "Debe ser mayor que cero",
		"must_not_be_negative": "No puede ser negativo",
		"out_of_range":         "Fuera de rango",
		"customer_required":    "Selecciona un cliente",
		"event_required":       "Selecciona un evento",
		"plan_exceeds_total":   "El plan excede el total",
	},
	"en": {
		"app.title":          "Events",
		"nav.home":           "Home",
		"nav.audit":          "Audit log",
		"common.search":      "Search",
		"common.reset":       "Reset filters",
		"common.prev":        "Previous",
		"common.next":        "Next",
		"common.page":        "Page",
		"common.of":          "of",
		"common.per_page":    "Rows per page",
		"common.loading":     "Loading…",
		"common.actions":     "Actions",
		"common.edit":        "Edit",
		"common.delete":      "Delete",
		"common.save":        "Save",
		"common.cancel":      "Cancel",
		"common.new":         "New",
		"common.upload":      "Upload file",
		"common.name":        "Name",
		"common.number":      "Number",
		"common.status":      "Status",
		"common.total":       "Total",
		"common.customer":    "Customer",
		"common.event":       "Event",
		"common.quantity":    "Quantity",
		"common.created":     "Created",
		"common.description": "Description",
		"common.issue_date":  "Issue date",

		"customers.title":     "Customers",
		"customers.empty":     "No customers yet",
		"customers.name":      "Name",
		"customers.email":     "Email",
		"customers.phone":     "Phone",
		"customers.company":   "Company",
		"events.title":        "Events",
		"events.empty":        "No events",
		"events.name":         "Event",
		"events.customer":     "Customer",
		"events.date":         "Date",
		"events.venue":        "Venue",
		"events.guests":       "Guests",
		"quotes.title":        "Quotes",
		"quotes.empty":        "No quotes",
		"invoices.title":      "Invoices",
		"payment_plans.title": "Payment plan",
		"invoices.empty":      "No invoices",
		"invoices.due_date":   "Due date",
		"invoices.balance":    "Balance",
		"payments.title":      "Payments",
		"payments.empty":      "No payments",
		"payments.invoice":    "Invoice",
		"payments.method":     "Method",
		"payments.paid_at":    "Paid at",
		"payments.amount":     "Amount",
		"equipment.title":     "Equipment",
		"equipment.empty":     "No equipment",
		"equipment.category":  "Category",
		"equipment.serial":    "Serial",
		"equipment.condition": "Condition",
		"products.title":      "Products",
		"products.empty":      "No products",
		"products.unit":       "Unit",
		"products.price":      "Price",
		"packages.title":      "Packages",
		"packages.empty":      "No packages",
		"packages.capacity":   "Capacity",
		"rentals.title":       "Rentals",
		"rentals.empty":       "No rentals",
		"rentals.equipment":   "Equipment",
		"rentals.start":       "Start",
		"rentals.end":         "End",
		"incidents.title":     "Incidents",
		"incidents.empty":     "No incidents",
		"incidents.subject":   "Subject",
		"incidents.severity":  "Severity",
		"incidents.reported":  "Reported",
		"incidents.resolved":  "Resolved",
		"tasks.title":         "Tasks",
		"tasks.empty":         "No tasks",
		"tasks.subject":       "Task",
		"tasks.assignee":      "Assignee",
		"tasks.due":           "Due",
		"audit.title":         "Audit log",
		"tui.help":            "/ search · tab column · s sort · ←/→ page · z rows · x reset · r reload · d delete · esc back · q quit",
		"audit.empty":         "Nothing recorded yet",
		"audit.entity":        "Module",
		"audit.record":        "Record",
		"audit.action":        "Action",
		"audit.outcome":       "Outcome",
		"audit.change":        "Change",
		"audit.detail":        "Detail",

		"draft.subtotal":          "Subtotal",
		"draft.discount":          "Discount",
		"draft.subtotal_discount": "Subtotal after discount",
		"draft.tax":               "Tax",
		"draft.total_paid":        "Paid",
		"draft.remaining":         "Remaining balance",
		"draft.plan":              "Payment plan",
		"draft.unassigned":        "Unassigned",
		"draft.add_line":          "Add line",
		"draft.add_payment":       "Add payment",
		"draft.coupon":            "Coupon",

		"flash.saved":          "Changes saved",
		"flash.created":        "Record created",
		"flash.deleted":        "Record deleted",
		"flash.uploaded":       "File uploaded",
		"flash.stamped":        "Invoice stamped",
		"flash.converted":      "Quote converted to invoice",
		"flash.cancelled":      "Edit cancelled",
		"flash.error":          "Something went wrong, please retry",
		"flash.save_failed":    "Could not save",
		"flash.delete_failed":  "Could not delete",
		"flash.draft_missing":  "The draft no longer exists",
		"flash.save_in_flight": "A save is already in progress",
		"flash.not_editing":    "The draft is not being edited",
		"flash.discarded":      "Draft discarded",

		"required":             "Required",
		"invalid":              "Invalid",
		"invalid_choice":       "Invalid choice",
		"invalid_email":        "Invalid email",
		"too_small":            "Too small",
		"too_large":            "Too large",
		"must_be_positive":     "Must be greater than zero",
		"must_not_be_negative": "Must not be negative",
		"out_of_range":         "Out of range",
		"customer_required":    "Please select a customer",
		"event_required":       "Please select an event",
		"plan_exceeds_total":   "The plan exceeds the total",
	},
}

// T translates code, falling back to the default language and then to
// the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks the first supported language of an Accept-Language
// header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if supported[base] {
			return base
		}
	}
	return DefaultLang
}
