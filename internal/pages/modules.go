// Package pages holds the administered modules (their resource paths and
// column sets) and the list view-model each page builds on.
package pages

import (
	"sort"

	"github.com/diewo77/eventdesk/internal/grid"
)

// Module is one administered collection.
type Module struct {
	Name     string
	Title    string
	Resource string
	Columns  []grid.Column
	// EmptyMessage is an i18n key shown when the grid has no rows.
	EmptyMessage string
	// Documents marks modules edited through drafts instead of plain forms.
	Documents bool
	// Fields lists the form fields accepted on create/update.
	Fields []string
	// Required lists the fields that must be present on create.
	Required []string
}

var eventStatuses = []string{"pending", "confirmed", "in_progress", "completed", "cancelled"}
var invoiceStatuses = []string{"draft", "issued", "paid", "partial", "cancelled"}
var quoteStatuses = []string{"draft", "sent", "accepted", "rejected", "converted"}

func fullName(r grid.Row) any {
	first, last := grid.Text(r.Lookup("firstName")), grid.Text(r.Lookup("lastName"))
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

var modules = map[string]Module{
	"customers": {
		Name: "customers", Title: "customers.title", Resource: "customers", EmptyMessage: "customers.empty",
		Fields:   []string{"firstName", "lastName", "email", "phone", "company", "taxId"},
		Required: []string{"firstName", "email"},
		Columns: []grid.Column{
			{ID: "name", Header: "customers.name", Derive: fullName},
			{ID: "email", Header: "customers.email"},
			{ID: "phone", Header: "customers.phone", HideSort: true},
			{ID: "company", Header: "customers.company"},
			{ID: "createdAt", Header: "common.created", Kind: grid.KindDate},
		},
	},
	"events": {
		Name: "events", Title: "events.title", Resource: "events", EmptyMessage: "events.empty",
		Fields:   []string{"name", "customerId", "date", "venue", "guests", "status", "total"},
		Required: []string{"name", "customerId", "date"},
		Columns: []grid.Column{
			{ID: "name", Header: "events.name"},
			{ID: "customer", Header: "events.customer", Key: "customer.name"},
			{ID: "date", Header: "events.date", Kind: grid.KindDate},
			{ID: "venue", Header: "events.venue"},
			{ID: "guests", Header: "events.guests"},
			{ID: "status", Header: "common.status", Kind: grid.KindSelect, Options: eventStatuses},
			{ID: "total", Header: "common.total", Kind: grid.KindCustom, Renderer: grid.Money},
		},
	},
	"quotes": {
		Name: "quotes", Title: "quotes.title", Resource: "quotes", EmptyMessage: "quotes.empty", Documents: true,
		Columns: []grid.Column{
			{ID: "number", Header: "common.number"},
			{ID: "customer", Header: "common.customer", Key: "customer.name"},
			{ID: "event", Header: "common.event", Key: "event.name"},
			{ID: "issueDate", Header: "common.issue_date", Kind: grid.KindDate},
			{ID: "status", Header: "common.status", Kind: grid.KindSelect, Options: quoteStatuses},
			{ID: "total", Header: "common.total", Kind: grid.KindCustom, Renderer: grid.Money},
		},
	},
	"invoices": {
		Name: "invoices", Title: "invoices.title", Resource: "invoices", EmptyMessage: "invoices.empty", Documents: true,
		Columns: []grid.Column{
			{ID: "number", Header: "common.number"},
			{ID: "customer", Header: "common.customer", Key: "customer.name"},
			{ID: "issueDate", Header: "common.issue_date", Kind: grid.KindDate},
			{ID: "dueDate", Header: "invoices.due_date", Kind: grid.KindDate},
			{ID: "status", Header: "common.status", Kind: grid.KindSelect, Options: invoiceStatuses},
			{ID: "total", Header: "common.total", Kind: grid.KindCustom, Renderer: grid.Money},
			{ID: "remainingBalance", Header: "invoices.balance", Kind: grid.KindCustom, Renderer: grid.Money},
		},
	},
	"payments": {
		Name: "payments", Title: "payments.title", Resource: "payments", EmptyMessage: "payments.empty",
		Fields:   []string{"number", "invoiceId", "amount", "method", "paidAt"},
		Required: []string{"invoiceId", "amount"},
		Columns: []grid.Column{
			{ID: "number", Header: "common.number"},
			{ID: "invoice", Header: "payments.invoice", Key: "invoice.number"},
			{ID: "method", Header: "payments.method", Kind: grid.KindSelect, Options: []string{"cash", "card", "transfer", "check"}},
			{ID: "paidAt", Header: "payments.paid_at", Kind: grid.KindDate},
			{ID: "amount", Header: "payments.amount", Kind: grid.KindCustom, Renderer: grid.Money},
		},
	},
	"equipment": {
		Name: "equipment", Title: "equipment.title", Resource: "equipment", EmptyMessage: "equipment.empty",
		Fields:   []string{"name", "category", "serial", "quantity", "condition"},
		Required: []string{"name"},
		Columns: []grid.Column{
			{ID: "name", Header: "common.name"},
			{ID: "category", Header: "equipment.category"},
			{ID: "serial", Header: "equipment.serial", HideSort: true},
			{ID: "quantity", Header: "common.quantity"},
			{ID: "condition", Header: "equipment.condition", Kind: grid.KindSelect, Options: []string{"new", "good", "worn", "damaged"}},
		},
	},
	"products": {
		Name: "products", Title: "products.title", Resource: "products", EmptyMessage: "products.empty",
		Fields:   []string{"name", "description", "unit", "price", "taxRate"},
		Required: []string{"name", "price"},
		Columns: []grid.Column{
			{ID: "name", Header: "common.name"},
			{ID: "description", Header: "common.description", HideSort: true},
			{ID: "unit", Header: "products.unit"},
			{ID: "price", Header: "products.price", Kind: grid.KindCustom, Renderer: grid.Money},
		},
	},
	"packages": {
		Name: "packages", Title: "packages.title", Resource: "packages", EmptyMessage: "packages.empty",
		Fields:   []string{"name", "description", "price", "capacity"},
		Required: []string{"name", "price"},
		Columns: []grid.Column{
			{ID: "name", Header: "common.name"},
			{ID: "capacity", Header: "packages.capacity"},
			{ID: "price", Header: "products.price", Kind: grid.KindCustom, Renderer: grid.Money},
		},
	},
	"rentals": {
		Name: "rentals", Title: "rentals.title", Resource: "rentals", EmptyMessage: "rentals.empty",
		Fields:   []string{"equipmentId", "eventId", "quantity", "startDate", "endDate", "status"},
		Required: []string{"equipmentId", "eventId"},
		Columns: []grid.Column{
			{ID: "equipment", Header: "rentals.equipment", Key: "equipment.name"},
			{ID: "event", Header: "common.event", Key: "event.name"},
			{ID: "quantity", Header: "common.quantity"},
			{ID: "startDate", Header: "rentals.start", Kind: grid.KindDate},
			{ID: "endDate", Header: "rentals.end", Kind: grid.KindDate},
			{ID: "status", Header: "common.status", Kind: grid.KindSelect, Options: []string{"reserved", "out", "returned"}},
		},
	},
	"incidents": {
		Name: "incidents", Title: "incidents.title", Resource: "incidents", EmptyMessage: "incidents.empty",
		Fields:   []string{"title", "eventId", "severity", "description", "reportedAt", "resolved"},
		Required: []string{"title", "eventId"},
		Columns: []grid.Column{
			{ID: "title", Header: "incidents.subject"},
			{ID: "event", Header: "common.event", Key: "event.name"},
			{ID: "severity", Header: "incidents.severity", Kind: grid.KindSelect, Options: []string{"low", "medium", "high"}},
			{ID: "reportedAt", Header: "incidents.reported", Kind: grid.KindDate},
			{ID: "resolved", Header: "incidents.resolved", Kind: grid.KindCustom,
				Renderer: grid.Labels(map[string]string{"true": "✓", "false": ""})},
		},
	},
	"tasks": {
		Name: "tasks", Title: "tasks.title", Resource: "tasks", EmptyMessage: "tasks.empty",
		Fields:   []string{"title", "eventId", "assignee", "dueDate", "status"},
		Required: []string{"title"},
		Columns: []grid.Column{
			{ID: "title", Header: "tasks.subject"},
			{ID: "event", Header: "common.event", Key: "event.name"},
			{ID: "assignee", Header: "tasks.assignee"},
			{ID: "dueDate", Header: "tasks.due", Kind: grid.KindDate},
			{ID: "status", Header: "common.status", Kind: grid.KindSelect, Options: []string{"todo", "doing", "done"}},
		},
	},
}

// Lookup returns the module registered under name.
func Lookup(name string) (Module, bool) {
	m, ok := modules[name]
	return m, ok
}

// All returns every module ordered by name.
func All() []Module {
	out := make([]Module, 0, len(modules))
	for _, m := range modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Accepts reports whether field may be submitted for this module.
func (m Module) Accepts(field string) bool {
	for _, f := range m.Fields {
		if f == field {
			return true
		}
	}
	return false
}
