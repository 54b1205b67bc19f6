package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/diewo77/eventdesk/internal/draft"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

// GetDocument loads an invoice, quote or payment plan.
func (c *Client) GetDocument(ctx context.Context, kind draft.Kind, id string) (draft.Document, error) {
	var doc draft.Document
	if _, err := c.do(ctx, http.MethodGet, member(kind.Resource(), id), nil, &doc); err != nil {
		return draft.Document{}, err
	}
	doc.Kind = kind
	return doc, nil
}

// SaveDocument creates the document when it has no id yet and replaces it
// otherwise. The backend's copy is returned.
func (c *Client) SaveDocument(ctx context.Context, doc draft.Document) (draft.Document, error) {
	var out draft.Document
	var err error
	if doc.ID == "" {
		_, err = c.do(ctx, http.MethodPost, collection(doc.Kind.Resource()), doc, &out)
	} else {
		_, err = c.do(ctx, http.MethodPut, member(doc.Kind.Resource(), doc.ID), doc, &out)
	}
	if err != nil {
		return draft.Document{}, err
	}
	out.Kind = doc.Kind
	return out, nil
}

// Recalculate asks the backend to recompute an invoice's totals and
// balance, typically after payments changed.
func (c *Client) Recalculate(ctx context.Context, invoiceID string) (draft.Document, error) {
	var out draft.Document
	if _, err := c.do(ctx, http.MethodPost, member("invoices", invoiceID)+"/recalculate", nil, &out); err != nil {
		return draft.Document{}, err
	}
	out.Kind = draft.KindInvoice
	return out, nil
}

// Payments lists the payment history of an invoice.
func (c *Client) Payments(ctx context.Context, invoiceID string) ([]draft.Payment, error) {
	recs, err := c.List(ctx, "payments", url.Values{"invoiceId": {invoiceID}})
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encode payments: %w", err)
	}
	out := []draft.Payment{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode payments: %w", err)
	}
	return out, nil
}

// NextPaymentNumber reserves the next number of the payment sequence.
func (c *Client) NextPaymentNumber(ctx context.Context) (string, error) {
	var out struct {
		Number string `json:"number"`
	}
	if _, err := c.do(ctx, http.MethodGet, collection("payments")+"/generate-number", nil, &out); err != nil {
		return "", err
	}
	if out.Number == "" {
		return "", fmt.Errorf("api: empty payment number")
	}
	return out.Number, nil
}

// Stamp triggers the fiscal signing of an invoice.
func (c *Client) Stamp(ctx context.Context, invoiceID string) (Record, error) {
	var out Record
	if _, err := c.do(ctx, http.MethodPost, member("invoices", invoiceID)+"/stamp", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ConvertQuote turns a quote into an invoice and returns the new invoice.
func (c *Client) ConvertQuote(ctx context.Context, quoteID string) (draft.Document, error) {
	var out draft.Document
	if _, err := c.do(ctx, http.MethodPost, member("quotes", quoteID)+"/convert", nil, &out); err != nil {
		return draft.Document{}, err
	}
	out.Kind = draft.KindInvoice
	return out, nil
}

// GenerateDocument asks the backend to render a printable document for a
// record and returns its URL.
func (c *Client) GenerateDocument(ctx context.Context, resource, id string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if _, err := c.do(ctx, http.MethodPost, member(resource, id)+"/document", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// DocumentSaver persists drafts through the backend. After an invoice is
// saved its totals are recalculated server-side and its payment history is
// refetched, so the draft never keeps locally patched figures.
type DocumentSaver struct {
	Client *Client
}

func (s DocumentSaver) Save(ctx context.Context, doc draft.Document) (draft.Document, error) {
	saved, err := s.Client.SaveDocument(ctx, doc)
	if err != nil {
		return draft.Document{}, err
	}
	if saved.Kind != draft.KindInvoice || saved.ID == "" {
		return saved, nil
	}
	var (
		fresh    draft.Document
		payments []draft.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fresh, err = s.Client.Recalculate(gctx, saved.ID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.Client.Payments(gctx, saved.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		// The write already succeeded; return the saved copy.
		s.Client.log.Warn("invoice refresh after save failed", "invoice", saved.ID, "err", err)
		return saved, nil
	}
	fresh.Payments = payments
	return fresh, nil
}
