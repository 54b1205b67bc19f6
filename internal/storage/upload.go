package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/diewo77/eventdesk/internal/metrics"
	"github.com/google/uuid"
)

// Target names the record a file belongs to.
type Target struct {
	Module   string
	RecordID string
	TenantID string
}

func (t Target) validate() error {
	if t.Module == "" || t.RecordID == "" || t.TenantID == "" {
		return fmt.Errorf("storage: module, record and tenant are required")
	}
	return nil
}

// Prefix is the key prefix under which the record's files live.
func (t Target) Prefix() string {
	return path.Join(segment(t.TenantID), segment(t.Module), segment(t.RecordID)) + "/"
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func segment(s string) string {
	s = unsafeChars.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.Trim(s, ".-")
	if s == "" {
		return "_"
	}
	return s
}

// Upload describes a stored file.
type Upload struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Uploader writes files into a Store and builds their URLs.
type Uploader struct {
	Store Store
	// PublicBaseURL prefixes keys when the store cannot presign.
	PublicBaseURL string
	Expiry        time.Duration
	Metrics       *metrics.Metrics
}

// Upload stores body for the target and returns a retrievable URL.
func (u *Uploader) Upload(ctx context.Context, t Target, filename, contentType string, body io.Reader) (Upload, error) {
	if err := t.validate(); err != nil {
		return Upload{}, err
	}
	name := segment(path.Base(filename))
	key := t.Prefix() + uuid.NewString() + "-" + name
	info, err := u.Store.Put(ctx, key, body, PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"filename": name, "module": t.Module, "record": t.RecordID},
	})
	if err != nil {
		u.Metrics.Uploaded(t.Module, "error")
		return Upload{}, fmt.Errorf("upload %s: %w", key, err)
	}
	link, err := u.URL(ctx, key)
	if err != nil {
		u.Metrics.Uploaded(t.Module, "error")
		return Upload{}, err
	}
	u.Metrics.Uploaded(t.Module, "ok")
	return Upload{Key: key, Name: name, URL: link, ContentType: contentType, Size: info.Size, UploadedAt: info.LastModified}, nil
}

// URL presigns key when the driver supports it and falls back to the
// public base URL otherwise.
func (u *Uploader) URL(ctx context.Context, key string) (string, error) {
	link, err := u.Store.PresignURL(ctx, key, u.Expiry)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, ErrUnsupported) {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(u.PublicBaseURL, "/") + "/" + strings.Join(parts, "/"), nil
}

// List returns the files stored for a target, oldest key first.
func (u *Uploader) List(ctx context.Context, t Target) ([]Upload, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	infos, err := u.Store.List(ctx, t.Prefix())
	if err != nil {
		return nil, err
	}
	out := make([]Upload, 0, len(infos))
	for _, inf := range infos {
		link, err := u.URL(ctx, inf.Key)
		if err != nil {
			return nil, err
		}
		name := path.Base(inf.Key)
		if n := inf.Metadata["filename"]; n != "" {
			name = n
		}
		out = append(out, Upload{Key: inf.Key, Name: name, URL: link, ContentType: inf.ContentType, Size: inf.Size, UploadedAt: inf.LastModified})
	}
	return out, nil
}
