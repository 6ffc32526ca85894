package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
)

func TestProjectService_ListCachedPerQuery(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.handle("GET /projects", h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":[{"id":"1","name":"Acme"}],"pagination":{"page":%s,"limit":20,"total":21,"totalPages":2,"hasNext":true,"hasPrev":false}}`,
			r.URL.Query().Get("page"))
	}))
	svc := NewProjectService(h.gateway, h.logger)

	page, err := svc.List(context.Background(), ListOptions{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "Acme" {
		t.Errorf("Items = %+v", page.Items)
	}
	if page.Pagination == nil || !page.Pagination.HasNext || page.Pagination.Total != 21 {
		t.Errorf("Pagination = %+v", page.Pagination)
	}

	_, _ = svc.List(context.Background(), ListOptions{Page: 1, Limit: 20})
	if n := h.backend.count(http.MethodGet, "/projects"); n != 1 {
		t.Errorf("server hits = %d, want 1 (second read cached)", n)
	}

	_, _ = svc.List(context.Background(), ListOptions{Page: 2, Limit: 20})
	if n := h.backend.count(http.MethodGet, "/projects"); n != 2 {
		t.Errorf("server hits = %d, want 2 (different page)", n)
	}

	if _, err := svc.List(context.Background(), ListOptions{Limit: 1000}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("List(limit=1000) error = %v, want ErrInvalidInput", err)
	}
}

func TestProjectService_CreateInvalidatesList(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	var names atomic.Value
	names.Store(`[{"id":"1","name":"Acme"}]`)
	h.backend.handle("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, names.Load().(string))
	})
	h.backend.handle("POST /projects", func(w http.ResponseWriter, r *http.Request) {
		var in ProjectInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		names.Store(`[{"id":"1","name":"Acme"},{"id":"2","name":"` + in.Name + `"}]`)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id":"2","name":%q}`, in.Name)
	})
	svc := NewProjectService(h.gateway, h.logger)

	if _, err := svc.List(context.Background(), ListOptions{}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	created, err := svc.Create(context.Background(), ProjectInput{Name: "Globex"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID != "2" {
		t.Errorf("created = %+v", created)
	}

	page, err := svc.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Items) != 2 {
		t.Errorf("List() after Create = %+v, want fresh data", page.Items)
	}
}

func TestProjectService_GetUpdateDelete(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.json("GET /projects/42", http.StatusOK, `{"id":"42","name":"Acme"}`)
	h.backend.json("PUT /projects/42", http.StatusOK, `{"id":"42","name":"Acme Corp"}`)
	h.backend.json("DELETE /projects/42", http.StatusNoContent, ``)
	svc := NewProjectService(h.gateway, h.logger)
	ctx := context.Background()

	p, err := svc.Get(ctx, "42")
	if err != nil || p.Name != "Acme" {
		t.Fatalf("Get() = %+v, %v", p, err)
	}
	_, _ = svc.Get(ctx, "42")
	if n := h.backend.count(http.MethodGet, "/projects/42"); n != 1 {
		t.Errorf("GET hits = %d, want 1", n)
	}

	if _, err := svc.Update(ctx, "42", ProjectInput{Name: "Acme Corp"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, ok := h.cache.Get(cache.PoolProjects, "proj:42"); ok {
		t.Error("project detail still cached after update")
	}

	_ = h.cache.SetDefault(cache.PoolKeywords, "proj:42", gateway.Response{})
	_ = h.cache.SetDefault(cache.PoolMentions, "proj:42?page=1", gateway.Response{})
	if err := svc.Delete(ctx, "42"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if h.cache.Len(cache.PoolKeywords) != 0 || h.cache.Len(cache.PoolMentions) != 0 {
		t.Error("project entries survived delete in other pools")
	}

	if _, err := svc.Get(ctx, " "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Get(blank) error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Create(ctx, ProjectInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Create(empty) error = %v, want ErrInvalidInput", err)
	}
}

func TestProjectService_InvalidPayload(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.json("GET /projects", http.StatusOK, `[{"name":"no id"}]`)

	_, err := NewProjectService(h.gateway, h.logger).List(context.Background(), ListOptions{})
	var reqErr *gateway.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("List() error = %v, want *RequestError", err)
	}
	if reqErr.Status != http.StatusOK || reqErr.Message != gateway.InvalidResponseMessage {
		t.Errorf("RequestError = {%d %q}", reqErr.Status, reqErr.Message)
	}
}

func TestProjectService_QuotaSignalPreserved(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.json("POST /projects", http.StatusForbidden, `{"message":"Project limit reached. Upgrade to add more."}`)

	_, err := NewProjectService(h.gateway, h.logger).Create(context.Background(), ProjectInput{Name: "One too many"})
	if !errors.Is(err, gateway.ErrQuotaExceeded) {
		t.Errorf("Create() error = %v, want ErrQuotaExceeded", err)
	}
	if err.Error() != "Project limit reached. Upgrade to add more." {
		t.Errorf("message = %q", err.Error())
	}
}
