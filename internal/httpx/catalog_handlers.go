package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-food-storefront/internal/apiclient"
	"github.com/ariefcatur/go-food-storefront/internal/session"
)

func (h *Storefront) listProducts(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return fromResult(s.API.Catalog().Products(ctx, apiclient.ProductQuery{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Page:     page,
		Limit:    limit,
	}), http.StatusOK)
}

func (h *Storefront) getProduct(ctx context.Context, s *session.Session, r *http.Request) (int, any) {
	return fromResult(s.API.Catalog().Product(ctx, chi.URLParam(r, "id")), http.StatusOK)
}

func (h *Storefront) listCategories(ctx context.Context, s *session.Session, _ *http.Request) (int, any) {
	return fromResult(s.API.Catalog().Categories(ctx), http.StatusOK)
}
