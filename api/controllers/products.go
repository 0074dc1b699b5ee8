package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/kickfinderz-backend/api/responses"
	"github.com/angelmondragon/kickfinderz-backend/api/validators"
	product "github.com/angelmondragon/kickfinderz-backend/internal/products"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/angelmondragon/kickfinderz-backend/pkg/pagination"
)

const maxSearchLen = 100

func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseProductListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseProductListInput(r *http.Request) (product.ListInput, error) {
	q := r.URL.Query()
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return product.ListInput{}, err
	}
	priceMin, err := validators.ParseQueryDecimal(r, "price_min")
	if err != nil {
		return product.ListInput{}, err
	}
	priceMax, err := validators.ParseQueryDecimal(r, "price_max")
	if err != nil {
		return product.ListInput{}, err
	}
	onSale, err := validators.ParseQueryBool(r, "on_sale")
	if err != nil {
		return product.ListInput{}, err
	}
	inStock, err := validators.ParseQueryBool(r, "in_stock")
	if err != nil {
		return product.ListInput{}, err
	}

	filters := product.ListFilters{
		Brand:    validators.SanitizeString(q.Get("brand"), maxSearchLen),
		Category: validators.SanitizeString(q.Get("category"), maxSearchLen),
		PriceMin: priceMin,
		PriceMax: priceMax,
		OnSale:   onSale,
		InStock:  inStock != nil && *inStock,
		Query:    validators.SanitizeString(q.Get("q"), maxSearchLen),
	}
	return product.ListInput{
		Filters: filters,
		Pagination: pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(q.Get("cursor")),
		},
	}, nil
}

func ProductDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		p, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product.NewProductDTO(*p))
	}
}
