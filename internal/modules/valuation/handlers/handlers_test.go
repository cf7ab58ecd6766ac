package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/valuation"
	testutil "github.com/aristath/folio/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type holdings []domain.Holding

func (h holdings) ListHoldings(ctx context.Context, userID string) ([]domain.Holding, error) {
	return h, nil
}

func TestHandleGetPortfolio(t *testing.T) {
	md := testutil.NewStaticMarketData(30)
	md.SetPrice("XYZ", 25)
	svc := valuation.NewService(holdings{
		{Symbol: "XYZ", Category: domain.CategoryLocalEquity, Quantity: 4, AverageCost: 20, TotalCost: 80},
	}, md, 34, zerolog.Nop())

	r := chi.NewRouter()
	r.Route("/api/users/{userID}", NewHandler(svc, zerolog.Nop()).RegisterRoutes)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/u1/portfolio", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			TotalValue   float64            `json:"total_value"`
			Distribution map[string]float64 `json:"distribution"`
			Items        []struct {
				Symbol      string `json:"symbol"`
				PriceSource string `json:"price_source"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 100, body.Data.TotalValue, 1e-9)
	assert.InDelta(t, 100, body.Data.Distribution["LOCAL_EQUITY"], 1e-9)
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "XYZ", body.Data.Items[0].Symbol)
	assert.Equal(t, "quote", body.Data.Items[0].PriceSource)
}
