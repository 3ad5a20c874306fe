package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chineduogbonna/marketpay/internal/api/httpx"
	"github.com/chineduogbonna/marketpay/internal/api/validate"
	"github.com/chineduogbonna/marketpay/internal/config"
	"github.com/chineduogbonna/marketpay/internal/middleware"
	"github.com/chineduogbonna/marketpay/internal/models"
	"github.com/chineduogbonna/marketpay/internal/services"
)

// writeErr maps domain errors onto the HTTP surface.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInsufficientFunds):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error(), nil)
	case errors.Is(err, models.ErrWalletNotFound),
		errors.Is(err, models.ErrEscrowNotFound),
		errors.Is(err, models.ErrScheduleNotFound),
		errors.Is(err, models.ErrPlanNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, models.ErrInvalidStateTransition):
		httpx.WriteError(w, http.StatusConflict, "invalid_state", err.Error(), nil)
	case errors.Is(err, models.ErrInvalidScheduleConfig),
		errors.Is(err, models.ErrNetworkDetectionFailed):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	default:
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
	}
}

func NewRouter(cfg config.Config, ws *services.WalletService, es *services.EscrowService, ss *services.ScheduleService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.RateLimit(cfg.RateRPS), middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- wallets ----------
		r.Get("/wallets/{userID}", func(w http.ResponseWriter, r *http.Request) {
			wlt, err := ws.GetOrCreateWallet(r.Context(), chi.URLParam(r, "userID"))
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusOK, wlt)
		})

		r.Post("/wallets/{userID}/deposit", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Amount      int64  `json:"amount"`
				Description string `json:"description"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil); return
			}
			if ef := validate.MinInt("amount", req.Amount, 1); ef != nil {
				httpx.WriteError(w, http.StatusBadRequest, "invalid_request", ef.Msg, ef); return
			}
			wlt, err := ws.Deposit(r.Context(), chi.URLParam(r, "userID"), req.Amount, req.Description)
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusOK, wlt)
		})

		r.Post("/wallets/{userID}/withdraw", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Amount      int64  `json:"amount"`
				Description string `json:"description"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil); return
			}
			wlt, err := ws.Withdraw(r.Context(), chi.URLParam(r, "userID"), req.Amount, req.Description)
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusOK, wlt)
		})

		r.Post("/wallets/{userID}/security-deposit", func(w http.ResponseWriter, r *http.Request) {
			var req struct{ Amount int64 `json:"amount"` }
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil); return
			}
			wlt, err := ws.LockSecurityDeposit(r.Context(), chi.URLParam(r, "userID"), req.Amount)
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusOK, wlt)
		})

		r.Get("/wallets/{userID}/transactions", func(w http.ResponseWriter, r *http.Request) {
			limit, offset := 50, 0
			if v := r.URL.Query().Get("limit"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 { limit = n }
			}
			if v := r.URL.Query().Get("offset"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n >= 0 { offset = n }
			}
			entries, err := ws.ListTransactions(r.Context(), chi.URLParam(r, "userID"), limit, offset)
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusOK, entries)
		})

		// ---------- escrow ----------
		r.Post("/escrows", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				BuyerID   string  `json:"buyer_id"`
				SellerID  string  `json:"seller_id"`
				ProductID *string `json:"product_id,omitempty"`
				Amount    int64   `json:"amount"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil); return
			}
			var errs validate.Errs
			if ef := validate.Required("buyer_id", req.BuyerID); ef != nil { errs = append(errs, *ef) }
			if ef := validate.Required("seller_id", req.SellerID); ef != nil { errs = append(errs, *ef) }
			if ef := validate.MinInt("amount", req.Amount, 1); ef != nil { errs = append(errs, *ef) }
			if len(errs) > 0 {
				httpx.WriteError(w, http.StatusBadRequest, "invalid_request", errs.Error(), errs); return
			}
			e, err := es.CreateEscrowTransaction(r.Context(), req.BuyerID, req.SellerID, req.ProductID, req.Amount)
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusCreated, e)
		})

		r.Get("/escrows/{id}", func(w http.ResponseWriter, r *http.Request) {
			e, err := es.Get(r.Context(), chi.URLParam(r, "id"))
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusOK, e)
		})

		escrowAction := func(fn func(r *http.Request, id string) error) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				id := chi.URLParam(r, "id")
				if err := fn(r, id); err != nil { writeErr(w, err); return }
				e, err := es.Get(r.Context(), id)
				if err != nil { writeErr(w, err); return }
				httpx.WriteJSON(w, http.StatusOK, e)
			}
		}
		r.Post("/escrows/{id}/confirm-buyer", escrowAction(func(r *http.Request, id string) error {
			return es.ConfirmByBuyer(r.Context(), id)
		}))
		r.Post("/escrows/{id}/confirm-seller", escrowAction(func(r *http.Request, id string) error {
			return es.ConfirmBySeller(r.Context(), id)
		}))
		r.Post("/escrows/{id}/release", escrowAction(func(r *http.Request, id string) error {
			return es.ReleaseEscrowFunds(r.Context(), id)
		}))
		r.Post("/escrows/{id}/refund", escrowAction(func(r *http.Request, id string) error {
			return es.RefundEscrow(r.Context(), id)
		}))
		r.Post("/escrows/{id}/dispute", escrowAction(func(r *http.Request, id string) error {
			return es.MarkDisputed(r.Context(), id)
		}))

		// ---------- scheduled purchases ----------
		r.Post("/schedules", func(w http.ResponseWriter, r *http.Request) {
			var req services.CreateScheduleInput
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil); return
			}
			sched, err := ss.Create(r.Context(), req)
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusCreated, sched)
		})

		r.Get("/schedules", func(w http.ResponseWriter, r *http.Request) {
			uid := r.URL.Query().Get("user_id")
			if uid == "" {
				httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "user_id required", nil); return
			}
			list, err := ss.ListByUser(r.Context(), uid)
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusOK, list)
		})

		// introspection: what the runner would pick up right now
		r.Get("/schedules/due", func(w http.ResponseWriter, r *http.Request) {
			list, err := ss.ListDue(r.Context())
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusOK, list)
		})

		r.Get("/schedules/{id}", func(w http.ResponseWriter, r *http.Request) {
			sched, err := ss.Get(r.Context(), chi.URLParam(r, "id"))
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusOK, sched)
		})

		r.Post("/schedules/{id}/pause", func(w http.ResponseWriter, r *http.Request) {
			var req struct{ Reason string `json:"reason"` }
			_ = json.NewDecoder(r.Body).Decode(&req)
			if err := ss.Pause(r.Context(), chi.URLParam(r, "id"), req.Reason); err != nil {
				writeErr(w, err); return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/schedules/{id}/resume", func(w http.ResponseWriter, r *http.Request) {
			if err := ss.Resume(r.Context(), chi.URLParam(r, "id")); err != nil {
				writeErr(w, err); return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/plans", func(w http.ResponseWriter, r *http.Request) {
			plans, err := ss.ListPlans(r.Context())
			if err != nil { writeErr(w, err); return }
			httpx.WriteJSON(w, http.StatusOK, plans)
		})
	})

	return r
}
