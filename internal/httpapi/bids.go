package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/docmd/internal/bids"
	"github.com/example/docmd/internal/model"
)

// bidPayload is shared by create and update; update treats every field as
// optional.
type bidPayload struct {
	ItemName   *string  `json:"itemName"`
	BidAmount  *float64 `json:"bidAmount"`
	BidderName *string  `json:"bidderName"`
	Status     *string  `json:"status"`
}

func (s Server) handleListBids(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list := s.Bids.List(q.Get("sort"), q.Get("order"))
	writeJSON(w, http.StatusOK, map[string]any{
		"bids":  list,
		"count": len(list),
	})
}

func (s Server) handleCreateBid(w http.ResponseWriter, r *http.Request) {
	var req bidPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.ItemName == nil || req.BidAmount == nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("itemName and bidAmount are required"))
		return
	}
	var bidder string
	if req.BidderName != nil {
		bidder = *req.BidderName
	}
	var status bids.Status
	if req.Status != nil {
		status = bids.Status(*req.Status)
	}

	bid, err := s.Bids.Create(*req.ItemName, *req.BidAmount, bidder, status)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, bid)
}

func (s Server) handleGetBid(w http.ResponseWriter, r *http.Request) {
	bid, err := s.Bids.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

func (s Server) handleUpdateBid(w http.ResponseWriter, r *http.Request) {
	var req bidPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	patch := bids.Patch{
		ItemName:   req.ItemName,
		BidAmount:  req.BidAmount,
		BidderName: req.BidderName,
	}
	if req.Status != nil {
		status := bids.Status(*req.Status)
		patch.Status = &status
	}

	bid, err := s.Bids.Update(chi.URLParam(r, "id"), patch)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

func (s Server) handleDeleteBid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Bids.Delete(id); err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bidId": id, "deleted": true})
}

func (s Server) handleBidAnalysis(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Bids.Analyze())
}

func (s Server) handleClearBids(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cleared": s.Bids.Clear()})
}
