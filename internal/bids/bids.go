package bids

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/docmd/internal/model"
)

// Status tracks where a bid is in its lifecycle.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusWon      Status = "won"
	StatusLost     Status = "lost"
)

func (s Status) valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusWon, StatusLost:
		return true
	}
	return false
}

// Bid is one recorded offer on an item.
type Bid struct {
	ID         string    `json:"id"`
	ItemName   string    `json:"itemName"`
	BidAmount  float64   `json:"bidAmount"`
	BidderName string    `json:"bidderName"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Patch carries the updatable bid fields; nil leaves a field unchanged.
type Patch struct {
	ItemName   *string
	BidAmount  *float64
	BidderName *string
	Status     *Status
}

// Analysis summarises the recorded bids.
type Analysis struct {
	TotalBids          int            `json:"totalBids"`
	TotalAmount        float64        `json:"totalAmount"`
	AverageBidAmount   float64        `json:"averageBidAmount"`
	HighestBid         *Bid           `json:"highestBid,omitempty"`
	LowestBid          *Bid           `json:"lowestBid,omitempty"`
	StatusDistribution map[Status]int `json:"statusDistribution"`
}

// Service keeps bids in memory behind a lock, the same copy-in/copy-out
// discipline the job store uses.
type Service struct {
	mu   sync.RWMutex
	bids map[string]Bid
}

func NewService() *Service {
	return &Service{bids: make(map[string]Bid)}
}

// Create validates and records a new bid. An empty bidder name defaults to
// Anonymous and an empty status defaults to active.
func (s *Service) Create(itemName string, amount float64, bidderName string, status Status) (Bid, error) {
	if itemName == "" {
		return Bid{}, fmt.Errorf("itemName is required")
	}
	if amount <= 0 {
		return Bid{}, fmt.Errorf("bidAmount must be positive")
	}
	if bidderName == "" {
		bidderName = "Anonymous"
	}
	if status == "" {
		status = StatusActive
	}
	if !status.valid() {
		return Bid{}, fmt.Errorf("unknown status %q", status)
	}

	bid := Bid{
		ID:         uuid.NewString(),
		ItemName:   itemName,
		BidAmount:  amount,
		BidderName: bidderName,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
	s.mu.Lock()
	s.bids[bid.ID] = bid
	s.mu.Unlock()
	return bid, nil
}

// Get returns the bid, or model.ErrNotFound.
func (s *Service) Get(id string) (Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bid, ok := s.bids[id]
	if !ok {
		return Bid{}, model.ErrNotFound
	}
	return bid, nil
}

// List returns all bids sorted by "createdAt" (default) or "bidAmount",
// descending unless order is "asc".
func (s *Service) List(sortBy, order string) []Bid {
	s.mu.RLock()
	out := make([]Bid, 0, len(s.bids))
	for _, bid := range s.bids {
		out = append(out, bid)
	}
	s.mu.RUnlock()

	less := func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) }
	if sortBy == "bidAmount" {
		less = func(i, j int) bool { return out[i].BidAmount < out[j].BidAmount }
	}
	sort.SliceStable(out, less)
	if order != "asc" {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Update applies the patch after validating it. Unknown ids fail with
// model.ErrNotFound.
func (s *Service) Update(id string, patch Patch) (Bid, error) {
	if patch.ItemName != nil && *patch.ItemName == "" {
		return Bid{}, fmt.Errorf("itemName cannot be empty")
	}
	if patch.BidAmount != nil && *patch.BidAmount <= 0 {
		return Bid{}, fmt.Errorf("bidAmount must be positive")
	}
	if patch.Status != nil && !patch.Status.valid() {
		return Bid{}, fmt.Errorf("unknown status %q", *patch.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	bid, ok := s.bids[id]
	if !ok {
		return Bid{}, model.ErrNotFound
	}
	if patch.ItemName != nil {
		bid.ItemName = *patch.ItemName
	}
	if patch.BidAmount != nil {
		bid.BidAmount = *patch.BidAmount
	}
	if patch.BidderName != nil {
		bid.BidderName = *patch.BidderName
	}
	if patch.Status != nil {
		bid.Status = *patch.Status
	}
	s.bids[id] = bid
	return bid, nil
}

// Delete removes the bid, or fails with model.ErrNotFound.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bids[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.bids, id)
	return nil
}

// Analyze computes summary statistics over all recorded bids. With no bids
// it returns zero totals and no highest/lowest entries.
func (s *Service) Analyze() Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Analysis{StatusDistribution: make(map[Status]int)}
	for _, bid := range s.bids {
		bid := bid
		out.TotalBids++
		out.TotalAmount += bid.BidAmount
		out.StatusDistribution[bid.Status]++
		if out.HighestBid == nil || bid.BidAmount > out.HighestBid.BidAmount {
			out.HighestBid = &bid
		}
		if out.LowestBid == nil || bid.BidAmount < out.LowestBid.BidAmount {
			out.LowestBid = &bid
		}
	}
	if out.TotalBids > 0 {
		out.AverageBidAmount = out.TotalAmount / float64(out.TotalBids)
	}
	return out
}

// Clear drops every bid and reports how many were removed.
func (s *Service) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.bids)
	s.bids = make(map[string]Bid)
	return n
}
