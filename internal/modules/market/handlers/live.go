package handlers

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/krishisetu/krishisetu/internal/modules/market"
)

const tickInterval = 2 * time.Second

// priceTick is one streamed observation for a crop.
type priceTick struct {
	Crop      string  `json:"crop"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

// handleLive streams simulated price ticks for a crop over WebSocket until
// the client disconnects. Each connection runs its own walk seeded from the
// current time, continuing from the deterministic daily closing price.
func (h *Handlers) handleLive(w http.ResponseWriter, r *http.Request) {
	crop := queryString(r, "crop", market.DefaultCrop)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	ctx := r.Context()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Start from today's deterministic closing price so the stream lines up
	// with the history endpoints.
	price := market.RangeFor(crop).Midpoint()
	if series := h.svc.History(crop, time.Now(), market.DefaultLookbackDays); len(series) > 0 {
		price = series[len(series)-1].Price
	}

	h.log.Debug().Str("crop", crop).Msg("Live price stream opened")

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
			price = market.Tick(rng, crop, price)
			data, err := json.Marshal(priceTick{
				Crop:      crop,
				Price:     price,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to marshal price tick")
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				status := websocket.CloseStatus(err)
				if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
					h.log.Debug().Str("crop", crop).Msg("Live price stream closed by client")
				} else if ctx.Err() == nil {
					h.log.Warn().Err(err).Msg("Live price stream write failed")
				}
				return
			}
		}
	}
}
