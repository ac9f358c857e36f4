package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// QRPayload is the JSON text encoded into the QR image. Scanning apps post
// it back verbatim as the verify-qr request body.
type QRPayload struct {
	LevelNumber int    `json:"levelNumber"`
	Place       string `json:"place"`
}

type GenerateQRResponse struct {
	Message     string `json:"message"`
	LevelNumber int    `json:"levelNumber"`
	Place       string `json:"place"`
	QRCode      string `json:"qrCode"`
}

func handleGenerateQR(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QRPayload
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Place = strings.TrimSpace(req.Place)
		if req.LevelNumber == 0 || req.Place == "" {
			writeError(w, http.StatusBadRequest, "levelNumber and place are required.")
			return
		}

		level, err := store.Level(r.Context(), req.LevelNumber)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound,
				fmt.Sprintf("Level %d not found.", req.LevelNumber))
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}

		var known bool
		for _, p := range level.Places {
			if p.Name == req.Place {
				known = true
				break
			}
		}
		if !known {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Place '%s' does not exist in Level %d.", req.Place, req.LevelNumber))
			return
		}

		payload, err := json.Marshal(req)
		if err != nil {
			writeServerError(w, err)
			return
		}
		png, err := qrcode.Encode(string(payload), qrcode.Medium, qrImageSize)
		if err != nil {
			writeServerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, GenerateQRResponse{
			Message:     "QR generated successfully",
			LevelNumber: req.LevelNumber,
			Place:       req.Place,
			QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		})
	}
}
