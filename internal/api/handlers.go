package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/olehkaliuzhnyi/piwallet/internal/planner"
	"github.com/olehkaliuzhnyi/piwallet/internal/service"
	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/shopspring/decimal"
)

type checkBalanceRequest struct {
	Mnemonic string `json:"mnemonic"`
}

type sendRequest struct {
	Mnemonic    string          `json:"mnemonic"`
	Destination string          `json:"destination"`
	MinBalance  json.RawMessage `json:"minBalance"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error       string              `json:"error"`
	Kind        models.ErrorKind    `json:"kind,omitempty"`
	PublicKey   string              `json:"publicKey,omitempty"`
	Balance     *decimal.Decimal    `json:"balance,omitempty"`
	ResultCodes *models.ResultCodes `json:"result_codes,omitempty"`
}

type checkAndSendResponse struct {
	Status  string           `json:"status"`
	Balance *decimal.Decimal `json:"balance,omitempty"`
	Sent    string           `json:"sent,omitempty"`
	Hash    string           `json:"hash,omitempty"`
	Message string           `json:"message,omitempty"`
}

var errMissingMnemonic = errors.New("missing mnemonic")

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: statusMessage})
}

func (s *Server) handleCheckBalance(w http.ResponseWriter, r *http.Request) {
	var req checkBalanceRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Mnemonic) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errMissingMnemonic.Error()})
		return
	}

	report, err := s.svc.CheckBalance(r.Context(), req.Mnemonic)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSendPi(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Mnemonic) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errMissingMnemonic.Error()})
		return
	}

	result, err := s.svc.AutoSend(r.Context(), service.AutoSendRequest{
		Mnemonic:    req.Mnemonic,
		Destination: req.Destination,
		MinReserve:  rawReserve(req.MinBalance),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCheckAndSend is the compact one-shot variant. An infeasible plan is
// a normal outcome here, reported with status "insufficient".
func (s *Server) handleCheckAndSend(w http.ResponseWriter, r *http.Request) {
	var req checkBalanceRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Mnemonic) == "" {
		writeJSON(w, http.StatusBadRequest, checkAndSendResponse{Status: "error", Message: errMissingMnemonic.Error()})
		return
	}

	result, err := s.svc.AutoSend(r.Context(), service.AutoSendRequest{Mnemonic: req.Mnemonic})
	if err != nil {
		var perr *models.Error
		if errors.As(err, &perr) && perr.Kind == models.KindInsufficientBalance {
			writeJSON(w, http.StatusOK, checkAndSendResponse{Status: "insufficient", Balance: perr.Balance})
			return
		}
		status, _ := s.mapError(err)
		writeJSON(w, status, checkAndSendResponse{Status: "error", Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, checkAndSendResponse{
		Status: "success",
		Sent:   planner.FormatAmount(result.SentAmount),
		Hash:   result.TransactionHash,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "endpoint not found"})
}

// rawReserve accepts minBalance as a JSON number or string. Anything else is
// passed on as empty and falls back to the default reserve.
func rawReserve(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
