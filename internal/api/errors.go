package api

import (
	"errors"
	"net/http"

	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
)

// mapError picks the response status for err along with the typed error,
// if there is one.
func (s *Server) mapError(err error) (int, *models.Error) {
	var perr *models.Error
	if !errors.As(err, &perr) {
		return http.StatusInternalServerError, nil
	}
	switch perr.Kind {
	case models.KindInvalidMnemonic, models.KindInvalidDestination, models.KindInsufficientBalance:
		return http.StatusBadRequest, perr
	case models.KindSubmissionRejected, models.KindSubmissionExpired,
		models.KindOracleUnavailable, models.KindMalformedOracleResponse:
		return http.StatusBadGateway, perr
	default:
		return http.StatusInternalServerError, perr
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, perr := s.mapError(err)
	resp := errorResponse{Error: err.Error()}
	if perr != nil {
		resp.Kind = perr.Kind
		resp.PublicKey = perr.PublicKey
		resp.Balance = perr.Balance
		resp.ResultCodes = perr.ResultCodes
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}
