package api

import (
	"encoding/json"
	"net/http"

	"QuickBill305/api/constants"
	"QuickBill305/internal/logger"

	"go.uber.org/zap"
)

// RespondWithError writes {"success": false, "error": msg}.
func RespondWithError(w http.ResponseWriter, status int, errMsg string) {
	logger.L().Warn("request failed", zap.Int("status", status), zap.String("error", errMsg))
	RespondWithJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   errMsg,
	})
}

// RespondWithErrors writes {"success": false, "error": msg, "errors": [...]}
// for failures that come with a list of row problems.
func RespondWithErrors(w http.ResponseWriter, status int, errMsg string, errs []string, extra map[string]interface{}) {
	if errs == nil {
		errs = []string{}
	}
	body := map[string]interface{}{
		"success": false,
		"error":   errMsg,
		"errors":  errs,
	}
	for k, v := range extra {
		body[k] = v
	}
	logger.L().Warn("request failed", zap.Int("status", status), zap.String("error", errMsg), zap.Int("errors", len(errs)))
	RespondWithJSON(w, status, body)
}

// RespondWithPayload sends a consistent JSON response and includes an arbitrary payload
func RespondWithPayload(w http.ResponseWriter, success bool, errMsg string, payload interface{}) {
	resp := map[string]interface{}{"success": success}
	if !success && errMsg != "" {
		resp["error"] = errMsg
	}
	if payload != nil {
		// use a conventional key `rows` for list payloads
		resp["rows"] = payload
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

func RespondWithJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.L().Error("response not written", zap.Error(err))
	}
}
