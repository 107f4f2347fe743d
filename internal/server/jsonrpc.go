package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/copyleftdev/prospector/internal/errors"
)

// JSON-RPC 2.0 error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeNotFound       = -32001
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      interface{}       `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params,omitempty"`
}

type idParams struct {
	ID string `json:"optimization_id"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, codeParseError, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithError(w, codeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	// Route to appropriate handler
	var result interface{}
	var err error

	switch request.Method {
	case "optimization.start":
		var p OptimizeRequest
		if err = firstParam(request.Params, &p); err == nil {
			result, err = s.Start(p)
		}
	case "optimization.status":
		var p idParams
		if err = firstParam(request.Params, &p); err == nil {
			result, err = s.Status(p.ID)
		}
	case "optimization.cancel":
		var p idParams
		if err = firstParam(request.Params, &p); err == nil {
			if err = s.Cancel(p.ID); err == nil {
				result = map[string]string{"status": StatusCancelled}
			}
		}
	default:
		s.respondWithError(w, codeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, rpcCode(err), err.Error(), request.ID)
		return
	}

	// Send successful response
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func firstParam(params []json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return apperrors.BadRequest("missing required parameters")
	}
	if err := json.Unmarshal(params[0], v); err != nil {
		return apperrors.BadRequest("invalid parameter format: %v", err)
	}
	return nil
}

func rpcCode(err error) int {
	switch apperrors.StatusCode(err) {
	case http.StatusBadRequest:
		return codeInvalidParams
	case http.StatusNotFound:
		return codeNotFound
	}
	return codeServerError
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("JSON-RPC request failed", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
