// Package httpx reúne helpers de resposta e decodificação usados pelos servidores HTTP.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/ledger"
)

var validate = validator.New()

// ErrorResponse é o corpo padrão de erro
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode lê o corpo JSON e aplica as tags `validate` do DTO
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("bad json")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New("invalid field: " + verrs[0].Field())
		}
		return err
	}
	return nil
}

// StatusFor traduz os erros do ledger para status HTTP
func StatusFor(err error) int {
	switch {
	case ledger.IsValidation(err):
		return http.StatusBadRequest
	case ledger.IsNotFound(err):
		return http.StatusNotFound
	case ledger.IsConflict(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteError responde com o status do erro; erros internos não vazam detalhes
func WriteError(log *zap.Logger, w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// BadRequest é usado para falhas de decodificação/validação do payload
func BadRequest(w http.ResponseWriter, err error) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}
