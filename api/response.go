package api

import (
	"encoding/json"
	"net/http"

	"github.com/kostiamol/offsetms/log"
)

func resp(w http.ResponseWriter, l log.Logger, code int, data interface{}, meta map[string]interface{}) {
	body := map[string]interface{}{"data": data}
	if len(meta) > 0 {
		body["meta"] = meta
	}

	b, err := json.Marshal(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if _, err = w.Write(b); err != nil {
		l.Errorf("func Write: %s", err)
	}
}

func respError(w http.ResponseWriter, l log.Logger, err error) {
	w.Header().Set("Content-Type", "application/json")

	code := http.StatusInternalServerError
	body := map[string]interface{}{
		"code":    ErrService,
		"message": "Internal Server Error",
	}

	if apiErr, ok := err.(apiError); ok {
		body["code"] = apiErr.Code
		body["message"] = apiErr.Message

		switch apiErr.Code {
		case ErrNotFound:
			code = http.StatusNotFound
		case ErrBadRequest, ErrBadParam:
			code = http.StatusBadRequest
		case ErrAuth, ErrBadJwt:
			code = http.StatusUnauthorized
		case ErrDevice:
			code = http.StatusBadGateway
		}
	} else {
		l.Errorf("func respError: %s", err)
	}

	b, err := json.Marshal(body)
	if err != nil {
		l.Errorf("func Marshal: %s", err)
	}

	w.WriteHeader(code)

	if _, err = w.Write(b); err != nil {
		l.Errorf("func Write: %s", err)
	}
}
