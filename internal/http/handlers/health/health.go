// Package health реализует проверку живости шлюза.
package health

import (
	"net/http"

	"github.com/go-chi/render"
)

// Ping godoc
// @Summary Проверка живости
// @Tags Health
// @Produce  json
// @Success 200 {object} map[string]string "pong"
// @Router /ping [get]
func Ping(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"detail": "pong"})
}
