package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Surya12v/project-s/emi-backend/docs"
	"github.com/labstack/echo/v4"
)

// ServeAPIDoc handles GET /openapi.json: the generated API description with
// the serving host filled in, so API clients can be generated against any
// deployment.
func ServeAPIDoc(c echo.Context) error {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read API doc"})
	}
	doc["host"] = c.Request().Host
	doc["schemes"] = []string{c.Scheme()}
	return c.JSON(http.StatusOK, doc)
}
