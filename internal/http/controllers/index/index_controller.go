// Package index contiene el controller de la página principal.
package index

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	httperrors "github.com/dropDatabas3/hellopush/internal/http/errors"
	svc "github.com/dropDatabas3/hellopush/internal/http/services/index"
	"github.com/dropDatabas3/hellopush/internal/observability/logger"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// maxFormBody acota el form de publicación.
const maxFormBody = 1 << 20

// IndexController maneja GET / y POST /.
type IndexController struct {
	service svc.IndexService
}

func NewIndexController(service svc.IndexService) *IndexController {
	return &IndexController{service: service}
}

// Controllers agrupa los controllers del dominio index.
type Controllers struct {
	Index *IndexController
}

func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Index: NewIndexController(s.Index)}
}

// Get maneja GET /
func (c *IndexController) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("IndexController.Get"))

	page := c.service.Page(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := indexTemplate.Execute(w, page); err != nil {
		log.Error("template render failed", logger.Err(err))
	}
}

// Publish maneja POST / (form field payload)
func (c *IndexController) Publish(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("IndexController.Publish"))

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		log.Debug("form parse failed", logger.Err(err))
		httperrors.WriteText(w, httperrors.ErrMissingPayload.WithCause(err))
		return
	}

	id, err := c.service.Publish(r.Context(), r.PostForm.Get("payload"))
	switch {
	case errors.Is(err, svc.ErrMissingPayload):
		httperrors.WriteText(w, httperrors.ErrMissingPayload)
		return
	case err != nil:
		httperrors.WriteText(w, httperrors.ErrPublishFailed.WithCause(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "Message %s sent.", id)
}
