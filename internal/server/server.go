package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"reflect"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"spycat/internal/engine"
	"spycat/internal/logging"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Logger   *slog.Logger
	// RateLimit is requests per second per client address; 0 disables limiting.
	RateLimit float64
	Burst     int
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"conflict"`
	Message string         `json:"message" example:"this cat already has an active mission"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the spy cat API.
func New(cfg Config) (http.Handler, error) {
	basePath := strings.TrimSuffix(cfg.BasePath, "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			// Schema/request validation errors are plain bad requests here.
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	metrics := newMetrics()
	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(accessLog(logger))
	router.Use(metrics.middleware)
	if cfg.RateLimit > 0 {
		router.Use(newRateLimiter(cfg.RateLimit, cfg.Burst).middleware)
	}

	hcfg := huma.DefaultConfig("Spy Cat Agency API", "1.0.0")
	hcfg.OpenAPIPath = "" // served below with the error schema attached
	hcfg.DocsPath = ""    // custom Swagger UI below
	hcfg.CreateHooks = nil
	api := humachi.New(router, hcfg)
	var group huma.API = api
	if basePath != "" {
		group = huma.NewGroup(api, basePath)
	}

	registerDocs(router, basePath)
	registerHealth(group)
	registerBreeds(group, cfg.Engine)
	registerCats(group, cfg.Engine)
	registerMissions(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)
	router.Handle(path.Join("/", basePath, "metrics"), metrics.handler())

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps engine failures onto HTTP statuses. NotFound is 404; the
// other business failures are 400.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ee *engine.Error
	if errors.As(err, &ee) {
		switch {
		case errors.Is(err, engine.ErrNotFound):
			return newAPIError(http.StatusNotFound, "not_found", ee.Message, nil)
		case errors.Is(err, engine.ErrConflict):
			return newAPIError(http.StatusBadRequest, "conflict", ee.Message, nil)
		case errors.Is(err, engine.ErrInvalidState):
			return newAPIError(http.StatusBadRequest, "invalid_state", ee.Message, nil)
		case errors.Is(err, engine.ErrInvalidArgument):
			return newAPIError(http.StatusBadRequest, "invalid_argument", ee.Message, nil)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newAPIError(http.StatusServiceUnavailable, "unavailable", "request cancelled", nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get(path.Join("/", basePath, "docs"), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	oas := api.OpenAPI()
	ensureDefaultErrorResponses(oas)
	spec, err := json.Marshal(oas)
	r.Get(path.Join("/", basePath, "openapi.json"), func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	ref := &huma.Schema{Ref: "#/components/schemas/ApiError"}
	if oas.Components != nil && oas.Components.Schemas != nil {
		ref = oas.Components.Schemas.Schema(reflect.TypeOf(apiError{}), true, "ApiError")
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {Schema: ref},
				},
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", basePath, "openapi.json")
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Spy Cat Agency API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerBreeds(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-breeds",
		Method:      http.MethodGet,
		Path:        "/breeds/",
		Summary:     "List allowed breeds",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []BreedResponse `json:"body"`
	}, error) {
		names := e.Breeds.Names()
		out := make([]BreedResponse, 0, len(names))
		for _, n := range names {
			out = append(out, BreedResponse{Name: n})
		}
		return &struct {
			Body []BreedResponse `json:"body"`
		}{Body: out}, nil
	})
}
