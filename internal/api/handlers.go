package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/planetlabs/go-stac"

	"github.com/rkm/sat-gbdx/internal/gbdx"
	"github.com/rkm/sat-gbdx/internal/registry"
	"github.com/rkm/sat-gbdx/internal/scene"
	"github.com/rkm/sat-gbdx/internal/translate"
)

// Catalog is the provider surface the handlers need. *gbdx.Client satisfies it.
type Catalog interface {
	Search(ctx context.Context, params gbdx.SearchParams) ([]gbdx.Record, error)
	GetRecord(ctx context.Context, id string) (*gbdx.Record, error)
}

// Handlers implements the HTTP endpoints.
type Handlers struct {
	registry   *registry.Registry
	translator *translate.Translator
	catalog    Catalog
	normalizer *scene.Normalizer
	logger     *slog.Logger
}

// NewHandlers creates the endpoint handlers.
func NewHandlers(reg *registry.Registry, tr *translate.Translator, cat Catalog, logger *slog.Logger) *Handlers {
	return &Handlers{
		registry:   reg,
		translator: tr,
		catalog:    cat,
		normalizer: scene.NewNormalizer(reg),
		logger:     logger,
	}
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// collectionResponse is the JSON shape of one collection.
type collectionResponse struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Instrument string         `json:"instrument"`
	Platform   string         `json:"platform"`
	Properties map[string]any `json:"properties"`
}

func toCollectionResponse(c *registry.Collection) collectionResponse {
	return collectionResponse{
		ID:         c.ID,
		Title:      c.Title,
		Instrument: c.Instrument,
		Platform:   c.Platform,
		Properties: c.Properties,
	}
}

// Collections handles GET /collections.
func (h *Handlers) Collections(w http.ResponseWriter, r *http.Request) {
	cols := h.registry.All()
	out := make([]collectionResponse, 0, len(cols))
	for _, c := range cols {
		out = append(out, toCollectionResponse(c))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"collections": out})
}

// Collection handles GET /collections/{collectionId}.
func (h *Handlers) Collection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionId")
	col := h.registry.Get(id)
	if col == nil {
		WriteNotFound(w, "collection not found")
		return
	}
	WriteJSON(w, http.StatusOK, toCollectionResponse(col))
}

// searchBody is the POST /search request body.
type searchBody struct {
	Intersects  json.RawMessage `json:"intersects,omitempty"`
	Datetime    string          `json:"datetime,omitempty"`
	Collections []string        `json:"collections,omitempty"`
	CloudCover  string          `json:"cloud_cover,omitempty"`
	IDs         []string        `json:"ids,omitempty"`
}

// featureCollection is the search response envelope.
type featureCollection struct {
	Type     string       `json:"type"`
	Features []*stac.Item `json:"features"`
	Context  struct {
		Returned int `json:"returned"`
	} `json:"context"`
}

// Search handles GET and POST /search.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseSearchRequest(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	tr, err := h.translator.Translate(query)
	if err != nil {
		switch {
		case errors.Is(err, translate.ErrUnknownCollection),
			errors.Is(err, translate.ErrInvalidGeometry),
			errors.Is(err, translate.ErrInvalidDateTime),
			errors.Is(err, translate.ErrInvalidCloudCover):
			WriteInvalidParameter(w, err.Error())
		default:
			WriteInternalError(w, err.Error())
		}
		return
	}

	var records []gbdx.Record
	if len(tr.IDs) > 0 {
		for _, id := range tr.IDs {
			rec, err := h.catalog.GetRecord(r.Context(), id)
			if err != nil {
				h.logger.ErrorContext(r.Context(), "record lookup failed",
					slog.String("id", id),
					slog.String("error", err.Error()),
				)
				WriteUpstreamError(w, "record lookup failed")
				return
			}
			records = append(records, *rec)
		}
	} else {
		records, err = h.catalog.Search(r.Context(), tr.Params)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "catalog search failed",
				slog.String("error", err.Error()),
			)
			WriteUpstreamError(w, "catalog search failed")
			return
		}
	}

	scenes, err := h.normalizer.NormalizeAll(records)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "normalization failed",
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "failed to normalize catalog records")
		return
	}

	fc := featureCollection{Type: "FeatureCollection", Features: make([]*stac.Item, 0, len(scenes))}
	for _, s := range scenes {
		fc.Features = append(fc.Features, s.Item)
	}
	fc.Context.Returned = len(fc.Features)

	WriteGeoJSON(w, http.StatusOK, fc)
}

func (h *Handlers) parseSearchRequest(r *http.Request) (*translate.Query, error) {
	if r.Method == http.MethodPost {
		var body searchBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, errors.New("invalid JSON body")
		}
		return h.toQuery(body)
	}

	q := r.URL.Query()
	body := searchBody{
		Datetime:   q.Get("datetime"),
		CloudCover: q.Get("cloud_cover"),
	}
	if v := q.Get("collections"); v != "" {
		body.Collections = splitList(v)
	}
	if v := q.Get("ids"); v != "" {
		body.IDs = splitList(v)
	}
	if v := q.Get("intersects"); v != "" {
		body.Intersects = json.RawMessage(v)
	}
	return h.toQuery(body)
}

func (h *Handlers) toQuery(body searchBody) (*translate.Query, error) {
	cc, err := translate.ParseCloudCover(body.CloudCover)
	if err != nil {
		return nil, err
	}
	return &translate.Query{
		Intersects:  body.Intersects,
		Datetime:    body.Datetime,
		Collections: body.Collections,
		CloudCover:  cc,
		IDs:         body.IDs,
	}, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
