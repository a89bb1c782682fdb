package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/videowall/server/internal/repository/viewconfig"
	"github.com/videowall/server/internal/service/wall"
	"github.com/videowall/server/pkg/rest"
)

func (c controller) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if err := rest.WriteJSON(w, status, rest.Envelope{"error": message}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write error response", "error", err)
	}
}

func (c controller) getCatalog(w http.ResponseWriter, r *http.Request) {
	videos, err := c.wallService.Catalog(r.Context())
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to load catalog", "error", err)
		c.respondError(w, r, http.StatusBadGateway, "catalog unavailable")
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"videos": videos})
}

func (c controller) reloadCatalog(w http.ResponseWriter, r *http.Request) {
	videos, err := c.wallService.ReloadCatalog(r.Context())
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to reload catalog", "error", err)
		c.respondError(w, r, http.StatusBadGateway, "catalog unavailable")
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"videos": videos})
}

func (c controller) getPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := c.wallService.Presets(r.Context())
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to derive presets", "error", err)
		c.respondError(w, r, http.StatusBadGateway, "catalog unavailable")
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"presets": presets})
}

func (c controller) listConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := c.wallService.ListConfigs(r.Context())
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to list view configs", "error", err)
		c.respondError(w, r, http.StatusInternalServerError, "failed to list view configs")
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"configs": configs})
}

func (c controller) deleteConfig(w http.ResponseWriter, r *http.Request) {
	configId := chi.URLParam(r, "config-id")

	if err := c.wallService.DeleteConfig(r.Context(), configId); err != nil {
		if errors.Is(err, viewconfig.ErrNotFound) {
			c.respondError(w, r, http.StatusNotFound, "view config not found")
			return
		}
		c.logger.WarnContext(r.Context(), "failed to delete view config", "error", err)
		c.respondError(w, r, http.StatusInternalServerError, "failed to delete view config")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type CreateWallInput struct {
	Layout string `json:"layout" validate:"required,oneof=1x1 1x2 2x2 2x3"`
}

func (c controller) createWall(w http.ResponseWriter, r *http.Request) {
	var input CreateWallInput
	if err := rest.ReadJSON(r, &input); err != nil {
		c.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.wallService.CreateWall(r.Context(), &wall.CreateWallParams{Layout: input.Layout})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to create wall", "error", err)
		c.respondError(w, r, http.StatusInternalServerError, "failed to create wall")
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{
		"wall_id":    resp.WallId,
		"slot_count": resp.SlotCount,
	})
}

func (c controller) getWall(w http.ResponseWriter, r *http.Request) {
	wallId := chi.URLParam(r, "wall-id")

	view, err := c.wallService.GetWall(r.Context(), wallId)
	if err != nil {
		if errors.Is(err, wall.ErrWallNotFound) {
			c.respondError(w, r, http.StatusNotFound, "wall not found")
			return
		}
		c.logger.WarnContext(r.Context(), "failed to get wall", "error", err)
		c.respondError(w, r, http.StatusInternalServerError, "failed to get wall")
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"wall": view})
}

func (c controller) removeWall(w http.ResponseWriter, r *http.Request) {
	wallId := chi.URLParam(r, "wall-id")

	if err := c.wallService.RemoveWall(r.Context(), wallId); err != nil {
		if errors.Is(err, wall.ErrWallNotFound) {
			c.respondError(w, r, http.StatusNotFound, "wall not found")
			return
		}
		c.logger.WarnContext(r.Context(), "failed to remove wall", "error", err)
		c.respondError(w, r, http.StatusInternalServerError, "failed to remove wall")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
