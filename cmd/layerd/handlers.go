package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/milk9111/bubbleedit/layer"
)

type LayerHandler struct {
	repo *Repository
}

func NewLayerHandler(repo *Repository) *LayerHandler {
	return &LayerHandler{repo: repo}
}

// Get returns the scene's dialogue layer. 404 means no layer saved yet,
// which the editor treats as an empty start, not an error.
func (h *LayerHandler) Get(c fiber.Ctx) error {
	sceneID := c.Params("id")
	payload, err := h.repo.Get(c.Context(), sceneID)
	if err != nil {
		if errors.Is(err, layer.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no layer for scene"})
		}
		log.Printf("[LAYER] get %s: %v", sceneID, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "storage failure"})
	}
	c.Set("Content-Type", "application/json")
	return c.Send(payload)
}

// Put creates or replaces the scene's dialogue layer. The payload must be
// a structurally valid DialogueLayer; replacing with identical content is
// a no-op by construction.
func (h *LayerHandler) Put(c fiber.Ctx) error {
	sceneID := c.Params("id")
	body := c.Body()
	if len(body) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	dl, err := layer.Decode(body)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid dialogue layer"})
	}
	for i, b := range dl.Bubbles {
		if b.BubbleID == "" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "missing bubble_id", "index": i,
			})
		}
	}

	// store the canonical re-encoding, not the raw body
	canonical, err := json.Marshal(dl)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "encode failure"})
	}
	if err := h.repo.Put(c.Context(), sceneID, canonical); err != nil {
		log.Printf("[LAYER] put %s: %v", sceneID, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "storage failure"})
	}

	c.Set("Content-Type", "application/json")
	return c.Send(canonical)
}
