package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/KigaliAI/youtufy-app/internal/middleware"
	"github.com/KigaliAI/youtufy-app/internal/store"
)

type FavoritesHandler struct {
	favorites store.FavoriteStore
}

func NewFavoritesHandler(favorites store.FavoriteStore) *FavoritesHandler {
	return &FavoritesHandler{favorites: favorites}
}

// List handles GET /api/favorites
func (h *FavoritesHandler) List(c fiber.Ctx) error {
	ids, err := h.favorites.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "STORAGE_ERROR",
			"Failed to list favorites")
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(fiber.Map{"channelIds": ids})
}

// Add handles PUT /api/favorites/:channelId
func (h *FavoritesHandler) Add(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.favorites.Add(c.Context(), middleware.UserID(c), channelID); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "STORAGE_ERROR",
			"Failed to add favorite")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Remove handles DELETE /api/favorites/:channelId
func (h *FavoritesHandler) Remove(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.favorites.Remove(c.Context(), middleware.UserID(c), channelID); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "STORAGE_ERROR",
			"Failed to remove favorite")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
