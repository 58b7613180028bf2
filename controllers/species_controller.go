package controller

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"treewatch/storage"
	"treewatch/utils"
)

type SpeciesController struct {
	Store  *storage.Storage
	Logger *logrus.Entry
}

func NewSpeciesController(store *storage.Storage) *SpeciesController {
	return &SpeciesController{
		Store:  store,
		Logger: logrus.WithField("component", "species"),
	}
}

func (sc *SpeciesController) GetSpecies(c *fiber.Ctx) error {
	species, err := sc.Store.GetAllTreeSpecies(c.UserContext())
	if err != nil {
		utils.LogError("list_species", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tree species", nil)
	}
	sc.Logger.WithField("count", len(species)).Debug("Listed tree species")
	return c.JSON(species)
}

func (sc *SpeciesController) GetSpeciesByName(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid species name", nil)
	}
	species, err := sc.Store.GetTreeSpecies(c.UserContext(), name)
	if errors.Is(err, storage.ErrNotFound) {
		sc.Logger.WithField("name", name).Debug("Tree species not found")
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Tree species not found", nil)
	}
	if err != nil {
		utils.LogError("get_species", err, map[string]interface{}{"name": name})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tree species", nil)
	}
	return c.JSON(species)
}
