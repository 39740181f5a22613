// Package handler exposes the HTTP handlers of the SkillSwap API.  The
// catalog handlers in this file are public and read-only; everything they
// serve comes from the in-memory catalog.
package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/skillswap/internal/catalog"
)

// CatalogHandler serves skills, categories, top providers and events.
type CatalogHandler struct {
    Catalog *catalog.Catalog
}

// ListSkills filters the catalog by ?search= and ?category= (default
// "All").  An empty result is a normal 200 with "empty": true.
func (h *CatalogHandler) ListSkills(c echo.Context) error {
    search := c.QueryParam("search")
    category := strings.TrimSpace(c.QueryParam("category"))
    if category == "" {
        category = catalog.AllCategories
    }
    items := h.Catalog.Filter(search, category)
    return c.JSON(http.StatusOK, echo.Map{
        "items":    items,
        "count":    len(items),
        "empty":    len(items) == 0,
        "search":   search,
        "category": category,
    })
}

// GetSkill returns one offering.  Unknown and non-numeric ids are 404.
func (h *CatalogHandler) GetSkill(c echo.Context) error {
    o, err := h.Catalog.FindByID(c.Param("id"))
    if err != nil {
        return c.JSON(http.StatusNotFound, echo.Map{
            "error":   "skill not found",
            "message": "The skill you are looking for does not exist.",
            "id":      c.Param("id"),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"skill": o})
}

func (h *CatalogHandler) Categories(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"items": h.Catalog.Categories()})
}

// TopProviders returns the best-rated providers; ?n= defaults to 3.
func (h *CatalogHandler) TopProviders(c echo.Context) error {
    n := catalog.DefaultTopProviders
    if raw := c.QueryParam("n"); raw != "" {
        v, err := strconv.Atoi(raw)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid n"})
        }
        n = v
    }
    return c.JSON(http.StatusOK, echo.Map{"items": h.Catalog.TopProviders(n)})
}

func (h *CatalogHandler) Events(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"items": h.Catalog.Events()})
}
