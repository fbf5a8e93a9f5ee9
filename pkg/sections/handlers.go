package sections

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/errcodes"
)

type handler struct {
	service *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateSectionPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	section, err := h.service.Create(ctx, CreateSectionOptions{
		NameEN:       params.NameEN,
		NameES:       params.NameES,
		Published:    params.Published,
		EpisodeIndex: params.EpisodeIndex,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, section)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c)
	if err != nil {
		return err
	}
	section, err := h.service.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	params := UpdateSectionPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	columns := []string{}
	if params.NameEN != nil {
		section.NameEN = *params.NameEN
		columns = append(columns, "name_en")
	}
	if params.NameES != nil {
		section.NameES = *params.NameES
		columns = append(columns, "name_es")
	}
	if params.Published != nil {
		section.Published = *params.Published
		columns = append(columns, "published")
	}
	if params.EpisodeIndex != nil {
		section.EpisodeIndex = params.EpisodeIndex
		columns = append(columns, "episode_index")
	}
	if len(columns) == 0 {
		return errcodes.BadRequest("No updatable fields were provided.")
	}

	updated, err := h.service.Update(ctx, UpdateSectionOptions{Section: section, Columns: columns})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handler) delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) list(c echo.Context) error {
	sections, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sections)
}

func (h *handler) retrieve(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	section, err := h.service.Retrieve(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, section)
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Section")
	}
	return id, nil
}
