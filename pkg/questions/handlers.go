package questions

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/errcodes"
)

type handler struct {
	service *Service
}

func (h *handler) createBatch(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateQuestionsPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	texts := make([]QuestionText, 0, len(params.Questions))
	for _, q := range params.Questions {
		texts = append(texts, QuestionText{TextEN: q.TextEN, TextES: q.TextES})
	}
	questions, err := h.service.CreateBatch(ctx, params.SectionID, texts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, questions)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Question")
	}
	question, err := h.service.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	params := UpdateQuestionPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	columns := []string{}
	if params.TextEN != nil {
		question.TextEN = *params.TextEN
		columns = append(columns, "text_en")
	}
	if params.TextES != nil {
		question.TextES = *params.TextES
		columns = append(columns, "text_es")
	}
	if len(columns) == 0 {
		return errcodes.BadRequest("No updatable fields were provided.")
	}

	updated, err := h.service.Update(ctx, UpdateQuestionOptions{Question: question, Columns: columns})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handler) delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Question")
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) listBySection(c echo.Context) error {
	sectionID, err := strconv.Atoi(c.Param("sectionId"))
	if err != nil {
		return errcodes.NotFound("Section")
	}
	questions, err := h.service.ListBySection(c.Request().Context(), sectionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, questions)
}
