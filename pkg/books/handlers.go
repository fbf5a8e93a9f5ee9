package books

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/uploads"
	"github.com/taleweave/taleweave/pkg/users"
)

const coverImageField = "coverImage"

type handler struct {
	service *Service
	uploads *uploads.Service
}

// ownedBook resolves the :id param to a book owned by the authenticated
// user. Books owned by others read as not found.
func (h *handler) ownedBook(c echo.Context) (*models.Book, error) {
	user, ok := users.UserFromContext(c)
	if !ok {
		return nil, errcodes.Unauthorized("Authentication required")
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Book")
	}
	return h.service.Retrieve(c.Request().Context(), RetrieveBookOptions{ID: id, UserID: &user.ID})
}

func episodeIndex(c echo.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("episodeIndex"))
	if err != nil || index < 0 {
		return 0, errcodes.ValidationError(`"episodeIndex" must be a non-negative integer.`)
	}
	return index, nil
}

func preferredLanguage(c echo.Context) string {
	if user, ok := users.UserFromContext(c); ok {
		return user.PreferredLanguage
	}
	return "en"
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := users.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := struct {
		CreateBookPayload
		FormFiles map[string]*multipart.FileHeader `json:"-"`
	}{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	opts := CreateBookOptions{
		UserID:   user.ID,
		Title:    params.Title,
		Language: user.PreferredLanguage,
	}
	if fh, ok := params.FormFiles[coverImageField]; ok {
		url, err := h.uploads.SaveImage(ctx, "covers", fh, false)
		if err != nil {
			return err
		}
		opts.CoverImage = url
	}

	book, err := h.service.Create(ctx, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *handler) userBooks(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := users.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	books, err := h.service.ListForUser(ctx, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

func (h *handler) retrieve(c echo.Context) error {
	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}

	params := struct {
		UpdateBookPayload
		FormFiles map[string]*multipart.FileHeader `json:"-"`
	}{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	columns := []string{}
	if params.Title != nil {
		book.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.Percentage != nil {
		book.Percentage = *params.Percentage
		columns = append(columns, "percentage")
	}
	if fh, ok := params.FormFiles[coverImageField]; ok {
		url, err := h.uploads.SaveImage(ctx, "covers", fh, false)
		if err != nil {
			return err
		}
		book.CoverImage = url
		columns = append(columns, "cover_image")
	}
	if len(columns) == 0 {
		return errcodes.BadRequest("No updatable fields were provided.")
	}

	updated, err := h.service.Update(ctx, UpdateBookOptions{Book: book, Columns: columns})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handler) delete(c echo.Context) error {
	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), book); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) finalize(c echo.Context) error {
	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}
	updated, err := h.service.Finalize(c.Request().Context(), book)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handler) listEpisodes(c echo.Context) error {
	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book.Episodes)
}

func (h *handler) retrieveEpisode(c echo.Context) error {
	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}
	index, err := episodeIndex(c)
	if err != nil {
		return err
	}
	episode := book.Episode(index)
	if episode == nil {
		return errcodes.NotFound("Episode")
	}
	return c.JSON(http.StatusOK, episode)
}

func (h *handler) updateEpisode(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}
	index, err := episodeIndex(c)
	if err != nil {
		return err
	}
	episode := book.Episode(index)
	if episode == nil {
		return errcodes.NotFound("Episode")
	}

	params := struct {
		UpdateEpisodePayload
		FormFiles map[string]*multipart.FileHeader `json:"-"`
	}{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	updated := false
	if params.Percentage != nil {
		episode.Percentage = *params.Percentage
		updated = true
	}
	if fh, ok := params.FormFiles[coverImageField]; ok {
		url, err := h.uploads.SaveImage(ctx, "covers", fh, false)
		if err != nil {
			return err
		}
		episode.CoverImage = url
		updated = true
	}
	if !updated {
		return errcodes.BadRequest("No updatable fields were provided.")
	}

	saved, err := h.service.SaveEpisodes(ctx, book)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved.Episode(index))
}

func (h *handler) deleteEpisode(c echo.Context) error {
	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}
	index, err := episodeIndex(c)
	if err != nil {
		return err
	}
	if _, err := h.service.DeleteEpisode(c.Request().Context(), book, index); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) startConversation(c echo.Context) error {
	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}
	index, err := episodeIndex(c)
	if err != nil {
		return err
	}
	question, err := h.service.StartConversation(c.Request().Context(), book, index, preferredLanguage(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, QuestionResponse{Question: question})
}

func (h *handler) answer(c echo.Context) error {
	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}
	index, err := episodeIndex(c)
	if err != nil {
		return err
	}
	params := AnswerPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	turn, err := h.service.Answer(c.Request().Context(), book, index, params.Question, params.Answer)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, turn)
}

func (h *handler) nextQuestion(c echo.Context) error {
	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}
	index, err := episodeIndex(c)
	if err != nil {
		return err
	}
	question, err := h.service.NextQuestion(c.Request().Context(), book, index, preferredLanguage(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, QuestionResponse{Question: question})
}

func (h *handler) generateStory(c echo.Context) error {
	book, err := h.ownedBook(c)
	if err != nil {
		return err
	}
	index, err := episodeIndex(c)
	if err != nil {
		return err
	}
	turn, err := h.service.GenerateStory(c.Request().Context(), book, index)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, turn)
}
