package recording

import (
	"errors"
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/webwatch/platform/pkg/protocol"
)

type recordingController struct {
	recordingService *RecordingService
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (r *recordingController) RecordingCreate(c echo.Context) error {
	rec := new(Recording)
	if err := c.Bind(rec); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{
			Status:  "error",
			Message: "bad request",
		})
	}

	id, err := r.recordingService.Save(c.Request().Context(), rec)
	if err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{
			Status:  "error",
			Message: err.Error(),
		})
	}
	rec.ID = id
	return c.JSON(http.StatusCreated, rec)
}

func (r *recordingController) RecordingList(c echo.Context) error {
	recordings, err := r.recordingService.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, &errorResponse{
			Status:  "error",
			Message: "unable to list recordings",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":     "ok",
		"recordings": recordings,
	})
}

func (r *recordingController) RecordingGet(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{
			Status:  "error",
			Message: "invalid recording id",
		})
	}

	rec, err := r.recordingService.Get(c.Request().Context(), id)
	if errors.Is(err, ErrRecordingNotFound) {
		return c.JSON(http.StatusNotFound, &errorResponse{
			Status:  "error",
			Message: "recording not found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, &errorResponse{
			Status:  "error",
			Message: "unable to load recording",
		})
	}
	return c.JSON(http.StatusOK, rec)
}

func (r *recordingController) RecordingDelete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{
			Status:  "error",
			Message: "invalid recording id",
		})
	}

	err = r.recordingService.Delete(c.Request().Context(), id)
	if errors.Is(err, ErrRecordingNotFound) {
		return c.JSON(http.StatusNotFound, &errorResponse{
			Status:  "error",
			Message: "recording not found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, &errorResponse{
			Status:  "error",
			Message: "unable to delete recording",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (r *recordingController) Resolve(router *echo.Echo) error {
	baseURL := "/api/recordings"

	router.POST(baseURL, r.RecordingCreate)
	router.GET(baseURL, r.RecordingList)
	router.GET(baseURL+"/:id", r.RecordingGet)
	router.DELETE(baseURL+"/:id", r.RecordingDelete)

	return nil
}

var _ protocol.HttpResolvable = (*recordingController)(nil)

type newRecordingControllerParams struct {
	fx.In

	RecordingService *RecordingService
}

func NewRecordingController(params newRecordingControllerParams) *recordingController {
	return &recordingController{
		recordingService: params.RecordingService,
	}
}
