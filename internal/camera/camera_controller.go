package camera

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/webwatch/platform/pkg/protocol"
)

type cameraController struct {
	logger *slog.Logger

	// registered counts cameras that announced themselves over REST. The
	// actual stream state lives in the room directories; this is only the
	// status endpoint the mobile app polls before pairing.
	registered atomic.Int64
}

type registerRequest struct {
	Name string `json:"name"`
}

func (ctrl *cameraController) CameraRegister(c echo.Context) error {
	req := new(registerRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "bad request",
		})
	}
	ctrl.registered.Add(1)
	ctrl.logger.Info("camera registered", slog.String("name", req.Name))
	return c.JSON(http.StatusCreated, map[string]any{
		"status": "ok",
		"camera": req.Name,
	})
}

func (ctrl *cameraController) CameraStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":             "ok",
		"registered_cameras": ctrl.registered.Load(),
	})
}

func (ctrl *cameraController) Resolve(router *echo.Echo) error {
	baseURL := "/api/camera"

	router.POST(baseURL+"/register", ctrl.CameraRegister)
	router.GET(baseURL+"/status", ctrl.CameraStatus)

	return nil
}

var _ protocol.HttpResolvable = (*cameraController)(nil)

type newCameraControllerParams struct {
	fx.In

	Logger *slog.Logger
}

func NewCameraController(params newCameraControllerParams) *cameraController {
	return &cameraController{
		logger: params.Logger,
	}
}
