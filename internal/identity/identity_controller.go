package identity

import (
	"errors"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/webwatch/platform/pkg/protocol"
)

type identityController struct {
	identityService *IdentityService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token,omitempty"`
}

func (i *identityController) IdentityLogin(c echo.Context) error {
	req := new(loginRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, &loginResponse{
			Status:  "error",
			Message: "bad request",
		})
	}

	token, err := i.identityService.SignIn(c.Request().Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		return c.JSON(http.StatusUnauthorized, &loginResponse{
			Status:  "error",
			Message: "Invalid username or password",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, &loginResponse{
			Status:  "error",
			Message: "login failed",
		})
	}

	return c.JSON(http.StatusOK, &loginResponse{
		Status:      "ok",
		Message:     "login successful",
		AccessToken: token,
	})
}

type verifyResponse struct {
	Verified bool   `json:"verified"`
	Username string `json:"username,omitempty"`
}

func (i *identityController) IdentityTokenVerify(c echo.Context) error {
	header := c.Request().Header.Get("Authorization")
	insecureToken := strings.TrimPrefix(header, "Bearer ")
	if insecureToken == "" {
		return c.JSON(http.StatusBadRequest, &loginResponse{
			Status:  "error",
			Message: ErrEmptyAuthHeader.Error(),
		})
	}

	token, err := i.identityService.token.Verify(insecureToken)
	if err != nil {
		return c.JSON(http.StatusForbidden, &verifyResponse{Verified: false})
	}
	return c.JSON(http.StatusOK, &verifyResponse{
		Verified: true,
		Username: token.Subject(),
	})
}

func (i *identityController) Resolve(router *echo.Echo) error {
	baseURL := "/api/auth"

	router.POST(baseURL+"/login", i.IdentityLogin)
	router.POST(baseURL+"/token-verify", i.IdentityTokenVerify)

	return nil
}

var _ protocol.HttpResolvable = (*identityController)(nil)

type newIdentityControllerParams struct {
	fx.In

	IdentityService *IdentityService
}

func NewIdentityController(params newIdentityControllerParams) *identityController {
	return &identityController{
		identityService: params.IdentityService,
	}
}
