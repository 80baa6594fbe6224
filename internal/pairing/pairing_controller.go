package pairing

import (
	"crypto/rand"
	"log"
	"math/big"
	"net/http"

	echo "github.com/labstack/echo/v4"

	"github.com/webwatch/platform/pkg/protocol"
)

type pairingController struct{}

// GenerateCode returns a random 6-digit pairing code. Codes act as
// short-lived capability tokens: knowing one is what admits a camera to a
// room, so they come from a cryptographic source rather than math/rand.
func GenerateCode() string {
	// 100000..999999, always exactly six digits.
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		log.Panic("Failed to generate pairing code:", err)
	}
	code := n.Int64() + 100000
	return formatCode(code)
}

func formatCode(code int64) string {
	buf := [6]byte{}
	for i := 5; i >= 0; i-- {
		buf[i] = byte('0' + code%10)
		code /= 10
	}
	return string(buf[:])
}

func (p *pairingController) PairingGenerate(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"code": GenerateCode(),
	})
}

func (p *pairingController) Resolve(router *echo.Echo) error {
	router.GET("/api/code/generate", p.PairingGenerate)
	return nil
}

var _ protocol.HttpResolvable = (*pairingController)(nil)

func NewPairingController() *pairingController {
	return &pairingController{}
}
