package main

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/webwatch/platform/internal/camera"
	"github.com/webwatch/platform/internal/config"
	"github.com/webwatch/platform/internal/identity"
	"github.com/webwatch/platform/internal/pairing"
	"github.com/webwatch/platform/internal/recording"
	"github.com/webwatch/platform/internal/room"
	"github.com/webwatch/platform/internal/signaling"
	"github.com/webwatch/platform/internal/socket"
	"github.com/webwatch/platform/pkg/protocol"
	"github.com/webwatch/platform/pkg/service"
	"github.com/webwatch/platform/pkg/variables"
)

func LoadConfig() (*config.Config, error) {
	return config.Load(variables.Env(variables.CONFIG_PATH_NAME, variables.CONFIG_PATH_DEFAULT))
}

func NewSignalingRouter(registry *socket.Registry, directories *room.Directories, logger *slog.Logger) *signaling.Router {
	return signaling.NewRouter(registry, directories.Rooms, logger)
}

func NewFrameRelay(registry *socket.Registry, directories *room.Directories, logger *slog.Logger) *signaling.FrameRelay {
	return signaling.NewFrameRelay(registry, directories.Fallback, logger)
}

func main() {
	fx.New(
		fx.Provide(
			LoadConfig,

			socket.NewRegistry,
			room.NewDirectories,
			NewSignalingRouter,
			NewFrameRelay,

			identity.NewTokenService,
			identity.NewIdentityService,
			recording.NewRecordingService,

			protocol.AsHttpController(socket.NewSocketController),
			protocol.AsHttpController(identity.NewIdentityController),
			protocol.AsHttpController(recording.NewRecordingController),
			protocol.AsHttpController(camera.NewCameraController),
			protocol.AsHttpController(pairing.NewPairingController),
		),

		service.LoggerModule,
		service.DatabaseModule,
		service.HttpModule,
	).Run()
}
