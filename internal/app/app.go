package app

import (
	"context"
	"log"

	"github.com/nbelyakov/doodleroom/internal/config"
	http_game "github.com/nbelyakov/doodleroom/internal/delivery/http/game"
	http_init "github.com/nbelyakov/doodleroom/internal/delivery/http/init"
	ws_game "github.com/nbelyakov/doodleroom/internal/delivery/ws/game"
	infra_pg_init "github.com/nbelyakov/doodleroom/internal/infra/postgres/init"
	infra_postgres_game "github.com/nbelyakov/doodleroom/internal/infra/postgres/game"
	infra_redis_canvas "github.com/nbelyakov/doodleroom/internal/infra/redis/canvas"
	infra_redis_init "github.com/nbelyakov/doodleroom/internal/infra/redis/init"
	usecase_game "github.com/nbelyakov/doodleroom/internal/usecase/game"
)

func Go(cfg *config.Config) {
	redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
	pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)

	gameRepository := infra_postgres_game.New(pgConn)
	if err := gameRepository.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}
	canvasCache := infra_redis_canvas.New(redisConn)

	gameUC := usecase_game.New(gameRepository, canvasCache)

	hub := ws_game.NewHub(gameUC)
	gameUC.AttachBroadcaster(hub)

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_game.New(gameUC, hub))
	controllerPool.Add(ws_game.NewController(hub))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}
