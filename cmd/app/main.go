package main

import (
	"github.com/nbelyakov/doodleroom/internal/app"
	"github.com/nbelyakov/doodleroom/internal/config"
)

func main() {
	app.Go(config.Load())
}
