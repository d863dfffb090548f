/*
Testbed application exercising the engine package: a window, a camera
driven by action maps, and a couple of asynchronous asset loads.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hcfgod/Vortex-sub001/engine"
	"github.com/hcfgod/Vortex-sub001/testbed"
)

func main() {
	game, err := testbed.NewTestGame()
	if err != nil {
		panic(err)
	}

	app, err := engine.NewApplication(game.Game)
	if err != nil {
		panic(err)
	}

	// Signal channel to capture system calls.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		<-sigCh
		app.Stop()
	}()

	if err := app.Run(); err != nil {
		panic(err)
	}
}
