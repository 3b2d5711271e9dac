package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/config"
	"chosenoffset.com/emberfall/internal/debug"
	"chosenoffset.com/emberfall/internal/game"
	"chosenoffset.com/emberfall/internal/logging"
	ebitenrender "chosenoffset.com/emberfall/internal/render/ebiten"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run() (int, error) {
	configPath := os.Getenv("EMBERFALL_CONFIG")
	if configPath == "" {
		configPath = "config/emberfall.toml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return 1, err
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return 1, fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	// Initialize the renderer backend (ebiten)
	renderer := ebitenrender.NewRenderer()
	inputMgr := ebitenrender.NewInputManager()
	engine := ebitenrender.NewEngine()

	g, err := game.New(cfg, renderer, inputMgr, log)
	if err != nil {
		return 1, err
	}
	defer g.Close()
	g.FPS = engine.ActualFPS

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Debug.Enabled {
		srv := debug.NewServer(g, cfg.Debug, log)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Error("debug server failed", zap.Error(err))
			}
		}()
	}

	// Set up the window
	engine.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	engine.SetWindowTitle(cfg.Window.Title)
	engine.SetWindowResizable(cfg.Window.Resizable)
	engine.SetTPS(game.TPS)

	log.Info("starting game", zap.String("level", g.Level.Name()))
	runErr := engine.RunGame(game.NewManager(g, cfg.Window.Width, cfg.Window.Height))
	if runErr != nil && !errors.Is(runErr, game.ErrQuit) {
		return 1, runErr
	}

	if err := g.Save(); err != nil {
		log.Warn("failed to save game", zap.Error(err))
	}
	code, _ := g.ExitCode()
	return code, nil
}
