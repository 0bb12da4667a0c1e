package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"astro-analyze-app/internal/config"
	"astro-analyze-app/internal/logger"
	"astro-analyze-app/internal/presentation/di"
	"astro-analyze-app/internal/presentation/http/router"
)

// AppConfig アプリケーション設定
type AppConfig struct {
	ConfigPath string
	Port       string
}

// ServerInterface サーバーインターフェース（Seam化）
type ServerInterface interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App アプリケーション構造体（Seamパターン）
type App struct {
	config     *AppConfig
	container  *di.Container
	server     *http.Server
	serverSeam ServerInterface // テスト用のSeam
}

// NewApp 新しいAppを作成
func NewApp(appCfg *AppConfig) (*App, error) {
	// ポートのデフォルト値設定
	if appCfg.Port == "" {
		appCfg.Port = "8080"
	}

	// 設定の読み込み
	cfg, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		log.Warn().Err(err).Str("path", appCfg.ConfigPath).Msg("failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}
	logger.Setup(cfg.Log)

	// DIコンテナの初期化
	container, err := di.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DI container: %w", err)
	}

	// ルーターの作成
	handler := router.NewRouter(container)

	// サーバーの設定（解析は最大でAIのタイムアウトまで待つ）
	server := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Gemini.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	app := &App{
		config:    appCfg,
		container: container,
		server:    server,
	}
	// デフォルトでは実際のサーバーを使用
	app.serverSeam = server

	return app, nil
}

// Start サーバーを起動
func (a *App) Start() error {
	a.printStartupMessage()

	// サーバー起動（Seamを使用）
	return a.serverSeam.ListenAndServe()
}

// printStartupMessage 起動メッセージを出力
func (a *App) printStartupMessage() {
	fmt.Println("=== Astro Analyze Server ===")
	fmt.Printf("AI Provider: %s\n", a.container.AnalysisUseCase().GetProviderName())
	fmt.Printf("Server listening on http://0.0.0.0:%s\n", a.config.Port)
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health                   - Health check")
	fmt.Println("  POST /api/v1/planets/analyze   - Planet image analysis (惑星画像解析)")
	fmt.Println("  GET  /api/v1/session           - Current workflow state (現在の状態)")
	fmt.Println("  POST /api/v1/session/reset     - Reset workflow (リセット)")
	fmt.Println("  GET  /previews/{id}            - Uploaded image preview (プレビュー)")
	fmt.Println()
}

// Shutdown サーバーをシャットダウン
func (a *App) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	// サーバーのシャットダウン（Seamを使用）
	if err := a.serverSeam.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// コンテナのクローズ（実行中の保存を待つ）
	if err := a.container.Close(); err != nil {
		return fmt.Errorf("container close failed: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// Run アプリケーションを実行（SIGINT/SIGTERMでグレースフルシャットダウン）
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.RunContext(ctx)
}

// RunContext ctx がキャンセルされるまでサーバーを実行
func (a *App) RunContext(ctx context.Context) error {
	// サーバー起動（goroutine）
	serverErr := make(chan error, 1)
	go func() {
		if err := a.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		// グレースフルシャットダウン
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return a.Shutdown(shutdownCtx)
	}
}

// defaultConfigPath 設定ファイルのパス
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("failed to get home directory, using current directory")
		homeDir = "."
	}
	return filepath.Join(homeDir, ".astro-analyze-app", "config.yaml")
}

// realMain 実際のmain処理（テスト可能にするため分離）
func realMain() error {
	// .env を先に読み込む
	config.LoadEnvFile()

	// ポート番号の取得
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	app, err := NewApp(&AppConfig{
		ConfigPath: defaultConfigPath(),
		Port:       port,
	})
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	return app.Run()
}

func main() {
	if err := realMain(); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}
