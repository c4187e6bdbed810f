package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stockhold-next/internal/app"
	"github.com/stockhold-next/internal/config"
	"github.com/stockhold-next/internal/logger"
	"github.com/stockhold-next/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiDim       = "\033[2m"
	ansiGreen     = "\033[32m"
	ansiBlue      = "\033[34m"
	ansiCyan      = "\033[36m"
	ansiBrightMag = "\033[95m"
)

func main() {
	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	for _, secret := range []string{cfg.JWT.SecretKey, cfg.UserJWT.SecretKey} {
		if cfg.Server.Mode == "release" && isWeakSecret(secret) {
			stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		} else if isWeakSecret(secret) {
			stdLog.Printf("警告: JWT secret 过弱或仍为默认值，建议在生产环境中更换")
		}
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogSQL, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiBrightMag + "╔══════════════════════════════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiBrightMag + "║                     📦 Stockhold-Next API 启动中                     ║" + ansiReset)
	fmt.Println(ansiBrightMag + "╚══════════════════════════════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiCyan + "███████╗████████╗ ██████╗  ██████╗██╗  ██╗██╗  ██╗ ██████╗ ██╗     ██████╗ " + ansiReset)
	fmt.Println(ansiCyan + "██╔════╝╚══██╔══╝██╔═══██╗██╔════╝██║ ██╔╝██║  ██║██╔═══██╗██║     ██╔══██╗" + ansiReset)
	fmt.Println(ansiCyan + "███████╗   ██║   ██║   ██║██║     █████╔╝ ███████║██║   ██║██║     ██║  ██║" + ansiReset)
	fmt.Println(ansiCyan + "╚════██║   ██║   ██║   ██║██║     ██╔═██╗ ██╔══██║██║   ██║██║     ██║  ██║" + ansiReset)
	fmt.Println(ansiCyan + "███████║   ██║   ╚██████╔╝╚██████╗██║  ██╗██║  ██║╚██████╔╝███████╗██████╔╝" + ansiReset)
	fmt.Println(ansiCyan + "╚══════╝   ╚═╝    ╚═════╝  ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═════╝ " + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "Multi-warehouse stock reservation engine" + ansiReset)
	fmt.Println(ansiBlue + "• Modes:   all | api | worker" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
