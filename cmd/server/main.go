package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/campusdash/internal/app"
	"github.com/campusdash/internal/config"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/models"

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
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	printStartupBanner()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	release := cfg.Server.Mode == "release"

	for name, secret := range map[string]string{"jwt": cfg.JWT.SecretKey, "user_jwt": cfg.UserJWT.SecretKey} {
		if !isWeakSecret(secret) {
			continue
		}
		if release {
			stdLog.Fatalf("%s secret 过弱或仍为默认值，生产环境必须配置强随机密钥", name)
		}
		stdLog.Printf("警告: %s secret 过弱或仍为默认值", name)
	}

	if err := app.PrepareDatabase(cfg, !release); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	adminUser := os.Getenv("CD_DEFAULT_ADMIN_USERNAME")
	adminPass := os.Getenv("CD_DEFAULT_ADMIN_PASSWORD")
	switch {
	case release && adminPass == "":
		stdLog.Printf("警告: 未设置 CD_DEFAULT_ADMIN_PASSWORD，跳过默认管理员初始化")
	default:
		if err := models.InitDefaultAdmin(adminUser, adminPass); err != nil {
			stdLog.Printf("警告: 初始化默认管理员失败: %v", err)
		}
	}

	if release {
		gin.SetMode(gin.ReleaseMode)
	}

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
	fmt.Println(ansiBrightMag + "║                    🛵 CampusDash API 启动中                          ║" + ansiReset)
	fmt.Println(ansiBrightMag + "╚══════════════════════════════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiCyan + " ██████╗ █████╗ ███╗   ███╗██████╗ ██╗   ██╗███████╗██████╗  █████╗ ███████╗██╗  ██╗" + ansiReset)
	fmt.Println(ansiCyan + "██╔════╝██╔══██╗████╗ ████║██╔══██╗██║   ██║██╔════╝██╔══██╗██╔══██╗██╔════╝██║  ██║" + ansiReset)
	fmt.Println(ansiCyan + "██║     ███████║██╔████╔██║██████╔╝██║   ██║███████╗██║  ██║███████║███████╗███████║" + ansiReset)
	fmt.Println(ansiCyan + "██║     ██╔══██║██║╚██╔╝██║██╔═══╝ ██║   ██║╚════██║██║  ██║██╔══██║╚════██║██╔══██║" + ansiReset)
	fmt.Println(ansiCyan + "╚██████╗██║  ██║██║ ╚═╝ ██║██║     ╚██████╔╝███████║██████╔╝██║  ██║███████║██║  ██║" + ansiReset)
	fmt.Println(ansiCyan + " ╚═════╝╚═╝  ╚═╝╚═╝     ╚═╝╚═╝      ╚═════╝ ╚══════╝╚═════╝ ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝" + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "Campus delivery storefront" + ansiReset)
	fmt.Println(ansiBlue + "• Storefront: /api/v1" + ansiReset)
	fmt.Println(ansiBlue + "• Admin:      /api/v1/admin" + ansiReset)
	fmt.Println(ansiBlue + "• Health:     /health" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

var weakSecretMarkers = []string{"change-me", "change-in-production", "your-secret-key"}

// isWeakSecret 少于 32 字节或包含示例配置里的占位词
func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range weakSecretMarkers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
