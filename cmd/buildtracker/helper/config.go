package helper

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/klog/v2"

	"github.com/raids-lab/buildtracker/dao/migrate"
	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/handler"
	"github.com/raids-lab/buildtracker/internal/util"
	"github.com/raids-lab/buildtracker/pkg/alert"
	"github.com/raids-lab/buildtracker/pkg/config"
)

// ConfigInitializer 封装配置初始化逻辑
type ConfigInitializer struct {
	backendConfig *config.Config
}

// NewConfigInitializer 创建新的ConfigInitializer实例
func NewConfigInitializer() *ConfigInitializer {
	return &ConfigInitializer{
		backendConfig: config.GetConfig(),
	}
}

// GetBackendConfig 获取后端配置
func (ci *ConfigInitializer) GetBackendConfig() *config.Config {
	return ci.backendConfig
}

// LoadDebugEnvironment 加载调试环境变量
func (ci *ConfigInitializer) LoadDebugEnvironment() error {
	if gin.Mode() != gin.DebugMode {
		return nil
	}

	err := godotenv.Load(".debug.env")
	if err != nil {
		return err
	}

	be := os.Getenv("BUILDTRACKER_BE_PORT")
	if be == "" {
		panic("BUILDTRACKER_BE_PORT is not set")
	}
	ci.backendConfig.ServerAddr = ":" + be

	return nil
}

// InitializeRegisterConfig 初始化注册配置
func (ci *ConfigInitializer) InitializeRegisterConfig() (*handler.RegisterConfig, error) {
	registerConfig := &handler.RegisterConfig{Config: ci.backendConfig}

	// init db
	db := query.GetDB()
	if err := migrate.Run(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	q := query.Use(db)
	registerConfig.Query = q

	if err := BootstrapSuperuser(context.Background(), q, ci.backendConfig); err != nil {
		return nil, fmt.Errorf("bootstrap superuser: %w", err)
	}

	registerConfig.TokenMgr = util.GetTokenMgr()
	registerConfig.Alerter = alert.NewAlertMgr(ci.backendConfig, q)

	return registerConfig, nil
}

// BootstrapSuperuser 在首次启动时创建配置中的超级用户，已存在时不做修改
func BootstrapSuperuser(ctx context.Context, q *query.Query, conf *config.Config) error {
	boot := conf.Bootstrap
	if boot.Username == "" || boot.Password == "" {
		return nil
	}
	_, err := q.GetUserByUsername(ctx, boot.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, query.ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(boot.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	password := string(hashed)
	user := &model.User{
		Username:    boot.Username,
		Email:       boot.Email,
		Password:    &password,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := q.CreateUser(ctx, user); err != nil {
		return err
	}
	klog.Infof("created superuser %s", user.Username)
	return nil
}
