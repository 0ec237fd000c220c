// Command formflowd runs the formflow web service: Google Forms/Drive
// orchestration behind a JSON API and an agent chat endpoint.
package main

import (
	"context"
	"log"

	"github.com/formflow/go-formflow/agent"
	"github.com/formflow/go-formflow/client"
	"github.com/formflow/go-formflow/config"
	"github.com/formflow/go-formflow/logger"
	"github.com/formflow/go-formflow/tool"
	"github.com/formflow/go-formflow/web"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/forms/v1"
	"google.golang.org/api/option"
)

func newServices(ctx context.Context, cfg *config.Config) (*forms.Service, *drive.Service, error) {
	opts := []option.ClientOption{}
	if cfg.Google.ServiceAccountFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Google.ServiceAccountFile))
	} else {
		httpClient, err := google.DefaultClient(ctx, forms.FormsBodyScope, drive.DriveScope)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	formsService, err := forms.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	return formsService, driveService, nil
}

func main() {
	godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog := logger.New(cfg.Log.File, cfg.Server.Mode)
	defer zlog.Sync()

	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()
	formsService, driveService, err := newServices(ctx, cfg)
	if err != nil {
		zlog.Fatal("failed to build Google services", zap.Error(err))
	}

	formsClient := client.New(formsService, driveService, client.WithLogger(zlog))
	tools := tool.NewToolset(formsClient, tool.WithLogger(zlog))

	dispatcher := agent.NewModelDispatcher(agent.ModelConfig{
		BaseURL: cfg.Agent.BaseURL,
		APIKey:  cfg.Agent.APIKey,
		Model:   cfg.Agent.Model,
	}, nil)
	runner := agent.NewRunner(dispatcher, tools, agent.WithLogger(zlog))

	server := web.NewServer(tools, runner, web.OAuthConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURI:  cfg.Google.RedirectURI,
	}, web.WithLogger(zlog))

	zlog.Info("formflowd listening", zap.String("port", cfg.Server.Port))
	if err := server.Router().Run(":" + cfg.Server.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
