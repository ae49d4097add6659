// Command fmauth-check verifies a deployment end to end: it loads the
// configuration, connects to the FileMaker Data API and (when enabled)
// Redis, and runs a self-cleaning verification-token round trip through
// the full adapter wiring.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/fmauth-adapter/internal/config"
	"github.com/yourusername/fmauth-adapter/internal/domain/entity"
	"github.com/yourusername/fmauth-adapter/internal/domain/repository"
	fmRepo "github.com/yourusername/fmauth-adapter/internal/repository/filemaker"
	redisRepo "github.com/yourusername/fmauth-adapter/internal/repository/redis"
	"github.com/yourusername/fmauth-adapter/internal/service"
	"github.com/yourusername/fmauth-adapter/pkg/database"
	"github.com/yourusername/fmauth-adapter/pkg/fmclient"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	clientCfg := fmclient.Config{
		Server:   cfg.FileMaker.Server,
		Database: cfg.FileMaker.Database,
		Port:     cfg.FileMaker.Port,
		Timeout:  cfg.FileMaker.Timeout(),
	}

	auth, err := newTokenProvider(cfg.FileMaker, clientCfg)
	if err != nil {
		log.Printf("Failed to initialize token provider: %v", err)
		os.Exit(1)
	}

	client, err := fmclient.New(clientCfg, auth)
	if err != nil {
		log.Printf("Failed to initialize data api client: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// A one-record list proves endpoint, database and token in a single
	// request.
	if _, err := client.List(ctx, "nextauth_user", fmclient.Params{"_limit": "1"}); err != nil {
		log.Printf("Data api check failed: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to the FileMaker Data API")

	var cache repository.IdentityCache
	if cfg.Cache.Enabled {
		redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		log.Println("Successfully connected to Redis")

		cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			log.Printf("Failed to initialize CacheRepo: %v", err)
			os.Exit(1)
		}
		cache, err = redisRepo.NewIdentityCache(cacheRepo, keyPrefixes(cfg.Cache.KeyPrefixes))
		if err != nil {
			log.Printf("Failed to initialize IdentityCache: %v", err)
			os.Exit(1)
		}
	}

	adapter, err := service.NewAdapterService(
		fmRepo.NewUserRepo(client),
		fmRepo.NewAccountRepo(client),
		fmRepo.NewSessionRepo(client),
		fmRepo.NewVerificationTokenRepo(client),
		cache,
	)
	if err != nil {
		log.Printf("Failed to initialize AdapterService: %v", err)
		os.Exit(1)
	}

	if err := probeVerificationToken(ctx, adapter); err != nil {
		log.Printf("Verification token round trip failed: %v", err)
		os.Exit(1)
	}
	log.Println("Verification token round trip succeeded")
}

func newTokenProvider(fm config.FileMakerConfig, clientCfg fmclient.Config) (fmclient.TokenProvider, error) {
	switch fm.AuthMode {
	case config.AuthModeCredentials:
		var httpClient *http.Client
		if clientCfg.Timeout > 0 {
			httpClient = &http.Client{Timeout: clientCfg.Timeout}
		}
		return fmclient.NewCredentialProvider(clientCfg.SessionURL(), fm.Username, fm.Password, httpClient)
	default:
		return fmclient.NewStaticTokenProvider(fm.APIKey)
	}
}

func keyPrefixes(cfg config.KeyPrefixesConfig) redisRepo.KeyPrefixes {
	return redisRepo.KeyPrefixes{
		Base:              cfg.Base,
		User:              cfg.User,
		Email:             cfg.Email,
		Session:           cfg.Session,
		SessionByUserID:   cfg.SessionByUserID,
		Account:           cfg.Account,
		AccountByUserID:   cfg.AccountByUserID,
		VerificationToken: cfg.VerificationToken,
	}
}

// probeVerificationToken creates and immediately consumes a throwaway
// token, leaving no residue in either store.
func probeVerificationToken(ctx context.Context, adapter repository.IdentityAdapter) error {
	identifier := "fmauth-check-" + uuid.NewString()
	probe := &entity.VerificationToken{
		Identifier: identifier,
		Token:      uuid.NewString(),
		Expires:    time.Now().Add(5 * time.Minute),
	}
	if _, err := adapter.CreateVerificationToken(ctx, probe); err != nil {
		return err
	}
	consumed, err := adapter.UseVerificationToken(ctx, probe.Identifier, probe.Token)
	if err != nil {
		return err
	}
	if consumed == nil {
		log.Printf("Probe token %s was not found on consume", identifier)
	}
	return nil
}
