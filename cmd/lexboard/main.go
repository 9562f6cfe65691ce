package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rowanvell/lexboard/internal/api"
	"github.com/rowanvell/lexboard/internal/cache"
	"github.com/rowanvell/lexboard/internal/config"
	"github.com/rowanvell/lexboard/internal/tui"
	"github.com/rowanvell/lexboard/internal/web"
)

func main() {
	configPathFlag := flag.String("config", "", "config file path")
	apiFlag := flag.String("api", "", "GraphQL endpoint URL")
	userFlag := flag.String("user", "", "current user id (drives the 'my tasks' filter)")
	cachePathFlag := flag.String("cache", "", "snapshot cache path")
	limitFlag := flag.Int("limit", 0, "max tasks to fetch")
	webFlag := flag.Bool("web", false, "enable web server")
	webOnlyFlag := flag.Bool("web-only", false, "run web server only")
	portFlag := flag.Int("port", 0, "web server port")
	flag.Parse()

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	if *apiFlag != "" {
		cfg.APIURL = *apiFlag
	}
	if cfg.APIURL == "" {
		log.Fatal("API endpoint is required (set -api or api_url in config)")
	}
	if *userFlag != "" {
		cfg.UserID = *userFlag
	}
	if *cachePathFlag != "" {
		cfg.CachePath = *cachePathFlag
	}
	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(filepath.Dir(cfgPath), "lexboard.db")
	}
	if *limitFlag != 0 {
		cfg.FetchLimit = *limitFlag
	}
	if cfg.FetchLimit == 0 {
		cfg.FetchLimit = 200
	}
	if *webFlag {
		cfg.WebEnabled = true
	}
	if *portFlag != 0 {
		cfg.WebPort = *portFlag
	}
	if cfg.WebPort == 0 {
		cfg.WebPort = 8080
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		log.Fatal(err)
	}

	store, err := openStore(cfg.CachePath)
	if err != nil {
		log.Fatal(err)
	}

	client := api.NewClient(cfg.APIURL, cfg.APIToken)
	source := &api.Fetcher{Client: client, Cache: store, Limit: cfg.FetchLimit}

	if cfg.WebEnabled {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		handler := web.NewServer(source, cfg.UserID).Handler()
		if *webOnlyFlag {
			log.Printf("Web board running at http://localhost%s", addr)
			log.Fatal(http.ListenAndServe(addr, handler))
		}

		go func() {
			log.Printf("Web board running at http://localhost%s", addr)
			if err := http.ListenAndServe(addr, handler); err != nil {
				log.Printf("web server error: %v", err)
			}
		}()
	}

	if *webOnlyFlag {
		return
	}

	if err := tui.Run(source, client, cfg.UserID); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openStore(cachePath string) (*cache.Store, error) {
	if err := config.EnsureDir(cachePath); err != nil {
		return nil, err
	}

	sqlDB, err := cache.Open(cachePath)
	if err != nil {
		return nil, err
	}

	return cache.NewStore(sqlDB), nil
}
